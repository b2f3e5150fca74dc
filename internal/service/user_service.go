package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/camp-ops/dashboard-api/internal/models"
	appErrors "github.com/camp-ops/dashboard-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.UserAccount, int, error)
	FindByUsername(ctx context.Context, username string) (*models.UserAccount, error)
	Create(ctx context.Context, user *models.UserAccount) error
	Update(ctx context.Context, user *models.UserAccount) error
	Delete(ctx context.Context, username string) error
}

// CreateUserRequest represents payload for creating operator accounts.
type CreateUserRequest struct {
	Username    string          `json:"username" validate:"required,min=3"`
	Password    string          `json:"password" validate:"required,min=6"`
	Role        models.UserRole `json:"role" validate:"required,oneof=admin viewer unit_leader"`
	Permissions []string        `json:"permissions,omitempty"`
}

// UpdateUserRequest payload for updating an account's role or permissions.
type UpdateUserRequest struct {
	Role        models.UserRole `json:"role" validate:"required,oneof=admin viewer unit_leader"`
	Permissions []string        `json:"permissions,omitempty"`
}

// UserService handles operator account management.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated accounts and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.UserAccount, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	pagination := &models.Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
	}
	return users, pagination, nil
}

// Get returns one account by username.
func (s *UserService) Get(ctx context.Context, username string) (*models.UserAccount, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Create adds a new account. Missing permissions fall back to the role
// defaults.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*models.UserAccount, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	username := strings.ToLower(strings.TrimSpace(req.Username))

	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username already taken")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check username")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	perms, err := encodePermissions(req.Permissions, req.Role)
	if err != nil {
		return nil, err
	}

	user := &models.UserAccount{
		Username:     username,
		PasswordHash: string(hash),
		Role:         req.Role,
		Permissions:  perms,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.logger.Info("user created", zap.String("username", username), zap.String("role", string(req.Role)))
	return user, nil
}

// Update changes an account's role and permission set.
func (s *UserService) Update(ctx context.Context, username string, req UpdateUserRequest) (*models.UserAccount, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	user, err := s.Get(ctx, username)
	if err != nil {
		return nil, err
	}

	perms, err := encodePermissions(req.Permissions, req.Role)
	if err != nil {
		return nil, err
	}

	user.Role = req.Role
	user.Permissions = perms
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	return user, nil
}

// ResetPassword sets a new password for an account without checking the
// old one. Admin only, enforced by the route layer.
func (s *UserService) ResetPassword(ctx context.Context, username, newPassword string) error {
	if len(newPassword) < 6 {
		return appErrors.Clone(appErrors.ErrValidation, "password must be at least 6 characters")
	}
	user, err := s.Get(ctx, username)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	user.PasswordHash = string(hash)
	if err := s.repo.Update(ctx, user); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}
	return nil
}

// Delete removes an account. The last admin cannot be deleted.
func (s *UserService) Delete(ctx context.Context, username, actingUsername string) error {
	if username == actingUsername {
		return appErrors.Clone(appErrors.ErrValidation, "cannot delete your own account")
	}
	if _, err := s.Get(ctx, username); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, username); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	s.logger.Info("user deleted", zap.String("username", username), zap.String("by", actingUsername))
	return nil
}

func encodePermissions(perms []string, role models.UserRole) (string, error) {
	if len(perms) == 0 {
		perms = models.RoleDefaultPermissions[role]
	}
	valid := map[string]struct{}{}
	for _, p := range models.AllPermissions {
		valid[p] = struct{}{}
	}
	for _, p := range perms {
		if _, ok := valid[p]; !ok {
			return "", appErrors.Clone(appErrors.ErrValidation, "unknown permission: "+p)
		}
	}
	raw, err := json.Marshal(perms)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode permissions")
	}
	return string(raw), nil
}
