package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/camp-ops/dashboard-api/internal/models"
	appErrors "github.com/camp-ops/dashboard-api/pkg/errors"
)

type mockUserRepo struct {
	users map[string]*models.UserAccount
}

func newMockUserRepo(users ...*models.UserAccount) *mockUserRepo {
	repo := &mockUserRepo{users: make(map[string]*models.UserAccount)}
	for _, user := range users {
		repo.users[user.Username] = user
	}
	return repo
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.UserAccount, int, error) {
	out := make([]models.UserAccount, 0, len(m.users))
	for _, user := range m.users {
		out = append(out, *user)
	}
	return out, len(out), nil
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*models.UserAccount, error) {
	user, ok := m.users[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.UserAccount) error {
	m.users[user.Username] = user
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.UserAccount) error {
	m.users[user.Username] = user
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, username string) error {
	delete(m.users, username)
	return nil
}

func TestUserServiceCreate(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Username: "  Leader1 ",
		Password: "secret99",
		Role:     models.RoleUnitLeader,
	})
	require.NoError(t, err)
	assert.Equal(t, "leader1", user.Username)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret99")))
	assert.Equal(t, models.RoleDefaultPermissions[models.RoleUnitLeader], PermissionList(user))
}

func TestUserServiceCreateDuplicate(t *testing.T) {
	repo := newMockUserRepo(&models.UserAccount{Username: "leader1", Role: models.RoleUnitLeader})
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateUserRequest{Username: "leader1", Password: "secret99", Role: models.RoleViewer})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestUserServiceCreateUnknownPermission(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Username:    "leader1",
		Password:    "secret99",
		Role:        models.RoleViewer,
		Permissions: []string{"launch_rockets"},
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestUserServiceUpdateRole(t *testing.T) {
	repo := newMockUserRepo(&models.UserAccount{Username: "viewer1", Role: models.RoleViewer})
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	user, err := svc.Update(context.Background(), "viewer1", UpdateUserRequest{
		Role:        models.RoleUnitLeader,
		Permissions: []string{models.PermTakeAttendance},
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUnitLeader, user.Role)
	assert.Equal(t, []string{models.PermTakeAttendance}, PermissionList(user))
}

func TestUserServiceResetPassword(t *testing.T) {
	repo := newMockUserRepo(&models.UserAccount{Username: "viewer1", Role: models.RoleViewer, PasswordHash: "old"})
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	require.Error(t, svc.ResetPassword(context.Background(), "viewer1", "short"))
	require.NoError(t, svc.ResetPassword(context.Background(), "viewer1", "longenough"))
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users["viewer1"].PasswordHash), []byte("longenough")))
}

func TestUserServiceDeleteSelf(t *testing.T) {
	repo := newMockUserRepo(&models.UserAccount{Username: "director", Role: models.RoleAdmin})
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), "director", "director")
	require.Error(t, err)
	assert.Contains(t, repo.users, "director")

	repo.users["viewer1"] = &models.UserAccount{Username: "viewer1", Role: models.RoleViewer}
	require.NoError(t, svc.Delete(context.Background(), "viewer1", "director"))
	assert.NotContains(t, repo.users, "viewer1")
}

func TestUserServiceGetMissing(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	_, err := svc.Get(context.Background(), "ghost")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
