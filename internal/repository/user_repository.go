package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/camp-ops/dashboard-api/internal/models"
)

const userColumns = `username, password_hash, role, permissions, created_at, updated_at`

// UserRepository persists operator accounts and their audit trail.
// Usernames are the primary key; there is no separate numeric id.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByUsername loads a single account. sql.ErrNoRows passes through
// untouched so callers can map it to a 404 or invalid-credentials error.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.UserAccount, error) {
	const query = `SELECT ` + userColumns + ` FROM user_accounts WHERE username = $1 LIMIT 1`
	var account models.UserAccount
	err := r.db.GetContext(ctx, &account, query, username)
	switch {
	case err == sql.ErrNoRows:
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return &account, nil
}

// List returns a page of accounts plus the unpaged total.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.UserAccount, int, error) {
	where, args := userFilterClause(filter)

	sortBy := filter.SortBy
	switch sortBy {
	case "username", "role", "created_at", "updated_at":
	default:
		sortBy = "username"
	}
	sortOrder := "ASC"
	if strings.EqualFold(filter.SortOrder, "DESC") {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	listQuery := fmt.Sprintf("SELECT %s FROM user_accounts%s ORDER BY %s %s LIMIT %d OFFSET %d",
		userColumns, where, sortBy, sortOrder, pageSize, (page-1)*pageSize)

	var accounts []models.UserAccount
	if err := r.db.SelectContext(ctx, &accounts, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM user_accounts"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	return accounts, total, nil
}

func userFilterClause(filter models.UserFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("LOWER(username) LIKE $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// Create inserts a new account, stamping timestamps if unset.
func (r *UserRepository) Create(ctx context.Context, account *models.UserAccount) error {
	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	const query = `INSERT INTO user_accounts (username, password_hash, role, permissions, created_at, updated_at)
		VALUES (:username, :password_hash, :role, :permissions, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, account); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields: role and permissions. Username and
// password have dedicated paths.
func (r *UserRepository) Update(ctx context.Context, account *models.UserAccount) error {
	account.UpdatedAt = time.Now().UTC()
	const query = `UPDATE user_accounts SET role = :role, permissions = :permissions, updated_at = :updated_at WHERE username = :username`
	if _, err := r.db.NamedExecContext(ctx, query, account); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// UpdatePassword swaps the stored bcrypt hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, username, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE user_accounts SET password_hash = $2, updated_at = $3 WHERE username = $1`
	if _, err := r.db.ExecContext(ctx, query, username, passwordHash, updatedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Delete removes an account permanently.
func (r *UserRepository) Delete(ctx context.Context, username string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_accounts WHERE username = $1`, username); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// CreateAuditLog appends one audit entry. Audit writes share this
// repository because they live in the same database transaction scope
// as account changes.
func (r *UserRepository) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (username, action, resource, detail, ip_address, user_agent, created_at)
		VALUES (:username, :action, :resource, :detail, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}
