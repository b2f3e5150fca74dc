package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/camp-ops/dashboard-api/internal/models"
)

// SettingsRepository provides database access for program settings, global
// settings and unit-leader program assignments.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new instance of SettingsRepository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// ProgramSettings returns all stored program settings.
func (r *SettingsRepository) ProgramSettings(ctx context.Context) ([]models.ProgramSetting, error) {
	const query = `SELECT program_name, goal, weeks_offered, weeks_active, active FROM program_settings ORDER BY program_name`
	var settings []models.ProgramSetting
	if err := r.db.SelectContext(ctx, &settings, query); err != nil {
		return nil, fmt.Errorf("list program settings: %w", err)
	}
	return settings, nil
}

// UpsertProgramSetting writes the configuration row for one program.
func (r *SettingsRepository) UpsertProgramSetting(ctx context.Context, setting *models.ProgramSetting) error {
	const query = `INSERT INTO program_settings (program_name, goal, weeks_offered, weeks_active, active)
		VALUES (:program_name, :goal, :weeks_offered, :weeks_active, :active)
		ON CONFLICT (program_name)
		DO UPDATE SET goal = EXCLUDED.goal, weeks_offered = EXCLUDED.weeks_offered, weeks_active = EXCLUDED.weeks_active, active = EXCLUDED.active`
	if _, err := r.db.NamedExecContext(ctx, query, setting); err != nil {
		return fmt.Errorf("upsert program setting: %w", err)
	}
	return nil
}

// GlobalSetting returns the value for one key. Missing keys return
// sql.ErrNoRows untouched so callers can apply defaults.
func (r *SettingsRepository) GlobalSetting(ctx context.Context, key string) (string, error) {
	const query = `SELECT value FROM global_settings WHERE key = $1`
	var value string
	if err := r.db.GetContext(ctx, &value, query, key); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("get global setting: %w", err)
	}
	return value, nil
}

// GlobalSettings returns all key/value rows.
func (r *SettingsRepository) GlobalSettings(ctx context.Context) ([]models.GlobalSetting, error) {
	const query = `SELECT key, value FROM global_settings ORDER BY key`
	var settings []models.GlobalSetting
	if err := r.db.SelectContext(ctx, &settings, query); err != nil {
		return nil, fmt.Errorf("list global settings: %w", err)
	}
	return settings, nil
}

// SetGlobalSetting writes one key/value row.
func (r *SettingsRepository) SetGlobalSetting(ctx context.Context, key, value string) error {
	const query = `INSERT INTO global_settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("set global setting: %w", err)
	}
	return nil
}

// AssignmentsByUsername returns the programs one operator may manage.
func (r *SettingsRepository) AssignmentsByUsername(ctx context.Context, username string) ([]models.UnitLeaderAssignment, error) {
	const query = `SELECT id, username, program_name FROM unit_leader_assignments WHERE username = $1 ORDER BY program_name`
	var assignments []models.UnitLeaderAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, username); err != nil {
		return nil, fmt.Errorf("list assignments by username: %w", err)
	}
	return assignments, nil
}

// Assignments returns every unit-leader assignment.
func (r *SettingsRepository) Assignments(ctx context.Context) ([]models.UnitLeaderAssignment, error) {
	const query = `SELECT id, username, program_name FROM unit_leader_assignments ORDER BY username, program_name`
	var assignments []models.UnitLeaderAssignment
	if err := r.db.SelectContext(ctx, &assignments, query); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// CreateAssignment links an operator to a program.
func (r *SettingsRepository) CreateAssignment(ctx context.Context, a *models.UnitLeaderAssignment) error {
	const query = `INSERT INTO unit_leader_assignments (username, program_name) VALUES ($1, $2)
		ON CONFLICT (username, program_name) DO NOTHING RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, a.Username, a.ProgramName).Scan(&a.ID); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// DeleteAssignment removes one assignment by id.
func (r *SettingsRepository) DeleteAssignment(ctx context.Context, id int64) error {
	const query = `DELETE FROM unit_leader_assignments WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}
