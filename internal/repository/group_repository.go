package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/camp-ops/dashboard-api/internal/models"
)

// GroupRepository provides database access for camper group assignments.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository creates a new instance of GroupRepository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// Upsert writes the group number for one camper in one program week.
func (r *GroupRepository) Upsert(ctx context.Context, program string, week int, personID int64, group int, updatedAt time.Time) error {
	const query = `INSERT INTO group_assignments (program_name, week, person_id, group_number, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (program_name, week, person_id)
		DO UPDATE SET group_number = EXCLUDED.group_number, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, program, week, personID, group, updatedAt); err != nil {
		return fmt.Errorf("upsert group assignment: %w", err)
	}
	return nil
}

// Delete removes the assignment for one camper in one program week.
func (r *GroupRepository) Delete(ctx context.Context, program string, week int, personID int64) error {
	const query = `DELETE FROM group_assignments WHERE program_name = $1 AND week = $2 AND person_id = $3`
	if _, err := r.db.ExecContext(ctx, query, program, week, personID); err != nil {
		return fmt.Errorf("delete group assignment: %w", err)
	}
	return nil
}

// ListByProgramWeek returns all assignments for one program week.
func (r *GroupRepository) ListByProgramWeek(ctx context.Context, program string, week int) ([]models.GroupAssignment, error) {
	const query = `SELECT id, program_name, week, person_id, group_number, updated_at FROM group_assignments WHERE program_name = $1 AND week = $2`
	var assignments []models.GroupAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, program, week); err != nil {
		return nil, fmt.Errorf("list group assignments: %w", err)
	}
	return assignments, nil
}

// ListByWeek returns all assignments across programs for one week.
func (r *GroupRepository) ListByWeek(ctx context.Context, week int) ([]models.GroupAssignment, error) {
	const query = `SELECT id, program_name, week, person_id, group_number, updated_at FROM group_assignments WHERE week = $1`
	var assignments []models.GroupAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, week); err != nil {
		return nil, fmt.Errorf("list group assignments by week: %w", err)
	}
	return assignments, nil
}
