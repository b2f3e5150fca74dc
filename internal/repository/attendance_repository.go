package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/camp-ops/dashboard-api/internal/models"
)

// AttendanceRepository provides database access for attendance records and
// checkpoints.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new instance of AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `id, person_id, program_name, week, date, checkpoint_id, status, recorded_by, recorded_at, notes`

// Upsert inserts a record or overwrites the status of an existing one for
// the same camper, program, date and checkpoint.
func (r *AttendanceRepository) Upsert(ctx context.Context, rec *models.AttendanceRecord) error {
	const query = `INSERT INTO attendance_records (person_id, program_name, week, date, checkpoint_id, status, recorded_by, recorded_at, notes)
		VALUES (:person_id, :program_name, :week, :date, :checkpoint_id, :status, :recorded_by, :recorded_at, :notes)
		ON CONFLICT (person_id, program_name, date, checkpoint_id)
		DO UPDATE SET status = EXCLUDED.status, week = EXCLUDED.week, recorded_by = EXCLUDED.recorded_by, recorded_at = EXCLUDED.recorded_at, notes = EXCLUDED.notes`
	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("upsert attendance record: %w", err)
	}
	return nil
}

// Delete removes the record for one camper/checkpoint/date if present.
func (r *AttendanceRepository) Delete(ctx context.Context, personID int64, program string, date time.Time, checkpointID int64) error {
	const query = `DELETE FROM attendance_records WHERE person_id = $1 AND program_name = $2 AND date = $3 AND checkpoint_id = $4`
	if _, err := r.db.ExecContext(ctx, query, personID, program, date, checkpointID); err != nil {
		return fmt.Errorf("delete attendance record: %w", err)
	}
	return nil
}

// ListByProgramDate returns all records for one program on one date.
func (r *AttendanceRepository) ListByProgramDate(ctx context.Context, program string, date time.Time) ([]models.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE program_name = $1 AND date = $2`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, program, date); err != nil {
		return nil, fmt.Errorf("list attendance by program and date: %w", err)
	}
	return records, nil
}

// ListByDate returns all records on one date across programs.
func (r *AttendanceRepository) ListByDate(ctx context.Context, date time.Time) ([]models.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE date = $1`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, date); err != nil {
		return nil, fmt.Errorf("list attendance by date: %w", err)
	}
	return records, nil
}

// ListByCheckpointsDate returns records on one date restricted to the given
// checkpoints, regardless of program.
func (r *AttendanceRepository) ListByCheckpointsDate(ctx context.Context, checkpointIDs []int64, date time.Time) ([]models.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE date = $1 AND checkpoint_id = ANY($2)`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, date, pq.Array(checkpointIDs)); err != nil {
		return nil, fmt.Errorf("list attendance by checkpoints: %w", err)
	}
	return records, nil
}

// ListRange returns records for one program between two dates inclusive.
func (r *AttendanceRepository) ListRange(ctx context.Context, program string, from, to time.Time) ([]models.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE program_name = $1 AND date >= $2 AND date <= $3 ORDER BY date`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, program, from, to); err != nil {
		return nil, fmt.Errorf("list attendance range: %w", err)
	}
	return records, nil
}

// ListRangeAll returns records between two dates inclusive across programs.
func (r *AttendanceRepository) ListRangeAll(ctx context.Context, from, to time.Time) ([]models.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE date >= $1 AND date <= $2 ORDER BY date`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, from, to); err != nil {
		return nil, fmt.Errorf("list attendance range: %w", err)
	}
	return records, nil
}

// PersonHistory returns every record for one camper, newest date first.
func (r *AttendanceRepository) PersonHistory(ctx context.Context, personID int64) ([]models.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE person_id = $1 ORDER BY date DESC, checkpoint_id`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, personID); err != nil {
		return nil, fmt.Errorf("person attendance history: %w", err)
	}
	return records, nil
}

// Checkpoints returns active checkpoints ordered by sort order.
func (r *AttendanceRepository) Checkpoints(ctx context.Context) ([]models.AttendanceCheckpoint, error) {
	const query = `SELECT id, name, sort_order, time_label, active FROM attendance_checkpoints WHERE active = TRUE ORDER BY sort_order`
	var checkpoints []models.AttendanceCheckpoint
	if err := r.db.SelectContext(ctx, &checkpoints, query); err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	return checkpoints, nil
}

// CreateCheckpoint appends a new checkpoint after the existing ones.
func (r *AttendanceRepository) CreateCheckpoint(ctx context.Context, cp *models.AttendanceCheckpoint) error {
	const query = `INSERT INTO attendance_checkpoints (name, sort_order, time_label, active)
		VALUES ($1, COALESCE((SELECT MAX(sort_order) FROM attendance_checkpoints), 0) + 1, $2, TRUE) RETURNING id, sort_order`
	if err := r.db.QueryRowxContext(ctx, query, cp.Name, cp.TimeLabel).Scan(&cp.ID, &cp.SortOrder); err != nil {
		return fmt.Errorf("create checkpoint: %w", err)
	}
	return nil
}

// DeactivateCheckpoint hides a checkpoint from new marking without touching
// its historical records.
func (r *AttendanceRepository) DeactivateCheckpoint(ctx context.Context, id int64) error {
	const query = `UPDATE attendance_checkpoints SET active = FALSE WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("deactivate checkpoint: %w", err)
	}
	return nil
}
