package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camp-ops/dashboard-api/internal/models"
)

func TestAttendanceUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec("INSERT INTO attendance_records").WillReturnResult(sqlmock.NewResult(1, 1))

	rec := &models.AttendanceRecord{
		PersonID:     101,
		ProgramName:  "Basketball",
		Week:         2,
		Date:         time.Date(2026, 6, 16, 0, 0, 0, 0, time.UTC),
		CheckpointID: 1,
		Status:       models.AttendanceStatusPresent,
		RecordedBy:   "leader1",
		RecordedAt:   time.Now(),
	}
	require.NoError(t, repo.Upsert(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 6, 16, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance_records WHERE person_id = $1 AND program_name = $2 AND date = $3 AND checkpoint_id = $4")).
		WithArgs(int64(101), "Basketball", date, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 101, "Basketball", date, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceListByProgramDate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 6, 16, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "person_id", "program_name", "week", "date", "checkpoint_id", "status", "recorded_by", "recorded_at", "notes"}).
		AddRow(1, 101, "Basketball", 2, date, 1, string(models.AttendanceStatusPresent), "leader1", time.Now(), nil)
	mock.ExpectQuery("SELECT (.+) FROM attendance_records WHERE program_name").
		WithArgs("Basketball", date).
		WillReturnRows(rows)

	records, err := repo.ListByProgramDate(context.Background(), "Basketball", date)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.AttendanceStatusPresent, records[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckpointsOrderedBySortOrder(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "sort_order", "time_label", "active"}).
		AddRow(1, "Morning", 1, "9:00 AM", true).
		AddRow(2, "After Lunch", 2, "1:00 PM", true)
	mock.ExpectQuery("SELECT id, name, sort_order, time_label, active FROM attendance_checkpoints").
		WillReturnRows(rows)

	checkpoints, err := repo.Checkpoints(context.Background())
	require.NoError(t, err)
	require.Len(t, checkpoints, 2)
	assert.Equal(t, "Morning", checkpoints[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCheckpointAppendsSortOrder(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery("INSERT INTO attendance_checkpoints").
		WithArgs("Pool Check", "2:30 PM").
		WillReturnRows(sqlmock.NewRows([]string{"id", "sort_order"}).AddRow(7, 7))

	cp := &models.AttendanceCheckpoint{Name: "Pool Check", TimeLabel: "2:30 PM"}
	require.NoError(t, repo.CreateCheckpoint(context.Background(), cp))
	assert.Equal(t, int64(7), cp.ID)
	assert.Equal(t, 7, cp.SortOrder)
	assert.NoError(t, mock.ExpectationsWereMet())
}
