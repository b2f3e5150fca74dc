package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camp-ops/dashboard-api/internal/models"
)

func expectCheckpointSeeds(mock sqlmock.Sqlmock) {
	for range defaultCheckpoints {
		mock.ExpectExec("INSERT INTO attendance_checkpoints").
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
}

func TestBootstrapSeedsEmptyDatabase(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	boot := NewBootstrap(db, nil)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS user_accounts").
		WillReturnResult(sqlmock.NewResult(0, 0))
	expectCheckpointSeeds(mock)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM user_accounts").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO user_accounts").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO global_settings").
		WithArgs("total_goal", "750").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM program_settings").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO program_settings").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := boot.Run(context.Background(), BootstrapParams{
		AdminUsername:  "admin",
		AdminPassword:  "first-login",
		GlobalSettings: map[string]string{"total_goal": "750"},
		ProgramSettings: []models.ProgramSetting{
			{ProgramName: "Basketball", Goal: 20, WeeksOffered: 9, WeeksActive: "1,2,3,4,5,6,7,8,9", Active: true},
		},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBootstrapLeavesExistingRowsAlone(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	boot := NewBootstrap(db, nil)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS user_accounts").
		WillReturnResult(sqlmock.NewResult(0, 0))
	// Named checkpoint inserts are no-ops when the rows already exist.
	expectCheckpointSeeds(mock)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM user_accounts").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec("INSERT INTO global_settings").
		WithArgs("total_goal", "750").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM program_settings").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	err := boot.Run(context.Background(), BootstrapParams{
		AdminUsername:  "admin",
		AdminPassword:  "first-login",
		GlobalSettings: map[string]string{"total_goal": "750"},
		ProgramSettings: []models.ProgramSetting{
			{ProgramName: "Basketball", Goal: 20, WeeksOffered: 9, Active: true},
		},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBootstrapSkipsAdminSeedWithoutPassword(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	boot := NewBootstrap(db, nil)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS user_accounts").
		WillReturnResult(sqlmock.NewResult(0, 0))
	expectCheckpointSeeds(mock)

	err := boot.Run(context.Background(), BootstrapParams{AdminUsername: "admin"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
