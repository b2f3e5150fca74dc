package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/camp-ops/dashboard-api/internal/models"
	"github.com/camp-ops/dashboard-api/pkg/storage"
)

type summarizerStub struct{}

func (summarizerStub) Summary(ctx context.Context, date time.Time) (*models.AttendanceSummary, error) {
	return &models.AttendanceSummary{
		Date: date.Format("2006-01-02"),
		Programs: []models.ProgramSummary{
			{
				Program:  "Pioneers",
				Enrolled: 24,
				Checkpoints: []models.CheckpointSummary{
					{CheckpointID: 1, Present: 20, Absent: 2, Late: 1, Marked: 23, Enrolled: 24, Completion: 95.8},
				},
			},
		},
		TotalPresent:  20,
		TotalEnrolled: 24,
	}, nil
}

func (summarizerStub) Roster(ctx context.Context, actor Actor, program string, week int, date time.Time) ([]models.RosterEntry, error) {
	return []models.RosterEntry{
		{PersonID: 101, Name: "Ada Moss", Grade: "3rd Grade", GroupNumber: 3, HasBAC: true},
		{PersonID: 102, Name: "Ben Archer"},
	}, nil
}

func exportSnapshot() *models.Snapshot {
	return &models.Snapshot{
		FetchedAt: time.Date(2026, 6, 16, 8, 0, 0, 0, time.UTC),
		Programs: []models.ProgramStats{
			{
				Name:          "Pioneers",
				Category:      "Day Camp",
				WeekCounts:    map[int]int{1: 20, 2: 24},
				TotalWeeks:    44,
				FTE:           8.8,
				Goal:          50,
				PercentToGoal: 17.6,
			},
		},
	}
}

func newExportFixture(t *testing.T) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	return NewExportService(
		&staticSnapshot{snap: exportSnapshot()},
		summarizerStub{},
		store,
		signer,
		ExportConfig{APIPrefix: "/api/v1"},
		zap.NewNop(),
	)
}

func TestExportEnrollmentCSV(t *testing.T) {
	svc := newExportFixture(t)

	result, err := svc.Generate(context.Background(), admin, ExportRequest{
		Type:   ExportTypeEnrollment,
		Format: ExportFormatCSV,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/exports/"))
	assert.Equal(t, ExportFormatCSV, result.Format)

	_, relPath, _, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, result.RelativePath, relPath)

	file, err := svc.Open(relPath)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck

	buf := make([]byte, 4096)
	n, _ := file.Read(buf)
	content := string(buf[:n])
	assert.Contains(t, content, "Pioneers")
	assert.Contains(t, content, "Week 2")
	assert.Contains(t, content, "8.80")
}

func TestExportAttendancePDF(t *testing.T) {
	svc := newExportFixture(t)

	result, err := svc.Generate(context.Background(), admin, ExportRequest{
		Type:   ExportTypeAttendance,
		Format: ExportFormatPDF,
		Date:   time.Date(2026, 6, 16, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	file, err := svc.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck

	header := make([]byte, 4)
	_, err = file.Read(header)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(header))
}

func TestExportRosterRequiresProgramAndWeek(t *testing.T) {
	svc := newExportFixture(t)

	_, err := svc.Generate(context.Background(), admin, ExportRequest{
		Type:   ExportTypeRoster,
		Format: ExportFormatCSV,
	})
	require.Error(t, err)

	result, err := svc.Generate(context.Background(), admin, ExportRequest{
		Type:    ExportTypeRoster,
		Format:  ExportFormatCSV,
		Program: "Pioneers",
		Week:    2,
	})
	require.NoError(t, err)
	assert.Contains(t, result.RelativePath, "pioneers")
}

func TestExportUnknownTypeAndFormat(t *testing.T) {
	svc := newExportFixture(t)

	_, err := svc.Generate(context.Background(), admin, ExportRequest{Type: "payroll", Format: ExportFormatCSV})
	require.Error(t, err)

	_, err = svc.Generate(context.Background(), admin, ExportRequest{Type: ExportTypeEnrollment, Format: "xlsx"})
	require.Error(t, err)
}

func TestExportCleanupRemovesExpired(t *testing.T) {
	svc := newExportFixture(t)

	result, err := svc.Generate(context.Background(), admin, ExportRequest{
		Type:   ExportTypeEnrollment,
		Format: ExportFormatCSV,
	})
	require.NoError(t, err)

	// Nothing is old enough yet.
	deleted, err := svc.Cleanup()
	require.NoError(t, err)
	assert.Empty(t, deleted)

	// With a negative TTL everything qualifies.
	svc.cfg.ResultTTL = -time.Hour
	deleted, err = svc.Cleanup()
	require.NoError(t, err)
	assert.Contains(t, deleted, result.RelativePath)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "na", sanitizeFilename(""))
	assert.Equal(t, "pioneers_week_2", sanitizeFilename("Pioneers Week 2"))
	assert.Equal(t, "a-b", sanitizeFilename("a/b"))
}
