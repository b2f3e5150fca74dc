package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/camp-ops/dashboard-api/internal/models"
	appErrors "github.com/camp-ops/dashboard-api/pkg/errors"
	"github.com/camp-ops/dashboard-api/pkg/export"
	"github.com/camp-ops/dashboard-api/pkg/jobs"
	"github.com/camp-ops/dashboard-api/pkg/storage"
)

// Export formats supported by the report endpoints.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// Export report types.
const (
	ExportTypeEnrollment = "enrollment"
	ExportTypeAttendance = "attendance"
	ExportTypeRoster     = "roster"
)

type attendanceSummarizer interface {
	Summary(ctx context.Context, date time.Time) (*models.AttendanceSummary, error)
	Roster(ctx context.Context, actor Actor, program string, week int, date time.Time) ([]models.RosterEntry, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportRequest names the report to generate.
type ExportRequest struct {
	Type    string
	Format  string
	Program string
	Week    int
	Date    time.Time
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       string
	ExpiresAt    time.Time
}

// ExportService renders enrollment and attendance reports to files and
// hands out signed download URLs.
type ExportService struct {
	snapshots  snapshotProvider
	attendance attendanceSummarizer
	storage    fileStorage
	csv        csvRenderer
	pdf        pdfRenderer
	signer     *storage.SignedURLSigner
	logger     *zap.Logger
	cfg        ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(snapshots snapshotProvider, attendance attendanceSummarizer, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		snapshots:  snapshots,
		attendance: attendance,
		storage:    store,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		signer:     signer,
		logger:     logger,
		cfg:        cfg,
	}
}

// Generate renders the requested report and stores it.
func (s *ExportService) Generate(ctx context.Context, actor Actor, req ExportRequest) (*ExportResult, error) {
	dataset, title, err := s.buildDataset(ctx, actor, req)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch req.Format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "report render failed")
	}

	jobID := uuid.NewString()
	filename := s.buildFilename(req)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "report save failed")
	}

	token, expiresAt, err := s.signer.Generate(jobID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "download token generation failed")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/%s", prefix, token),
		Format:       req.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes files older than the configured result TTL.
func (s *ExportService) Cleanup() ([]string, error) {
	return s.storage.CleanupOlderThan(s.cfg.ResultTTL)
}

// HandleCleanupJob is the queue handler for periodic export cleanup.
func (s *ExportService) HandleCleanupJob(ctx context.Context, _ jobs.Job) error {
	deleted, err := s.Cleanup()
	if err != nil {
		return err
	}
	if len(deleted) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(deleted)))
	}
	return nil
}

func (s *ExportService) buildFilename(req ExportRequest) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	part := sanitizeFilename(req.Program)
	if part == "na" && !req.Date.IsZero() {
		part = req.Date.Format("2006-01-02")
	}
	return fmt.Sprintf("%s_%s_%s.%s", req.Type, part, timestamp, req.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_", "'", "")
	result := replacer.Replace(strings.ToLower(raw))
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, actor Actor, req ExportRequest) (export.Dataset, string, error) {
	switch req.Type {
	case ExportTypeEnrollment:
		return s.buildEnrollmentDataset(ctx)
	case ExportTypeAttendance:
		return s.buildAttendanceDataset(ctx, req.Date)
	case ExportTypeRoster:
		return s.buildRosterDataset(ctx, actor, req)
	default:
		return export.Dataset{}, "", appErrors.Clone(appErrors.ErrValidation, "unsupported report type")
	}
}

func (s *ExportService) buildEnrollmentDataset(ctx context.Context) (export.Dataset, string, error) {
	snap, err := s.snapshots.Get(ctx, false)
	if err != nil {
		return export.Dataset{}, "", err
	}

	columns := []string{"Program", "Category"}
	for w := models.MinWeek; w <= models.MaxWeek; w++ {
		columns = append(columns, fmt.Sprintf("Week %d", w))
	}
	columns = append(columns, "Total Weeks", "FTE", "Goal", "% to Goal")

	rows := make([][]string, 0, len(snap.Programs))
	for _, program := range snap.Programs {
		row := []string{program.Name, program.Category}
		for w := models.MinWeek; w <= models.MaxWeek; w++ {
			row = append(row, strconv.Itoa(program.WeekCounts[w]))
		}
		row = append(row,
			strconv.Itoa(program.TotalWeeks),
			fmt.Sprintf("%.2f", program.FTE),
			fmt.Sprintf("%.0f", program.Goal),
			fmt.Sprintf("%.1f", program.PercentToGoal),
		)
		rows = append(rows, row)
	}

	title := fmt.Sprintf("Enrollment Report %s", snap.FetchedAt.Format("2006-01-02"))
	return export.Dataset{Columns: columns, Rows: rows}, title, nil
}

func (s *ExportService) buildAttendanceDataset(ctx context.Context, date time.Time) (export.Dataset, string, error) {
	if date.IsZero() {
		date = time.Now()
	}
	summary, err := s.attendance.Summary(ctx, date)
	if err != nil {
		return export.Dataset{}, "", err
	}

	columns := []string{"Program", "Checkpoint", "Present", "Absent", "Late", "Early Pickup", "Marked", "Enrolled", "Completion (%)"}
	var rows [][]string
	for _, program := range summary.Programs {
		for _, cp := range program.Checkpoints {
			rows = append(rows, []string{
				program.Program,
				strconv.FormatInt(cp.CheckpointID, 10),
				strconv.Itoa(cp.Present),
				strconv.Itoa(cp.Absent),
				strconv.Itoa(cp.Late),
				strconv.Itoa(cp.EarlyPickup),
				strconv.Itoa(cp.Marked),
				strconv.Itoa(cp.Enrolled),
				fmt.Sprintf("%.1f", cp.Completion),
			})
		}
	}

	title := fmt.Sprintf("Attendance Report %s", summary.Date)
	return export.Dataset{Columns: columns, Rows: rows}, title, nil
}

func (s *ExportService) buildRosterDataset(ctx context.Context, actor Actor, req ExportRequest) (export.Dataset, string, error) {
	if req.Program == "" || req.Week < models.MinWeek || req.Week > models.MaxWeek {
		return export.Dataset{}, "", appErrors.Clone(appErrors.ErrValidation, "program and week are required")
	}
	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}
	entries, err := s.attendance.Roster(ctx, actor, req.Program, req.Week, date)
	if err != nil {
		return export.Dataset{}, "", err
	}

	columns := []string{"Name", "Grade", "Group", "Before/After Care", "Youngest Sibling"}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		group, bac, sibling := "", "", ""
		if entry.GroupNumber > 0 {
			group = strconv.Itoa(entry.GroupNumber)
		}
		if entry.HasBAC {
			bac = "yes"
		}
		if entry.YoungestSib != nil {
			sibling = fmt.Sprintf("%s (%s)", entry.YoungestSib.Name, entry.YoungestSib.Program)
		}
		rows = append(rows, []string{entry.Name, entry.Grade, group, bac, sibling})
	}

	title := fmt.Sprintf("%s Week %d Roster", req.Program, req.Week)
	return export.Dataset{Columns: columns, Rows: rows}, title, nil
}
