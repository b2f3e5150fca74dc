package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/camp-ops/dashboard-api/internal/aggregate"
	"github.com/camp-ops/dashboard-api/internal/models"
	"github.com/camp-ops/dashboard-api/internal/parser"
	appErrors "github.com/camp-ops/dashboard-api/pkg/errors"
)

type settingsRepository interface {
	ProgramSettings(ctx context.Context) ([]models.ProgramSetting, error)
	UpsertProgramSetting(ctx context.Context, setting *models.ProgramSetting) error
	GlobalSettings(ctx context.Context) ([]models.GlobalSetting, error)
	SetGlobalSetting(ctx context.Context, key, value string) error
	AssignmentsByUsername(ctx context.Context, username string) ([]models.UnitLeaderAssignment, error)
	Assignments(ctx context.Context) ([]models.UnitLeaderAssignment, error)
	CreateAssignment(ctx context.Context, a *models.UnitLeaderAssignment) error
	DeleteAssignment(ctx context.Context, id int64) error
}

// ProgramSettingRequest is the payload for configuring one program.
type ProgramSettingRequest struct {
	ProgramName  string  `json:"program_name" validate:"required"`
	Goal         float64 `json:"goal" validate:"min=0"`
	WeeksOffered int     `json:"weeks_offered" validate:"min=0,max=9"`
	WeeksActive  string  `json:"weeks_active"`
	Active       bool    `json:"active"`
}

type snapshotInvalidator interface {
	InvalidateCache(ctx context.Context)
}

// SettingsService manages program goals, global key/value settings and
// unit-leader program assignments. Stored program settings override the
// season defaults; programs without a row keep the defaults.
type SettingsService struct {
	repo      settingsRepository
	validator *validator.Validate
	logger    *zap.Logger
	snapshots snapshotInvalidator
}

// SetSnapshotInvalidator registers the snapshot cache to drop whenever a
// program setting changes, so new goals show up on the next dashboard load.
func (s *SettingsService) SetSnapshotInvalidator(inv snapshotInvalidator) {
	s.snapshots = inv
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(repo settingsRepository, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SettingsService{repo: repo, validator: validate, logger: logger}
}

// ProgramSettings returns one row per known program: the stored override
// where present, the season default otherwise.
func (s *SettingsService) ProgramSettings(ctx context.Context) ([]models.ProgramSetting, error) {
	stored, err := s.repo.ProgramSettings(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list program settings")
	}
	byName := make(map[string]models.ProgramSetting, len(stored))
	for _, setting := range stored {
		byName[setting.ProgramName] = setting
	}

	out := make([]models.ProgramSetting, 0, len(parser.ProgramOrder))
	for _, program := range parser.ProgramOrder {
		if setting, ok := byName[program]; ok {
			out = append(out, setting)
			continue
		}
		out = append(out, models.ProgramSetting{
			ProgramName:  program,
			Goal:         parser.DefaultGoals[program],
			WeeksOffered: parser.DefaultWeeksOffered[program],
			Active:       true,
		})
	}
	return out, nil
}

// SaveProgramSetting stores an override for one program.
func (s *SettingsService) SaveProgramSetting(ctx context.Context, req ProgramSettingRequest) (*models.ProgramSetting, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program setting payload")
	}
	if _, ok := parser.DefaultGoals[req.ProgramName]; !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown program")
	}

	setting := &models.ProgramSetting{
		ProgramName:  req.ProgramName,
		Goal:         req.Goal,
		WeeksOffered: req.WeeksOffered,
		WeeksActive:  strings.TrimSpace(req.WeeksActive),
		Active:       req.Active,
	}
	if err := s.repo.UpsertProgramSetting(ctx, setting); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save program setting")
	}
	if s.snapshots != nil {
		s.snapshots.InvalidateCache(ctx)
	}
	return setting, nil
}

// AggregateSettings builds the goal and weeks-offered tables used when
// composing the enrollment snapshot.
func (s *SettingsService) AggregateSettings(ctx context.Context) (aggregate.Settings, error) {
	settings := aggregate.DefaultSettings()
	stored, err := s.repo.ProgramSettings(ctx)
	if err != nil {
		return settings, err
	}
	for _, setting := range stored {
		if setting.Goal > 0 {
			settings.Goals[setting.ProgramName] = setting.Goal
		}
		if setting.WeeksOffered > 0 {
			settings.WeeksOffered[setting.ProgramName] = setting.WeeksOffered
		}
	}
	return settings, nil
}

// GlobalSettings returns all key/value rows.
func (s *SettingsService) GlobalSettings(ctx context.Context) ([]models.GlobalSetting, error) {
	settings, err := s.repo.GlobalSettings(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list settings")
	}
	return settings, nil
}

// SetGlobalSetting writes one key/value row.
func (s *SettingsService) SetGlobalSetting(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return appErrors.Clone(appErrors.ErrValidation, "setting key is required")
	}
	if err := s.repo.SetGlobalSetting(ctx, key, value); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save setting")
	}
	return nil
}

// Assignments lists every unit-leader assignment.
func (s *SettingsService) Assignments(ctx context.Context) ([]models.UnitLeaderAssignment, error) {
	assignments, err := s.repo.Assignments(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// AssignmentsByUsername lists the programs one operator may manage.
func (s *SettingsService) AssignmentsByUsername(ctx context.Context, username string) ([]models.UnitLeaderAssignment, error) {
	assignments, err := s.repo.AssignmentsByUsername(ctx, username)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// Assign links an operator to a program.
func (s *SettingsService) Assign(ctx context.Context, username, program string) (*models.UnitLeaderAssignment, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "username is required")
	}
	if _, ok := parser.DefaultGoals[program]; !ok && program != KidConnectionProgram {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown program")
	}

	assignment := &models.UnitLeaderAssignment{Username: username, ProgramName: program}
	if err := s.repo.CreateAssignment(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return assignment, nil
}

// Unassign removes one assignment.
func (s *SettingsService) Unassign(ctx context.Context, id int64) error {
	if err := s.repo.DeleteAssignment(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}
