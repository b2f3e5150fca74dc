package service

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/camp-ops/dashboard-api/internal/aggregate"
	"github.com/camp-ops/dashboard-api/internal/models"
	appErrors "github.com/camp-ops/dashboard-api/pkg/errors"
)

// HistoryService compares the current season's enrollment pace against
// prior seasons. Prior-year daily series live in a JSON file keyed by
// year; the current year's series comes from the live snapshot.
type HistoryService struct {
	snapshots snapshotProvider
	store     snapshotStore
	logger    *zap.Logger
	year      int

	priors map[int][]models.DailyPoint
}

// NewHistoryService loads the prior-season series file. A missing file is
// fine; comparisons then cover the current season only.
func NewHistoryService(snapshots snapshotProvider, store snapshotStore, year int, logger *zap.Logger) *HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &HistoryService{
		snapshots: snapshots,
		store:     store,
		logger:    logger,
		year:      year,
		priors:    map[int][]models.DailyPoint{},
	}
	if store != nil {
		var stored map[int][]models.DailyPoint
		if err := store.Load(&stored); err == nil && stored != nil {
			s.priors = stored
			logger.Info("enrollment history loaded", zap.Int("seasons", len(stored)))
		} else if err != nil && !os.IsNotExist(err) {
			logger.Warn("enrollment history load failed", zap.Error(err))
		}
	}
	return s
}

func (s *HistoryService) currentSeries(ctx context.Context) ([]models.DailyPoint, error) {
	snap, err := s.snapshots.Get(ctx, false)
	if err != nil {
		return nil, err
	}
	return snap.DateStats.Daily, nil
}

// Pace compares the current season against each prior year at the given
// calendar point. A zero month defaults to today.
func (s *HistoryService) Pace(ctx context.Context, month time.Month, day int) ([]aggregate.PaceComparison, error) {
	if month == 0 || day == 0 {
		now := time.Now()
		month, day = now.Month(), now.Day()
	}
	current, err := s.currentSeries(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.ComparePace(s.year, current, s.priors, month, day), nil
}

// Milestones reports when each tracked season crossed the enrollment
// thresholds, current season first.
func (s *HistoryService) Milestones(ctx context.Context) (map[int][]aggregate.Milestone, error) {
	current, err := s.currentSeries(ctx)
	if err != nil {
		return nil, err
	}
	out := map[int][]aggregate.Milestone{s.year: aggregate.Milestones(current)}
	for year, series := range s.priors {
		out[year] = aggregate.Milestones(series)
	}
	return out, nil
}

// Weekly returns the season-over-season cumulative series aligned by days
// elapsed from January 1.
func (s *HistoryService) Weekly(ctx context.Context) ([]aggregate.WeeklyComparisonPoint, error) {
	current, err := s.currentSeries(ctx)
	if err != nil {
		return nil, err
	}
	all := map[int][]models.DailyPoint{s.year: current}
	for year, series := range s.priors {
		all[year] = series
	}
	return aggregate.WeeklyComparison(all), nil
}

// SavePriorSeason stores one season's daily series for future comparisons.
func (s *HistoryService) SavePriorSeason(year int, series []models.DailyPoint) error {
	if year <= 0 || len(series) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "year and series are required")
	}
	s.priors[year] = series
	if s.store != nil {
		if err := s.store.Save(s.priors); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "history write failed")
		}
	}
	return nil
}
