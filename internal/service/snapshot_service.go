package service

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/camp-ops/dashboard-api/internal/aggregate"
	"github.com/camp-ops/dashboard-api/internal/models"
	"github.com/camp-ops/dashboard-api/internal/parser"
	appErrors "github.com/camp-ops/dashboard-api/pkg/errors"
	"github.com/camp-ops/dashboard-api/pkg/jobs"
)

const snapshotCacheKey = "snapshot:enrollment"

type enrollmentSource interface {
	EnrollmentRecords(ctx context.Context, p *parser.Parser, cal models.SeasonCalendar) ([]models.EnrollmentRecord, error)
	Configured() bool
}

type snapshotStore interface {
	Load(dest interface{}) error
	Save(value interface{}) error
}

type aggregateSettingsSource interface {
	AggregateSettings(ctx context.Context) (aggregate.Settings, error)
}

// SnapshotServiceConfig tunes snapshot caching behaviour.
type SnapshotServiceConfig struct {
	TTL          time.Duration
	StuckTimeout time.Duration
}

// SnapshotService owns the enrollment snapshot and its cache hierarchy:
// the in-process copy, then Redis, then the on-disk file, then a fresh
// upstream fetch. A single in-flight refresh is allowed at a time; losing
// callers get whatever cached copy exists, however stale.
type SnapshotService struct {
	source   enrollmentSource
	parser   *parser.Parser
	calendar models.SeasonCalendar
	settings aggregateSettingsSource
	cache    *CacheService
	disk     snapshotStore
	queue    *jobs.Queue
	logger   *zap.Logger
	now      func() time.Time
	cfg      SnapshotServiceConfig

	mu             sync.Mutex
	current        *models.Snapshot
	refreshing     bool
	refreshStarted time.Time
}

// SnapshotServiceParams groups constructor dependencies.
type SnapshotServiceParams struct {
	Source   enrollmentSource
	Parser   *parser.Parser
	Calendar models.SeasonCalendar
	Settings aggregateSettingsSource
	Cache    *CacheService
	Disk     snapshotStore
	Logger   *zap.Logger
	Config   SnapshotServiceConfig
}

// NewSnapshotService constructs a SnapshotService with sane defaults.
func NewSnapshotService(params SnapshotServiceParams) *SnapshotService {
	cfg := params.Config
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Minute
	}
	if cfg.StuckTimeout <= 0 {
		cfg.StuckTimeout = 3 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotService{
		source:   params.Source,
		parser:   params.Parser,
		calendar: params.Calendar,
		settings: params.Settings,
		cache:    params.Cache,
		disk:     params.Disk,
		logger:   logger,
		now:      time.Now,
		cfg:      cfg,
	}
}

// SetQueue attaches the background queue used for async refreshes.
func (s *SnapshotService) SetQueue(q *jobs.Queue) {
	s.queue = q
}

// Get returns the current snapshot, refreshing it when every cache layer
// is stale or empty. forceRefresh skips the freshness checks but still
// falls back to the stale copy when upstream is unreachable.
func (s *SnapshotService) Get(ctx context.Context, forceRefresh bool) (*models.Snapshot, error) {
	if !forceRefresh {
		if snap := s.cached(ctx); snap != nil && s.fresh(snap) {
			return snap, nil
		}
	}
	return s.refresh(ctx)
}

// Cached returns the best available snapshot without ever fetching.
func (s *SnapshotService) Cached(ctx context.Context) (*models.Snapshot, error) {
	if snap := s.cached(ctx); snap != nil {
		return snap, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "no enrollment snapshot available")
}

// RefreshAsync queues a background refresh. Falls back to a synchronous
// goroutine-free no-op error when the queue is not running.
func (s *SnapshotService) RefreshAsync() error {
	if s.queue == nil {
		return appErrors.Clone(appErrors.ErrInternal, "background queue unavailable")
	}
	return s.queue.Enqueue(jobs.Job{
		ID:   uuid.NewString(),
		Type: JobTypeSnapshotRefresh,
	})
}

// InvalidateCache drops the in-memory and Redis copies of the snapshot.
// The next Get rebuilds from disk or upstream, picking up changed program
// settings.
func (s *SnapshotService) InvalidateCache(ctx context.Context) {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, snapshotCacheKey); err != nil {
			s.logger.Warn("snapshot cache invalidation failed", zap.Error(err))
		}
	}
}

// HandleRefreshJob is the queue handler for snapshot refresh jobs.
func (s *SnapshotService) HandleRefreshJob(ctx context.Context, _ jobs.Job) error {
	_, err := s.refresh(ctx)
	return err
}

func (s *SnapshotService) fresh(snap *models.Snapshot) bool {
	return s.now().Sub(snap.FetchedAt) < s.cfg.TTL
}

// cached walks memory, Redis and disk in order and returns the first copy
// found, promoting it to memory.
func (s *SnapshotService) cached(ctx context.Context) *models.Snapshot {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()
	if current != nil {
		return current
	}

	if s.cache != nil {
		var snap models.Snapshot
		if hit, err := s.cache.Get(ctx, snapshotCacheKey, &snap); err == nil && hit {
			s.store(&snap, false)
			return &snap
		}
	}

	if s.disk != nil {
		var snap models.Snapshot
		if err := s.disk.Load(&snap); err == nil && !snap.FetchedAt.IsZero() {
			s.store(&snap, false)
			return &snap
		} else if err != nil && !os.IsNotExist(err) {
			s.logger.Warn("snapshot disk read failed", zap.Error(err))
		}
	}

	return nil
}

// refresh performs one upstream fetch. Only one caller fetches at a time;
// the others get the stale copy, or an error when there is none. A refresh
// flag older than the stuck timeout is ignored, covering crashed fetches.
func (s *SnapshotService) refresh(ctx context.Context) (*models.Snapshot, error) {
	s.mu.Lock()
	if s.refreshing && s.now().Sub(s.refreshStarted) < s.cfg.StuckTimeout {
		stale := s.current
		s.mu.Unlock()
		if stale != nil {
			return stale, nil
		}
		if snap := s.cached(ctx); snap != nil {
			return snap, nil
		}
		return nil, appErrors.Clone(appErrors.ErrUpstreamFailed, "snapshot refresh already in progress")
	}
	s.refreshing = true
	s.refreshStarted = s.now()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.refreshing = false
		s.mu.Unlock()
	}()

	snap, err := s.fetch(ctx)
	if err != nil {
		s.logger.Warn("snapshot refresh failed", zap.Error(err))
		if stale := s.cached(ctx); stale != nil {
			return stale, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamFailed.Code, appErrors.ErrUpstreamFailed.Status, "enrollment source unavailable and no cached snapshot")
	}

	s.store(snap, true)
	return snap, nil
}

func (s *SnapshotService) fetch(ctx context.Context) (*models.Snapshot, error) {
	if s.source == nil || !s.source.Configured() {
		return nil, appErrors.Clone(appErrors.ErrUpstreamFailed, "enrollment source not configured")
	}

	records, err := s.source.EnrollmentRecords(ctx, s.parser, s.calendar)
	if err != nil {
		return nil, err
	}

	settings := aggregate.DefaultSettings()
	if s.settings != nil {
		if overridden, err := s.settings.AggregateSettings(ctx); err != nil {
			s.logger.Warn("program settings unavailable, using defaults", zap.Error(err))
		} else {
			settings = overridden
		}
	}

	snap := aggregate.Build(records, settings, s.now().UTC())
	s.logger.Info("enrollment snapshot rebuilt",
		zap.Int("records", len(records)),
		zap.Int("programs", len(snap.Programs)))
	return snap, nil
}

// store writes the snapshot to memory and, when persist is set, to Redis
// and disk as well.
func (s *SnapshotService) store(snap *models.Snapshot, persist bool) {
	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()

	if !persist {
		return
	}
	if s.cache != nil {
		if err := s.cache.Set(context.Background(), snapshotCacheKey, snap, s.cfg.TTL); err != nil {
			s.logger.Warn("snapshot redis write failed", zap.Error(err))
		}
	}
	if s.disk != nil {
		if err := s.disk.Save(snap); err != nil {
			s.logger.Warn("snapshot disk write failed", zap.Error(err))
		}
	}
}
