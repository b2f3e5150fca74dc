package service

import (
	"context"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/camp-ops/dashboard-api/internal/models"
	"github.com/camp-ops/dashboard-api/internal/upstream"
	appErrors "github.com/camp-ops/dashboard-api/pkg/errors"
	"github.com/camp-ops/dashboard-api/pkg/jobs"
)

type personSource interface {
	PersonsBatch(ctx context.Context, ids []int64, opts upstream.PersonFetchOptions) ([]upstream.Person, error)
	Transactions(ctx context.Context, seasonYear int) ([]upstream.Transaction, error)
	Configured() bool
}

// PersonServiceConfig tunes person-cache behaviour.
type PersonServiceConfig struct {
	SeasonYear   int
	BACSyncTTL   time.Duration
	StuckTimeout time.Duration
}

// PersonService resolves camper biographical details lazily and keeps them
// in an in-memory map mirrored to disk. The map is replaced wholesale on
// every mutation so readers never need a lock beyond the pointer swap.
type PersonService struct {
	source     personSource
	disk       snapshotStore
	shareStore snapshotStore
	logger     *zap.Logger
	now        func() time.Time
	cfg        PersonServiceConfig

	mu          sync.Mutex
	people      map[int64]models.PersonDetail
	shareGroups map[int64]string

	bacSyncedAt time.Time
	bacSyncing  bool
	bacStarted  time.Time
}

// NewPersonService constructs a PersonService, loading any existing cache
// files from disk. shareStore holds the operator-uploaded share-group
// overrides and may be nil.
func NewPersonService(source personSource, disk, shareStore snapshotStore, logger *zap.Logger, cfg PersonServiceConfig) *PersonService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BACSyncTTL <= 0 {
		cfg.BACSyncTTL = time.Hour
	}
	if cfg.StuckTimeout <= 0 {
		cfg.StuckTimeout = 3 * time.Minute
	}

	s := &PersonService{
		source:      source,
		disk:        disk,
		shareStore:  shareStore,
		logger:      logger,
		now:         time.Now,
		cfg:         cfg,
		people:      map[int64]models.PersonDetail{},
		shareGroups: map[int64]string{},
	}

	if disk != nil {
		var stored map[int64]models.PersonDetail
		if err := disk.Load(&stored); err == nil && stored != nil {
			s.people = stored
			logger.Info("person cache loaded", zap.Int("entries", len(stored)))
		} else if err != nil && !os.IsNotExist(err) {
			logger.Warn("person cache load failed", zap.Error(err))
		}
	}
	if shareStore != nil {
		var stored map[int64]string
		if err := shareStore.Load(&stored); err == nil && stored != nil {
			s.shareGroups = stored
		} else if err != nil && !os.IsNotExist(err) {
			logger.Warn("share-group file load failed", zap.Error(err))
		}
	}

	return s
}

// SetShareGroups replaces the operator-uploaded share-group overrides and
// reapplies them to every cached record.
func (s *PersonService) SetShareGroups(groups map[int64]string) error {
	if groups == nil {
		groups = map[int64]string{}
	}

	s.mu.Lock()
	s.shareGroups = groups
	next := make(map[int64]models.PersonDetail, len(s.people))
	for id, detail := range s.people {
		detail.ShareGroupWith = groups[id]
		next[id] = detail
	}
	s.people = next
	s.mu.Unlock()

	s.persist(next)
	if s.shareStore != nil {
		if err := s.shareStore.Save(groups); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "share-group file write failed")
		}
	}
	return nil
}

// Details returns cached records for the requested ids, fetching any
// missing ones from upstream first. Unresolvable ids come back as
// placeholder entries so they are not refetched on every call.
func (s *PersonService) Details(ctx context.Context, ids []int64) (map[int64]models.PersonDetail, error) {
	var missing []int64
	s.mu.Lock()
	people := s.people
	s.mu.Unlock()

	for _, id := range ids {
		if _, ok := people[id]; !ok {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		if err := s.fetchAndCache(ctx, missing); err != nil {
			return nil, err
		}
		s.mu.Lock()
		people = s.people
		s.mu.Unlock()
	}

	out := make(map[int64]models.PersonDetail, len(ids))
	for _, id := range ids {
		if detail, ok := people[id]; ok {
			out[id] = detail
		}
	}
	return out, nil
}

// Detail returns one cached record, fetching it if needed.
func (s *PersonService) Detail(ctx context.Context, id int64) (*models.PersonDetail, error) {
	details, err := s.Details(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	detail, ok := details[id]
	if !ok || detail.Placeholder {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "person not found")
	}
	return &detail, nil
}

// fetchAndCache resolves campers, then their guardians, then the guardians'
// other wards so sibling links come out complete. The cache file is written
// immediately after the map swap.
func (s *PersonService) fetchAndCache(ctx context.Context, ids []int64) error {
	if s.source == nil || !s.source.Configured() {
		return appErrors.Clone(appErrors.ErrUpstreamFailed, "person source not configured")
	}

	campers, err := s.source.PersonsBatch(ctx, ids, upstream.PersonFetchOptions{
		Relatives:     true,
		CamperDetails: true,
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstreamFailed.Code, appErrors.ErrUpstreamFailed.Status, "camper lookup failed")
	}

	guardianSet := map[int64]struct{}{}
	for _, camper := range campers {
		for _, rel := range camper.Relatives {
			if rel.IsGuardian {
				guardianSet[rel.ID] = struct{}{}
			}
		}
	}
	guardianIDs := make([]int64, 0, len(guardianSet))
	for id := range guardianSet {
		guardianIDs = append(guardianIDs, id)
	}
	sort.Slice(guardianIDs, func(i, j int) bool { return guardianIDs[i] < guardianIDs[j] })

	guardians, err := s.source.PersonsBatch(ctx, guardianIDs, upstream.PersonFetchOptions{
		ContactDetails: true,
		Relatives:      true,
	})
	if err != nil {
		s.logger.Warn("guardian lookup failed, camper records kept without contacts", zap.Error(err))
	}

	guardianByID := make(map[int64]upstream.Person, len(guardians))
	wardsByGuardian := make(map[int64][]int64, len(guardians))
	for _, g := range guardians {
		guardianByID[g.ID] = g
		for _, rel := range g.Relatives {
			if rel.IsWard {
				wardsByGuardian[g.ID] = append(wardsByGuardian[g.ID], rel.ID)
			}
		}
	}

	s.mu.Lock()
	shares := s.shareGroups
	s.mu.Unlock()

	now := s.now().UTC()
	resolved := map[int64]models.PersonDetail{}
	for _, camper := range campers {
		resolved[camper.ID] = buildDetail(camper, guardianByID, wardsByGuardian, shares, now)
	}
	for _, id := range ids {
		if _, ok := resolved[id]; !ok {
			resolved[id] = models.PersonDetail{ID: id, Placeholder: true, FetchedAt: now}
		}
	}

	s.mu.Lock()
	next := make(map[int64]models.PersonDetail, len(s.people)+len(resolved))
	for id, detail := range s.people {
		next[id] = detail
	}
	for id, detail := range resolved {
		// BAC weeks come from the financial sync, not the person record.
		if existing, ok := next[id]; ok {
			detail.BACWeeks = existing.BACWeeks
		}
		next[id] = detail
	}
	s.people = next
	s.mu.Unlock()

	s.persist(next)
	s.logger.Info("person cache updated",
		zap.Int("fetched", len(campers)),
		zap.Int("requested", len(ids)))
	return nil
}

func buildDetail(camper upstream.Person, guardianByID map[int64]upstream.Person, wardsByGuardian map[int64][]int64, shares map[int64]string, now time.Time) models.PersonDetail {
	detail := models.PersonDetail{
		ID:        camper.ID,
		FirstName: camper.Name.First,
		LastName:  camper.Name.Last,
		FetchedAt: now,
	}

	if camper.CamperDetails != nil {
		detail.Grade = camper.CamperDetails.CampGradeName
		if detail.Grade == "" {
			detail.Grade = camper.CamperDetails.SchoolGradeName
		}
	}
	if dob := parseUpstreamDate(camper.DateOfBirth); !dob.IsZero() {
		detail.DateOfBirth = &dob
	}
	detail.ShareGroupWith = shares[camper.ID]

	siblingSet := map[int64]struct{}{}
	for _, rel := range camper.Relatives {
		if !rel.IsGuardian {
			continue
		}
		g, ok := guardianByID[rel.ID]
		if !ok {
			detail.Guardians = append(detail.Guardians, models.Guardian{ID: rel.ID, Name: rel.Name})
			continue
		}
		guardian := models.Guardian{ID: g.ID, Name: g.Name.First + " " + g.Name.Last}
		if g.ContactDetails != nil {
			if len(g.ContactDetails.Emails) > 0 {
				guardian.Email = g.ContactDetails.Emails[0]
			}
			if len(g.ContactDetails.Phones) > 0 {
				guardian.Phone = g.ContactDetails.Phones[0]
			}
		}
		detail.Guardians = append(detail.Guardians, guardian)
		for _, ward := range wardsByGuardian[g.ID] {
			if ward != camper.ID {
				siblingSet[ward] = struct{}{}
			}
		}
	}

	detail.SiblingIDs = make([]int64, 0, len(siblingSet))
	for id := range siblingSet {
		detail.SiblingIDs = append(detail.SiblingIDs, id)
	}
	sort.Slice(detail.SiblingIDs, func(i, j int) bool { return detail.SiblingIDs[i] < detail.SiblingIDs[j] })

	return detail
}

// YoungestEnrolledSibling picks the sibling with the latest date of birth
// that is strictly younger than the camper and enrolled anywhere in the
// given week. Ties on birth date break on the lower id.
func (s *PersonService) YoungestEnrolledSibling(camper models.PersonDetail, week int, snap *models.Snapshot) *models.SiblingRef {
	if camper.DateOfBirth == nil || snap == nil {
		return nil
	}

	s.mu.Lock()
	people := s.people
	s.mu.Unlock()

	type candidate struct {
		detail  models.PersonDetail
		program string
	}
	var candidates []candidate
	for _, sibID := range camper.SiblingIDs {
		sib, ok := people[sibID]
		if !ok || sib.Placeholder || sib.DateOfBirth == nil {
			continue
		}
		if !sib.DateOfBirth.After(*camper.DateOfBirth) {
			continue
		}
		program := enrolledProgram(snap, sibID, week)
		if program == "" {
			continue
		}
		candidates = append(candidates, candidate{detail: sib, program: program})
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		di, dj := candidates[i].detail.DateOfBirth, candidates[j].detail.DateOfBirth
		if !di.Equal(*dj) {
			return di.After(*dj)
		}
		return candidates[i].detail.ID < candidates[j].detail.ID
	})

	youngest := candidates[0]
	return &models.SiblingRef{
		ID:      youngest.detail.ID,
		Name:    youngest.detail.FullName(),
		Program: youngest.program,
	}
}

func enrolledProgram(snap *models.Snapshot, personID int64, week int) string {
	for program, byWeek := range snap.Participants {
		for _, id := range byWeek[week] {
			if id == personID {
				return program
			}
		}
	}
	return ""
}

var reBACWeek = regexp.MustCompile(`(?i)week\s+(\d+)`)

// SyncBAC rebuilds the before/after-care week mapping from financial
// transactions. The whole mapping is swapped at once: a failed fetch
// leaves the previous mapping untouched.
func (s *PersonService) SyncBAC(ctx context.Context, force bool) error {
	s.mu.Lock()
	if !force && s.now().Sub(s.bacSyncedAt) < s.cfg.BACSyncTTL {
		s.mu.Unlock()
		return nil
	}
	if s.bacSyncing && s.now().Sub(s.bacStarted) < s.cfg.StuckTimeout {
		s.mu.Unlock()
		return nil
	}
	s.bacSyncing = true
	s.bacStarted = s.now()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.bacSyncing = false
		s.mu.Unlock()
	}()

	if s.source == nil || !s.source.Configured() {
		return appErrors.Clone(appErrors.ErrUpstreamFailed, "transaction source not configured")
	}

	transactions, err := s.source.Transactions(ctx, s.cfg.SeasonYear)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstreamFailed.Code, appErrors.ErrUpstreamFailed.Status, "transaction fetch failed")
	}

	weeksByPerson := map[int64][]int{}
	for _, tx := range transactions {
		if tx.IsReversed {
			continue
		}
		if !strings.Contains(strings.ToLower(tx.Description), "before and after") {
			continue
		}
		m := reBACWeek.FindStringSubmatch(tx.Description)
		if m == nil {
			continue
		}
		week, _ := strconv.Atoi(m[1])
		if week < models.MinWeek || week > models.MaxWeek {
			continue
		}
		if !containsInt(weeksByPerson[tx.PersonID], week) {
			weeksByPerson[tx.PersonID] = append(weeksByPerson[tx.PersonID], week)
		}
	}
	for _, weeks := range weeksByPerson {
		sort.Ints(weeks)
	}

	s.mu.Lock()
	next := make(map[int64]models.PersonDetail, len(s.people))
	for id, detail := range s.people {
		detail.BACWeeks = weeksByPerson[id]
		next[id] = detail
	}
	// Persons seen only in financials still get an entry so the roster
	// flag works before their details are fetched.
	for id, weeks := range weeksByPerson {
		if _, ok := next[id]; !ok {
			next[id] = models.PersonDetail{ID: id, BACWeeks: weeks, Placeholder: true, FetchedAt: s.now().UTC()}
		}
	}
	s.people = next
	s.bacSyncedAt = s.now()
	s.mu.Unlock()

	s.persist(next)
	s.logger.Info("before/after-care mapping synced",
		zap.Int("persons", len(weeksByPerson)),
		zap.Int("transactions", len(transactions)))
	return nil
}

// HandleBACSyncJob is the queue handler for scheduled BAC resyncs.
func (s *PersonService) HandleBACSyncJob(ctx context.Context, _ jobs.Job) error {
	return s.SyncBAC(ctx, false)
}

// BACSyncedAt reports when the mapping was last rebuilt.
func (s *PersonService) BACSyncedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bacSyncedAt
}

func (s *PersonService) persist(people map[int64]models.PersonDetail) {
	if s.disk == nil {
		return
	}
	if err := s.disk.Save(people); err != nil {
		s.logger.Warn("person cache write failed", zap.Error(err))
	}
}

func containsInt(values []int, v int) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}

func parseUpstreamDate(raw string) time.Time {
	if len(raw) < 10 {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", raw[:10])
	if err != nil {
		return time.Time{}
	}
	return t
}
