package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/camp-ops/dashboard-api/internal/models"
	"github.com/camp-ops/dashboard-api/internal/parser"
	appErrors "github.com/camp-ops/dashboard-api/pkg/errors"
)

// KidConnectionProgram is the virtual program that collects before/after
// care attendance across every real program. Any authenticated operator may
// mark it.
const KidConnectionProgram = "Kid Connection"

type attendanceStore interface {
	Upsert(ctx context.Context, rec *models.AttendanceRecord) error
	Delete(ctx context.Context, personID int64, program string, date time.Time, checkpointID int64) error
	ListByProgramDate(ctx context.Context, program string, date time.Time) ([]models.AttendanceRecord, error)
	ListByDate(ctx context.Context, date time.Time) ([]models.AttendanceRecord, error)
	ListByCheckpointsDate(ctx context.Context, checkpointIDs []int64, date time.Time) ([]models.AttendanceRecord, error)
	ListRange(ctx context.Context, program string, from, to time.Time) ([]models.AttendanceRecord, error)
	PersonHistory(ctx context.Context, personID int64) ([]models.AttendanceRecord, error)
	Checkpoints(ctx context.Context) ([]models.AttendanceCheckpoint, error)
	CreateCheckpoint(ctx context.Context, cp *models.AttendanceCheckpoint) error
	DeactivateCheckpoint(ctx context.Context, id int64) error
}

type groupLister interface {
	ListByProgramWeek(ctx context.Context, program string, week int) ([]models.GroupAssignment, error)
}

type programAccessLister interface {
	AssignmentsByUsername(ctx context.Context, username string) ([]models.UnitLeaderAssignment, error)
}

type snapshotProvider interface {
	Get(ctx context.Context, forceRefresh bool) (*models.Snapshot, error)
}

type rosterPersonProvider interface {
	Details(ctx context.Context, ids []int64) (map[int64]models.PersonDetail, error)
	YoungestEnrolledSibling(camper models.PersonDetail, week int, snap *models.Snapshot) *models.SiblingRef
}

// AttendanceServiceConfig tunes attendance behaviour.
type AttendanceServiceConfig struct {
	// LockHour is the local hour after which today's attendance freezes
	// for non-admin operators. Past days are always frozen for them.
	LockHour int
}

// MarkRequest records one camper's status at one checkpoint.
type MarkRequest struct {
	PersonID     int64     `json:"person_id" validate:"required"`
	Program      string    `json:"program" validate:"required"`
	Week         int       `json:"week" validate:"required,min=1,max=9"`
	Date         time.Time `json:"date" validate:"required"`
	CheckpointID int64     `json:"checkpoint_id" validate:"required"`
	Status       string    `json:"status" validate:"required"`
	Notes        *string   `json:"notes,omitempty"`
}

// Actor identifies the operator performing a mutation.
type Actor struct {
	Username string
	Role     models.UserRole
}

// AttendanceService implements marking, rosters, summaries and trends.
type AttendanceService struct {
	store     attendanceStore
	groups    groupLister
	access    programAccessLister
	snapshots snapshotProvider
	persons   rosterPersonProvider
	calendar  models.SeasonCalendar
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
	cfg       AttendanceServiceConfig
}

// AttendanceServiceParams groups constructor dependencies.
type AttendanceServiceParams struct {
	Store     attendanceStore
	Groups    groupLister
	Access    programAccessLister
	Snapshots snapshotProvider
	Persons   rosterPersonProvider
	Calendar  models.SeasonCalendar
	Validator *validator.Validate
	Logger    *zap.Logger
	Config    AttendanceServiceConfig
}

// NewAttendanceService constructs an AttendanceService with sane defaults.
func NewAttendanceService(params AttendanceServiceParams) *AttendanceService {
	cfg := params.Config
	if cfg.LockHour <= 0 || cfg.LockHour > 23 {
		cfg.LockHour = 17
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	return &AttendanceService{
		store:     params.Store,
		groups:    params.Groups,
		access:    params.Access,
		snapshots: params.Snapshots,
		persons:   params.Persons,
		calendar:  params.Calendar,
		validator: validate,
		logger:    logger,
		now:       time.Now,
		cfg:       cfg,
	}
}

// CanAccessProgram reports whether the operator may mark attendance for the
// program. Admins reach everything, Kid Connection is open to everyone
// else, other programs need a unit-leader assignment.
func (s *AttendanceService) CanAccessProgram(ctx context.Context, actor Actor, program string) (bool, error) {
	if actor.Role == models.RoleAdmin {
		return true, nil
	}
	if program == KidConnectionProgram {
		return true, nil
	}
	if s.access == nil {
		return false, nil
	}
	assignments, err := s.access.AssignmentsByUsername(ctx, actor.Username)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "assignment lookup failed")
	}
	for _, a := range assignments {
		if a.ProgramName == program {
			return true, nil
		}
	}
	return false, nil
}

// checkEditable enforces the edit window: past days are frozen and today
// freezes at the lock hour. Admins bypass both.
func (s *AttendanceService) checkEditable(date time.Time, actor Actor) error {
	if actor.Role == models.RoleAdmin {
		return nil
	}
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, now.Location())

	if day.Before(today) {
		return appErrors.Clone(appErrors.ErrAttendanceLocked, "attendance for past dates is locked")
	}
	if day.Equal(today) && now.Hour() >= s.cfg.LockHour {
		return appErrors.Clone(appErrors.ErrAttendanceLocked, "attendance is locked for today")
	}
	return nil
}

// Record writes or clears one mark. Unmarked deletes the stored record so
// absence of a row and an explicit unmark are the same state.
func (s *AttendanceService) Record(ctx context.Context, actor Actor, req MarkRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if ok, err := s.CanAccessProgram(ctx, actor, req.Program); err != nil {
		return err
	} else if !ok {
		return appErrors.Clone(appErrors.ErrForbidden, "no access to this program")
	}
	if err := s.checkEditable(req.Date, actor); err != nil {
		return err
	}
	return s.apply(ctx, actor, req)
}

// RecordBatch writes several marks in one call. Access and the edit window
// are checked once per (program, date) rather than per row.
func (s *AttendanceService) RecordBatch(ctx context.Context, actor Actor, reqs []MarkRequest) error {
	if len(reqs) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "empty attendance batch")
	}

	type scope struct {
		program string
		day     string
	}
	seen := map[scope]struct{}{}
	for _, req := range reqs {
		if err := s.validator.Struct(req); err != nil {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
		}
		key := scope{program: req.Program, day: req.Date.Format("2006-01-02")}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if ok, err := s.CanAccessProgram(ctx, actor, req.Program); err != nil {
			return err
		} else if !ok {
			return appErrors.Clone(appErrors.ErrForbidden, "no access to this program")
		}
		if err := s.checkEditable(req.Date, actor); err != nil {
			return err
		}
	}

	for _, req := range reqs {
		if err := s.apply(ctx, actor, req); err != nil {
			return err
		}
	}
	return nil
}

func (s *AttendanceService) apply(ctx context.Context, actor Actor, req MarkRequest) error {
	status := models.AttendanceStatus(req.Status)
	day := dateOnly(req.Date)

	if status == models.AttendanceStatusUnmarked {
		return s.store.Delete(ctx, req.PersonID, req.Program, day, req.CheckpointID)
	}
	if !status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown attendance status")
	}

	rec := &models.AttendanceRecord{
		PersonID:     req.PersonID,
		ProgramName:  req.Program,
		Week:         req.Week,
		Date:         day,
		CheckpointID: req.CheckpointID,
		Status:       status,
		RecordedBy:   actor.Username,
		RecordedAt:   s.now().UTC(),
		Notes:        req.Notes,
	}
	return s.store.Upsert(ctx, rec)
}

// Roster returns the enriched camper list for one program week plus the
// day's marks.
func (s *AttendanceService) Roster(ctx context.Context, actor Actor, program string, week int, date time.Time) ([]models.RosterEntry, error) {
	if ok, err := s.CanAccessProgram(ctx, actor, program); err != nil {
		return nil, err
	} else if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no access to this program")
	}

	snap, err := s.snapshots.Get(ctx, false)
	if err != nil {
		return nil, err
	}

	var ids []int64
	if program == KidConnectionProgram {
		ids = s.kidConnectionRoster(ctx, snap, week)
	} else {
		ids = snap.Roster(program, week)
	}

	return s.buildRoster(ctx, snap, program, week, date, ids)
}

// kidConnectionRoster collects campers enrolled anywhere in the week who
// hold before/after care for it.
func (s *AttendanceService) kidConnectionRoster(ctx context.Context, snap *models.Snapshot, week int) []int64 {
	seen := map[int64]struct{}{}
	var all []int64
	for _, byWeek := range snap.Participants {
		for _, id := range byWeek[week] {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				all = append(all, id)
			}
		}
	}

	details, err := s.persons.Details(ctx, all)
	if err != nil {
		s.logger.Warn("person lookup failed for care roster", zap.Error(err))
		return nil
	}

	var ids []int64
	for _, id := range all {
		if details[id].HasBACWeek(week) {
			ids = append(ids, id)
		}
	}
	return ids
}

// KidConnectionView builds the before/after care roster for one day,
// split into early-childhood campers and everyone else. Marks are scoped
// to the care checkpoints and the Kid Connection program, so regular
// program attendance never leaks into the care view.
func (s *AttendanceService) KidConnectionView(ctx context.Context, week int, date time.Time) (*models.KidConnectionView, error) {
	if week < models.MinWeek || week > models.MaxWeek {
		return nil, appErrors.Clone(appErrors.ErrValidation, "week out of range")
	}
	snap, err := s.snapshots.Get(ctx, false)
	if err != nil {
		return nil, err
	}

	programsByID := map[int64][]string{}
	ids := make([]int64, 0)
	for program, byWeek := range snap.Participants {
		for _, id := range byWeek[week] {
			if _, ok := programsByID[id]; !ok {
				ids = append(ids, id)
			}
			programsByID[id] = append(programsByID[id], program)
		}
	}

	details, err := s.persons.Details(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "person lookup failed")
	}

	checkpoints, err := s.store.Checkpoints(ctx)
	if err != nil {
		return nil, err
	}
	var kcIDs []int64
	for _, cp := range checkpoints {
		if cp.SortOrder == models.KCBeforeCheckpointSortOrder || cp.SortOrder == models.KCAfterCheckpointSortOrder {
			kcIDs = append(kcIDs, cp.ID)
		}
	}

	day := dateOnly(date)
	marksByPerson := map[int64]map[int64]models.AttendanceMark{}
	if len(kcIDs) > 0 {
		records, err := s.store.ListByCheckpointsDate(ctx, kcIDs, day)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			if rec.ProgramName != KidConnectionProgram {
				continue
			}
			if marksByPerson[rec.PersonID] == nil {
				marksByPerson[rec.PersonID] = map[int64]models.AttendanceMark{}
			}
			marksByPerson[rec.PersonID][rec.CheckpointID] = models.AttendanceMark{
				Status:     rec.Status,
				Notes:      rec.Notes,
				RecordedAt: rec.RecordedAt,
			}
		}
	}

	view := &models.KidConnectionView{
		Date:           day.Format("2006-01-02"),
		Week:           week,
		EarlyChildhood: []models.KidConnectionEntry{},
		Other:          []models.KidConnectionEntry{},
	}
	for _, id := range ids {
		if !details[id].HasBACWeek(week) {
			continue
		}
		programs := programsByID[id]
		sort.Strings(programs)
		program := programs[0]
		eca := false
		for _, p := range programs {
			if parser.CategoryFor(p) == "ECA Camps" {
				program, eca = p, true
				break
			}
		}

		entry := models.KidConnectionEntry{
			PersonID: id,
			Name:     details[id].FullName(),
			Program:  program,
			Marks:    marksByPerson[id],
		}
		if entry.Name == "" {
			entry.Name = "Unknown Camper"
		}
		if entry.Marks == nil {
			entry.Marks = map[int64]models.AttendanceMark{}
		}
		if eca {
			view.EarlyChildhood = append(view.EarlyChildhood, entry)
		} else {
			view.Other = append(view.Other, entry)
		}
	}

	byLastName := func(entries []models.KidConnectionEntry) {
		sort.SliceStable(entries, func(i, j int) bool {
			li := strings.ToLower(details[entries[i].PersonID].LastName)
			lj := strings.ToLower(details[entries[j].PersonID].LastName)
			if li != lj {
				return li < lj
			}
			return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
		})
	}
	byLastName(view.EarlyChildhood)
	byLastName(view.Other)
	return view, nil
}

func (s *AttendanceService) buildRoster(ctx context.Context, snap *models.Snapshot, program string, week int, date time.Time, ids []int64) ([]models.RosterEntry, error) {
	details, err := s.persons.Details(ctx, ids)
	if err != nil {
		return nil, err
	}

	groupByPerson := map[int64]int{}
	if s.groups != nil {
		assignments, err := s.groups.ListByProgramWeek(ctx, program, week)
		if err != nil {
			s.logger.Warn("group lookup failed", zap.Error(err))
		} else {
			for _, a := range assignments {
				groupByPerson[a.PersonID] = a.GroupNumber
			}
		}
	}

	day := dateOnly(date)
	records, err := s.store.ListByProgramDate(ctx, program, day)
	if err != nil {
		return nil, err
	}
	marksByPerson := map[int64]map[int64]models.AttendanceMark{}
	for _, rec := range records {
		if marksByPerson[rec.PersonID] == nil {
			marksByPerson[rec.PersonID] = map[int64]models.AttendanceMark{}
		}
		marksByPerson[rec.PersonID][rec.CheckpointID] = models.AttendanceMark{
			Status:     rec.Status,
			Notes:      rec.Notes,
			RecordedAt: rec.RecordedAt,
		}
	}

	entries := make([]models.RosterEntry, 0, len(ids))
	for _, id := range ids {
		detail := details[id]
		entry := models.RosterEntry{
			PersonID:       id,
			Name:           detail.FullName(),
			Grade:          detail.Grade,
			GroupNumber:    groupByPerson[id],
			HasBAC:         detail.HasBACWeek(week),
			ShareGroupWith: detail.ShareGroupWith,
			Marks:          marksByPerson[id],
		}
		if entry.Name == "" {
			entry.Name = "Unknown Camper"
		}
		if entry.Marks == nil {
			entry.Marks = map[int64]models.AttendanceMark{}
		}
		if sib := s.persons.YoungestEnrolledSibling(detail, week, snap); sib != nil {
			entry.YoungestSib = sib
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		li := strings.ToLower(details[entries[i].PersonID].LastName)
		lj := strings.ToLower(details[entries[j].PersonID].LastName)
		if li != lj {
			return li < lj
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
	return entries, nil
}

// Summary rolls up one day's marks per program and checkpoint. The KPI
// totals at the top count the primary checkpoint only, so a camper marked
// at three checkpoints is one person, not three.
func (s *AttendanceService) Summary(ctx context.Context, date time.Time) (*models.AttendanceSummary, error) {
	day := dateOnly(date)
	records, err := s.store.ListByDate(ctx, day)
	if err != nil {
		return nil, err
	}
	checkpoints, err := s.store.Checkpoints(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshots.Get(ctx, false)
	if err != nil {
		return nil, err
	}

	week := s.calendar.WeekFor(day)
	inSeason := week != 0
	primaryID := primaryCheckpointID(checkpoints)

	type counter struct {
		present, absent, late, early int
	}
	counts := map[string]map[int64]*counter{}
	for _, rec := range records {
		if counts[rec.ProgramName] == nil {
			counts[rec.ProgramName] = map[int64]*counter{}
		}
		c := counts[rec.ProgramName][rec.CheckpointID]
		if c == nil {
			c = &counter{}
			counts[rec.ProgramName][rec.CheckpointID] = c
		}
		switch rec.Status {
		case models.AttendanceStatusPresent:
			c.present++
		case models.AttendanceStatusAbsent:
			c.absent++
		case models.AttendanceStatusLate:
			c.late++
		case models.AttendanceStatusEarlyPickup:
			c.early++
		}
	}

	programs := make([]string, 0, len(counts))
	for program := range counts {
		programs = append(programs, program)
	}
	sort.Strings(programs)

	summary := &models.AttendanceSummary{Date: day.Format("2006-01-02")}
	for _, program := range programs {
		enrolled := 0
		if inSeason {
			if program == KidConnectionProgram {
				enrolled = len(s.kidConnectionRoster(ctx, snap, week))
			} else {
				enrolled = len(snap.Roster(program, week))
			}
		}

		ps := models.ProgramSummary{Program: program, Enrolled: enrolled}
		for _, cp := range checkpoints {
			c := counts[program][cp.ID]
			if c == nil {
				continue
			}
			marked := c.present + c.absent + c.late + c.early
			cs := models.CheckpointSummary{
				CheckpointID: cp.ID,
				Present:      c.present,
				Absent:       c.absent,
				Late:         c.late,
				EarlyPickup:  c.early,
				Marked:       marked,
				Enrolled:     enrolled,
			}
			if enrolled > 0 {
				cs.Completion = float64(marked) / float64(enrolled) * 100
			}
			ps.Checkpoints = append(ps.Checkpoints, cs)

			if cp.ID == primaryID {
				summary.TotalPresent += c.present
				summary.TotalAbsent += c.absent
				summary.TotalLate += c.late
				summary.TotalEnrolled += enrolled
			}
		}
		summary.Programs = append(summary.Programs, ps)
	}
	return summary, nil
}

// Trend returns the daily attendance-rate series for one program. Only
// weekdays and the primary checkpoint count, and rate treats late arrivals
// as attending.
func (s *AttendanceService) Trend(ctx context.Context, program string, from, to time.Time) ([]models.TrendPoint, error) {
	if from.IsZero() || to.IsZero() {
		from, to = s.defaultTrendRange()
	}
	from, to = dateOnly(from), dateOnly(to)
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "trend range end precedes start")
	}

	records, err := s.store.ListRange(ctx, program, from, to)
	if err != nil {
		return nil, err
	}
	checkpoints, err := s.store.Checkpoints(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshots.Get(ctx, false)
	if err != nil {
		return nil, err
	}
	primaryID := primaryCheckpointID(checkpoints)

	type dayCount struct{ present, late int }
	byDay := map[string]*dayCount{}
	for _, rec := range records {
		if rec.CheckpointID != primaryID {
			continue
		}
		key := rec.Date.Format("2006-01-02")
		c := byDay[key]
		if c == nil {
			c = &dayCount{}
			byDay[key] = c
		}
		switch rec.Status {
		case models.AttendanceStatusPresent:
			c.present++
		case models.AttendanceStatusLate:
			c.late++
		}
	}

	var points []models.TrendPoint
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		week := s.calendar.WeekFor(day)
		enrolled := 0
		if week != 0 {
			enrolled = len(snap.Roster(program, week))
		}

		key := day.Format("2006-01-02")
		point := models.TrendPoint{Date: key, Enrolled: enrolled}
		if c := byDay[key]; c != nil {
			point.Present = c.present
			point.Late = c.late
		}
		if enrolled > 0 {
			point.Rate = float64(point.Present+point.Late) / float64(enrolled) * 100
		}
		points = append(points, point)
	}
	return points, nil
}

// defaultTrendRange is the current camp week up to today during the
// season, otherwise the trailing seven days.
func (s *AttendanceService) defaultTrendRange() (time.Time, time.Time) {
	today := dateOnly(s.now())
	if week := s.calendar.WeekFor(today); week != 0 {
		if cw, found := s.calendar.Week(week); found {
			return dateOnly(cw.Start), today
		}
	}
	return today.AddDate(0, 0, -6), today
}

// PersonHistory returns the full attendance history for one camper.
func (s *AttendanceService) PersonHistory(ctx context.Context, personID int64) ([]models.AttendanceRecord, error) {
	return s.store.PersonHistory(ctx, personID)
}

// Checkpoints lists active checkpoints in display order.
func (s *AttendanceService) Checkpoints(ctx context.Context) ([]models.AttendanceCheckpoint, error) {
	return s.store.Checkpoints(ctx)
}

// AddCheckpoint appends a new checkpoint after the existing ones.
func (s *AttendanceService) AddCheckpoint(ctx context.Context, name, timeLabel string) (*models.AttendanceCheckpoint, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "checkpoint name is required")
	}
	cp := &models.AttendanceCheckpoint{Name: name, TimeLabel: timeLabel, Active: true}
	if err := s.store.CreateCheckpoint(ctx, cp); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "checkpoint create failed")
	}
	return cp, nil
}

// RemoveCheckpoint deactivates a checkpoint, preserving its history.
func (s *AttendanceService) RemoveCheckpoint(ctx context.Context, id int64) error {
	if err := s.store.DeactivateCheckpoint(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "checkpoint remove failed")
	}
	return nil
}

func primaryCheckpointID(checkpoints []models.AttendanceCheckpoint) int64 {
	for _, cp := range checkpoints {
		if cp.SortOrder == models.PrimaryCheckpointSortOrder {
			return cp.ID
		}
	}
	if len(checkpoints) > 0 {
		return checkpoints[0].ID
	}
	return 0
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
