package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/camp-ops/dashboard-api/internal/models"
	appErrors "github.com/camp-ops/dashboard-api/pkg/errors"
)

type groupStore interface {
	Upsert(ctx context.Context, program string, week int, personID int64, group int, updatedAt time.Time) error
	Delete(ctx context.Context, program string, week int, personID int64) error
	ListByProgramWeek(ctx context.Context, program string, week int) ([]models.GroupAssignment, error)
	ListByWeek(ctx context.Context, week int) ([]models.GroupAssignment, error)
}

type programAccessChecker interface {
	CanAccessProgram(ctx context.Context, actor Actor, program string) (bool, error)
}

// GroupService manages weekly camper group numbers. Setting a group also
// carries it forward into the camper's later enrolled weeks, never
// backward, so mid-season regrouping keeps history intact.
type GroupService struct {
	store     groupStore
	access    programAccessChecker
	snapshots snapshotProvider
	logger    *zap.Logger
	now       func() time.Time
}

// NewGroupService constructs a GroupService.
func NewGroupService(store groupStore, access programAccessChecker, snapshots snapshotProvider, logger *zap.Logger) *GroupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{
		store:     store,
		access:    access,
		snapshots: snapshots,
		logger:    logger,
		now:       time.Now,
	}
}

// SetGroup writes a camper's group for one week. With propagate it also
// applies the change to the camper's later enrolled weeks, so a clear
// (group 0) removes the forward copies too. Propagation never runs
// backward.
func (s *GroupService) SetGroup(ctx context.Context, actor Actor, program string, week int, personID int64, group int, propagate bool) error {
	if week < models.MinWeek || week > models.MaxWeek {
		return appErrors.Clone(appErrors.ErrValidation, "week out of range")
	}
	if group < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "group number cannot be negative")
	}
	if s.access != nil {
		if ok, err := s.access.CanAccessProgram(ctx, actor, program); err != nil {
			return err
		} else if !ok {
			return appErrors.Clone(appErrors.ErrForbidden, "no access to this program")
		}
	}

	if group == 0 {
		if err := s.store.Delete(ctx, program, week, personID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "group clear failed")
		}
		if propagate {
			for _, w := range s.laterEnrolledWeeks(ctx, program, personID, week) {
				if err := s.store.Delete(ctx, program, w, personID); err != nil {
					s.logger.Warn("group clear propagation failed",
						zap.String("program", program),
						zap.Int("week", w),
						zap.Int64("person_id", personID),
						zap.Error(err))
				}
			}
		}
		return nil
	}

	now := s.now().UTC()
	if err := s.store.Upsert(ctx, program, week, personID, group, now); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "group write failed")
	}

	if propagate {
		for _, w := range s.laterEnrolledWeeks(ctx, program, personID, week) {
			if err := s.store.Upsert(ctx, program, w, personID, group, now); err != nil {
				s.logger.Warn("group propagation failed",
					zap.String("program", program),
					zap.Int("week", w),
					zap.Int64("person_id", personID),
					zap.Error(err))
			}
		}
	}
	return nil
}

func (s *GroupService) laterEnrolledWeeks(ctx context.Context, program string, personID int64, after int) []int {
	snap, err := s.snapshots.Get(ctx, false)
	if err != nil {
		s.logger.Warn("snapshot unavailable, group not propagated", zap.Error(err))
		return nil
	}
	var weeks []int
	for _, w := range snap.EnrolledWeeks(program, personID) {
		if w > after {
			weeks = append(weeks, w)
		}
	}
	return weeks
}

// Assignments lists the group numbers for one program week.
func (s *GroupService) Assignments(ctx context.Context, program string, week int) ([]models.GroupAssignment, error) {
	return s.store.ListByProgramWeek(ctx, program, week)
}

// WeekAssignments lists all group numbers across programs for one week.
func (s *GroupService) WeekAssignments(ctx context.Context, week int) ([]models.GroupAssignment, error) {
	return s.store.ListByWeek(ctx, week)
}
