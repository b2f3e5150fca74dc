package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/camp-ops/dashboard-api/internal/models"
	appErrors "github.com/camp-ops/dashboard-api/pkg/errors"
)

type fieldTripRepository interface {
	Venues(ctx context.Context) ([]models.FieldTripVenue, error)
	CreateVenue(ctx context.Context, v *models.FieldTripVenue) error
	DeleteVenue(ctx context.Context, id int64) error
	AssignmentsByWeek(ctx context.Context, week int) ([]models.FieldTripAssignment, error)
	UpsertAssignment(ctx context.Context, a *models.FieldTripAssignment) error
	DeleteAssignment(ctx context.Context, id int64) error
}

// TripBookingRequest books one group into a venue for a week.
type TripBookingRequest struct {
	GroupName string     `json:"group_name" validate:"required"`
	Week      int        `json:"week" validate:"required,min=1,max=9"`
	VenueID   *int64     `json:"venue_id,omitempty"`
	TripDate  *time.Time `json:"trip_date,omitempty"`
	Confirmed bool       `json:"confirmed"`
	Comments  string     `json:"comments,omitempty"`
	Buses     int        `json:"buses" validate:"min=0"`
}

// FieldTripService manages trip venues and weekly group bookings.
type FieldTripService struct {
	repo      fieldTripRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFieldTripService constructs a FieldTripService.
func NewFieldTripService(repo fieldTripRepository, validate *validator.Validate, logger *zap.Logger) *FieldTripService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &FieldTripService{repo: repo, validator: validate, logger: logger}
}

// Venues lists all destinations.
func (s *FieldTripService) Venues(ctx context.Context) ([]models.FieldTripVenue, error) {
	venues, err := s.repo.Venues(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list venues")
	}
	return venues, nil
}

// AddVenue creates a destination.
func (s *FieldTripService) AddVenue(ctx context.Context, name, address, notes string) (*models.FieldTripVenue, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "venue name is required")
	}
	venue := &models.FieldTripVenue{Name: name, Address: address, Notes: notes}
	if err := s.repo.CreateVenue(ctx, venue); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create venue")
	}
	return venue, nil
}

// RemoveVenue deletes a destination.
func (s *FieldTripService) RemoveVenue(ctx context.Context, id int64) error {
	if err := s.repo.DeleteVenue(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete venue")
	}
	return nil
}

// WeekSchedule lists the bookings for one camp week.
func (s *FieldTripService) WeekSchedule(ctx context.Context, week int) ([]models.FieldTripAssignment, error) {
	if week < models.MinWeek || week > models.MaxWeek {
		return nil, appErrors.Clone(appErrors.ErrValidation, "week out of range")
	}
	assignments, err := s.repo.AssignmentsByWeek(ctx, week)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	return assignments, nil
}

// Book writes the booking for one group week.
func (s *FieldTripService) Book(ctx context.Context, req TripBookingRequest) (*models.FieldTripAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	assignment := &models.FieldTripAssignment{
		GroupName: strings.TrimSpace(req.GroupName),
		Week:      req.Week,
		VenueID:   req.VenueID,
		TripDate:  req.TripDate,
		Confirmed: req.Confirmed,
		Comments:  req.Comments,
		Buses:     req.Buses,
	}
	if err := s.repo.UpsertAssignment(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save booking")
	}
	return assignment, nil
}

// Cancel removes one booking.
func (s *FieldTripService) Cancel(ctx context.Context, id int64) error {
	if err := s.repo.DeleteAssignment(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete booking")
	}
	return nil
}
