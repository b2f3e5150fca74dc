package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/camp-ops/dashboard-api/internal/models"
	appErrors "github.com/camp-ops/dashboard-api/pkg/errors"
)

type fakeFieldTripRepo struct {
	venues      []models.FieldTripVenue
	assignments []models.FieldTripAssignment
	nextID      int64
}

func (f *fakeFieldTripRepo) Venues(ctx context.Context) ([]models.FieldTripVenue, error) {
	return f.venues, nil
}

func (f *fakeFieldTripRepo) CreateVenue(ctx context.Context, v *models.FieldTripVenue) error {
	f.nextID++
	v.ID = f.nextID
	f.venues = append(f.venues, *v)
	return nil
}

func (f *fakeFieldTripRepo) DeleteVenue(ctx context.Context, id int64) error {
	out := f.venues[:0]
	for _, v := range f.venues {
		if v.ID != id {
			out = append(out, v)
		}
	}
	f.venues = out
	return nil
}

func (f *fakeFieldTripRepo) AssignmentsByWeek(ctx context.Context, week int) ([]models.FieldTripAssignment, error) {
	var out []models.FieldTripAssignment
	for _, a := range f.assignments {
		if a.Week == week {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeFieldTripRepo) UpsertAssignment(ctx context.Context, a *models.FieldTripAssignment) error {
	for i, existing := range f.assignments {
		if existing.GroupName == a.GroupName && existing.Week == a.Week {
			a.ID = existing.ID
			f.assignments[i] = *a
			return nil
		}
	}
	f.nextID++
	a.ID = f.nextID
	f.assignments = append(f.assignments, *a)
	return nil
}

func (f *fakeFieldTripRepo) DeleteAssignment(ctx context.Context, id int64) error {
	out := f.assignments[:0]
	for _, a := range f.assignments {
		if a.ID != id {
			out = append(out, a)
		}
	}
	f.assignments = out
	return nil
}

func newFieldTripService(repo *fakeFieldTripRepo) *FieldTripService {
	return NewFieldTripService(repo, validator.New(), zap.NewNop())
}

func TestFieldTripVenueLifecycle(t *testing.T) {
	repo := &fakeFieldTripRepo{}
	svc := newFieldTripService(repo)
	ctx := context.Background()

	_, err := svc.AddVenue(ctx, "  ", "", "")
	require.Error(t, err)

	venue, err := svc.AddVenue(ctx, "Science Center", "400 Museum Way", "book 3 weeks ahead")
	require.NoError(t, err)
	assert.NotZero(t, venue.ID)

	venues, err := svc.Venues(ctx)
	require.NoError(t, err)
	assert.Len(t, venues, 1)

	require.NoError(t, svc.RemoveVenue(ctx, venue.ID))
	venues, err = svc.Venues(ctx)
	require.NoError(t, err)
	assert.Empty(t, venues)
}

func TestFieldTripBookingUpserts(t *testing.T) {
	repo := &fakeFieldTripRepo{}
	svc := newFieldTripService(repo)
	ctx := context.Background()

	venue, err := svc.AddVenue(ctx, "Science Center", "", "")
	require.NoError(t, err)

	tripDate := time.Date(2026, 6, 18, 0, 0, 0, 0, time.UTC)
	booking, err := svc.Book(ctx, TripBookingRequest{
		GroupName: "Pioneers Group 3",
		Week:      2,
		VenueID:   &venue.ID,
		TripDate:  &tripDate,
		Buses:     2,
	})
	require.NoError(t, err)
	assert.NotZero(t, booking.ID)

	// Booking the same group week replaces the row rather than duplicating.
	updated, err := svc.Book(ctx, TripBookingRequest{
		GroupName: "Pioneers Group 3",
		Week:      2,
		VenueID:   &venue.ID,
		Confirmed: true,
		Buses:     3,
	})
	require.NoError(t, err)
	assert.Equal(t, booking.ID, updated.ID)

	schedule, err := svc.WeekSchedule(ctx, 2)
	require.NoError(t, err)
	require.Len(t, schedule, 1)
	assert.True(t, schedule[0].Confirmed)
	assert.Equal(t, 3, schedule[0].Buses)
}

func TestFieldTripBookingValidation(t *testing.T) {
	svc := newFieldTripService(&fakeFieldTripRepo{})
	ctx := context.Background()

	_, err := svc.Book(ctx, TripBookingRequest{GroupName: "", Week: 2})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Book(ctx, TripBookingRequest{GroupName: "Pioneers Group 3", Week: 12})
	require.Error(t, err)

	_, err = svc.WeekSchedule(ctx, 0)
	require.Error(t, err)
}

func TestFieldTripCancel(t *testing.T) {
	repo := &fakeFieldTripRepo{}
	svc := newFieldTripService(repo)
	ctx := context.Background()

	booking, err := svc.Book(ctx, TripBookingRequest{GroupName: "Pioneers Group 1", Week: 4})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, booking.ID))
	schedule, err := svc.WeekSchedule(ctx, 4)
	require.NoError(t, err)
	assert.Empty(t, schedule)
}
