package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/camp-ops/dashboard-api/internal/models"
)

// FieldTripRepository provides database access for trip venues and weekly
// group bookings.
type FieldTripRepository struct {
	db *sqlx.DB
}

// NewFieldTripRepository creates a new instance of FieldTripRepository.
func NewFieldTripRepository(db *sqlx.DB) *FieldTripRepository {
	return &FieldTripRepository{db: db}
}

// Venues returns all trip venues.
func (r *FieldTripRepository) Venues(ctx context.Context) ([]models.FieldTripVenue, error) {
	const query = `SELECT id, name, address, notes FROM field_trip_venues ORDER BY name`
	var venues []models.FieldTripVenue
	if err := r.db.SelectContext(ctx, &venues, query); err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	return venues, nil
}

// CreateVenue inserts a new venue.
func (r *FieldTripRepository) CreateVenue(ctx context.Context, v *models.FieldTripVenue) error {
	const query = `INSERT INTO field_trip_venues (name, address, notes) VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, v.Name, v.Address, v.Notes).Scan(&v.ID); err != nil {
		return fmt.Errorf("create venue: %w", err)
	}
	return nil
}

// DeleteVenue removes a venue. Bookings referencing it keep a null venue.
func (r *FieldTripRepository) DeleteVenue(ctx context.Context, id int64) error {
	const query = `DELETE FROM field_trip_venues WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete venue: %w", err)
	}
	return nil
}

// AssignmentsByWeek returns all bookings for one camp week.
func (r *FieldTripRepository) AssignmentsByWeek(ctx context.Context, week int) ([]models.FieldTripAssignment, error) {
	const query = `SELECT id, group_name, week, venue_id, trip_date, confirmed, comments, buses FROM field_trip_assignments WHERE week = $1 ORDER BY group_name`
	var assignments []models.FieldTripAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, week); err != nil {
		return nil, fmt.Errorf("list trip assignments: %w", err)
	}
	return assignments, nil
}

// UpsertAssignment writes the booking for one group week.
func (r *FieldTripRepository) UpsertAssignment(ctx context.Context, a *models.FieldTripAssignment) error {
	const query = `INSERT INTO field_trip_assignments (group_name, week, venue_id, trip_date, confirmed, comments, buses)
		VALUES (:group_name, :week, :venue_id, :trip_date, :confirmed, :comments, :buses)
		ON CONFLICT (group_name, week)
		DO UPDATE SET venue_id = EXCLUDED.venue_id, trip_date = EXCLUDED.trip_date, confirmed = EXCLUDED.confirmed, comments = EXCLUDED.comments, buses = EXCLUDED.buses`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("upsert trip assignment: %w", err)
	}
	return nil
}

// DeleteAssignment removes one booking.
func (r *FieldTripRepository) DeleteAssignment(ctx context.Context, id int64) error {
	const query = `DELETE FROM field_trip_assignments WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete trip assignment: %w", err)
	}
	return nil
}
