package models

import "time"

// FieldTripVenue is a destination available for weekly group trips.
type FieldTripVenue struct {
	ID      int64  `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	Address string `db:"address" json:"address,omitempty"`
	Notes   string `db:"notes" json:"notes,omitempty"`
}

// FieldTripAssignment books a group into a venue for one week.
// Unique per (group_name, week).
type FieldTripAssignment struct {
	ID        int64      `db:"id" json:"id"`
	GroupName string     `db:"group_name" json:"group_name"`
	Week      int        `db:"week" json:"week"`
	VenueID   *int64     `db:"venue_id" json:"venue_id,omitempty"`
	TripDate  *time.Time `db:"trip_date" json:"trip_date,omitempty"`
	Confirmed bool       `db:"confirmed" json:"confirmed"`
	Comments  string     `db:"comments" json:"comments,omitempty"`
	Buses     int        `db:"buses" json:"buses"`
}
