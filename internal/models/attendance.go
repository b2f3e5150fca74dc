package models

import "time"

// AttendanceStatus represents the recorded status for one checkpoint.
type AttendanceStatus string

const (
	AttendanceStatusPresent     AttendanceStatus = "present"
	AttendanceStatusAbsent      AttendanceStatus = "absent"
	AttendanceStatusLate        AttendanceStatus = "late"
	AttendanceStatusEarlyPickup AttendanceStatus = "early_pickup"
	// AttendanceStatusUnmarked is never stored. Writing it deletes the
	// record so that "no record" and "unmarked" are the same state.
	AttendanceStatusUnmarked AttendanceStatus = "unmarked"
)

// Valid returns true when the status is a supported storable value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate, AttendanceStatusEarlyPickup:
		return true
	default:
		return false
	}
}

// AttendanceRecord is one camper's status at one checkpoint on one date.
// Unique per (person_id, program_name, date, checkpoint_id).
type AttendanceRecord struct {
	ID           int64            `db:"id" json:"id"`
	PersonID     int64            `db:"person_id" json:"person_id"`
	ProgramName  string           `db:"program_name" json:"program_name"`
	Week         int              `db:"week" json:"week"`
	Date         time.Time        `db:"date" json:"date"`
	CheckpointID int64            `db:"checkpoint_id" json:"checkpoint_id"`
	Status       AttendanceStatus `db:"status" json:"status"`
	RecordedBy   string           `db:"recorded_by" json:"recorded_by"`
	RecordedAt   time.Time        `db:"recorded_at" json:"recorded_at"`
	Notes        *string          `db:"notes" json:"notes,omitempty"`
}

// AttendanceCheckpoint is an ordered, named collection point within a day.
// Deactivated rather than deleted so historical records stay valid.
type AttendanceCheckpoint struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	SortOrder int    `db:"sort_order" json:"sort_order"`
	TimeLabel string `db:"time_label" json:"time_label"`
	Active    bool   `db:"active" json:"active"`
}

// PrimaryCheckpointSortOrder marks the checkpoint used for headline rates.
const PrimaryCheckpointSortOrder = 1

// Sort orders of the before/after care checkpoints. Only these two appear
// in the Kid Connection view.
const (
	KCBeforeCheckpointSortOrder = 4
	KCAfterCheckpointSortOrder  = 5
)

// AttendanceMark is the per-checkpoint cell shown in the roster grid.
type AttendanceMark struct {
	Status     AttendanceStatus `json:"status"`
	Notes      *string          `json:"notes,omitempty"`
	RecordedAt time.Time        `json:"recorded_at"`
}

// RosterEntry is one camper row in the attendance-taking view, enriched
// with group, care and sibling context.
type RosterEntry struct {
	PersonID       int64                    `json:"person_id"`
	Name           string                   `json:"name"`
	Grade          string                   `json:"grade,omitempty"`
	GroupNumber    int                      `json:"group_number,omitempty"`
	HasBAC         bool                     `json:"has_bac"`
	YoungestSib    *SiblingRef              `json:"youngest_sibling,omitempty"`
	ShareGroupWith string                   `json:"share_group_with,omitempty"`
	Marks          map[int64]AttendanceMark `json:"marks"`
}

// KidConnectionEntry is one camper row in the before/after care view.
// Marks holds the care checkpoints only.
type KidConnectionEntry struct {
	PersonID int64                    `json:"person_id"`
	Name     string                   `json:"name"`
	Program  string                   `json:"program"`
	Marks    map[int64]AttendanceMark `json:"marks"`
}

// KidConnectionView is the care roster split by the camper's enrolling
// program: early-childhood campers in one list, everyone else in the other.
type KidConnectionView struct {
	Date           string               `json:"date"`
	Week           int                  `json:"week"`
	EarlyChildhood []KidConnectionEntry `json:"eca"`
	Other          []KidConnectionEntry `json:"other"`
}

// CheckpointSummary counts statuses for one program at one checkpoint.
type CheckpointSummary struct {
	CheckpointID int64   `json:"checkpoint_id"`
	Present      int     `json:"present"`
	Absent       int     `json:"absent"`
	Late         int     `json:"late"`
	EarlyPickup  int     `json:"early_pickup"`
	Marked       int     `json:"marked"`
	Enrolled     int     `json:"enrolled"`
	Completion   float64 `json:"completion"`
}

// ProgramSummary groups checkpoint summaries for one program.
type ProgramSummary struct {
	Program     string              `json:"program"`
	Enrolled    int                 `json:"enrolled"`
	Checkpoints []CheckpointSummary `json:"checkpoints"`
}

// AttendanceSummary is the per-date roll-up across programs. KPI totals
// count the primary checkpoint only.
type AttendanceSummary struct {
	Date          string           `json:"date"`
	Programs      []ProgramSummary `json:"programs"`
	TotalPresent  int              `json:"total_present"`
	TotalAbsent   int              `json:"total_absent"`
	TotalLate     int              `json:"total_late"`
	TotalEnrolled int              `json:"total_enrolled"`
}

// TrendPoint is one day in the attendance-rate series.
type TrendPoint struct {
	Date     string  `json:"date"`
	Present  int     `json:"present"`
	Late     int     `json:"late"`
	Enrolled int     `json:"enrolled"`
	Rate     float64 `json:"rate"`
}
