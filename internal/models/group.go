package models

import "time"

// GroupAssignment places a camper into a numbered group for one program
// week. Unique per (program_name, week, person_id). Group 0 is never
// stored; writing it removes the assignment.
type GroupAssignment struct {
	ID          int64     `db:"id" json:"id"`
	ProgramName string    `db:"program_name" json:"program_name"`
	Week        int       `db:"week" json:"week"`
	PersonID    int64     `db:"person_id" json:"person_id"`
	GroupNumber int       `db:"group_number" json:"group_number"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
