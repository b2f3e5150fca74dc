package models

import (
	"fmt"
	"time"
)

// EnrollmentStatus distinguishes confirmed enrollments from applications.
type EnrollmentStatus string

const (
	EnrollmentStatusEnrolled EnrollmentStatus = "enrolled"
	EnrollmentStatusApplied  EnrollmentStatus = "applied"
)

// MinWeek and MaxWeek bound the operational season.
const (
	MinWeek = 1
	MaxWeek = 9
)

// EnrollmentRecord is one camper enrolled in one program for one week.
// Records are derived wholesale from the upstream session descriptors and
// never patched individually.
type EnrollmentRecord struct {
	PersonID   int64            `json:"person_id"`
	Program    string           `json:"program"`
	Week       int              `json:"week"`
	EnrolledAt time.Time        `json:"enrolled_at"`
	Status     EnrollmentStatus `json:"status"`
}

// NewEnrollmentRecord validates invariants at construction time.
func NewEnrollmentRecord(personID int64, program string, week int, enrolledAt time.Time, status EnrollmentStatus) (EnrollmentRecord, error) {
	if program == "" {
		return EnrollmentRecord{}, fmt.Errorf("enrollment record: empty program name")
	}
	if week < MinWeek || week > MaxWeek {
		return EnrollmentRecord{}, fmt.Errorf("enrollment record: week %d out of range", week)
	}
	if status == "" {
		status = EnrollmentStatusEnrolled
	}
	return EnrollmentRecord{
		PersonID:   personID,
		Program:    program,
		Week:       week,
		EnrolledAt: enrolledAt,
		Status:     status,
	}, nil
}
