package models

import "time"

// Guardian is a parent or other contact linked to a camper.
type Guardian struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// PersonDetail is the enriched biographical record for one camper,
// resolved lazily from the upstream API and cached.
type PersonDetail struct {
	ID             int64      `json:"id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Grade          string     `json:"grade,omitempty"`
	DateOfBirth    *time.Time `json:"date_of_birth,omitempty"`
	Guardians      []Guardian `json:"guardians,omitempty"`
	SiblingIDs     []int64    `json:"sibling_ids,omitempty"`
	BACWeeks       []int      `json:"bac_weeks,omitempty"`
	ShareGroupWith string     `json:"share_group_with,omitempty"`
	MedicalNotes   string     `json:"medical_notes,omitempty"`
	// Placeholder marks an id the upstream could not resolve; kept so the
	// same id is not refetched on every request.
	Placeholder bool `json:"placeholder,omitempty"`

	FetchedAt time.Time `json:"fetched_at"`
}

// FullName joins first and last name for display.
func (p PersonDetail) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}

// HasBACWeek reports whether the camper holds before/after-care for week.
func (p PersonDetail) HasBACWeek(week int) bool {
	for _, w := range p.BACWeeks {
		if w == week {
			return true
		}
	}
	return false
}

// SiblingRef names a camper's youngest enrolled sibling for display.
type SiblingRef struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Program string `json:"program"`
}
