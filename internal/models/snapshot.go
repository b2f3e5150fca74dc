package models

import "time"

// ProgramStats summarises one program's season enrollment.
type ProgramStats struct {
	Name          string      `json:"name"`
	Category      string      `json:"category"`
	WeekCounts    map[int]int `json:"week_counts"`
	TotalWeeks    int         `json:"total_weeks"`
	WeeksOffered  int         `json:"weeks_offered"`
	FTE           float64     `json:"fte"`
	Goal          float64     `json:"goal"`
	PercentToGoal float64     `json:"percent_to_goal"`
}

// CategoryStats rolls program stats up into a reporting category.
type CategoryStats struct {
	Name          string  `json:"name"`
	Goal          float64 `json:"goal"`
	FTE           float64 `json:"fte"`
	PercentToGoal float64 `json:"percent_to_goal"`
	Status        string  `json:"status"`
}

// Category attainment statuses.
const (
	CategoryStatusOnTrack = "on_track"
	CategoryStatusWatch   = "watch"
	CategoryStatusBehind  = "behind"
)

// SummaryStats aggregates the whole season.
type SummaryStats struct {
	TotalCampers      int     `json:"total_campers"`
	TotalCamperWeeks  int     `json:"total_camper_weeks"`
	TotalFTE          float64 `json:"total_fte"`
	TotalGoal         float64 `json:"total_goal"`
	PercentToGoal     float64 `json:"percent_to_goal"`
	ProgramsReporting int     `json:"programs_reporting"`
}

// DailyPoint is one entry in the date-indexed enrollment timeline.
type DailyPoint struct {
	Date              string `json:"date"`
	NewCampers        int    `json:"new_campers"`
	CumulativeCampers int    `json:"cumulative_campers"`
	CumulativeWeeks   int    `json:"cumulative_weeks"`
}

// PeriodPoint aggregates the timeline by week or month.
type PeriodPoint struct {
	Period     string `json:"period"`
	NewCampers int    `json:"new_campers"`
}

// DateStats carries the pace-tracking series.
type DateStats struct {
	Daily   []DailyPoint  `json:"daily"`
	Weekly  []PeriodPoint `json:"weekly"`
	Monthly []PeriodPoint `json:"monthly"`
}

// Snapshot is the full-season aggregate built from all enrollment records.
// Participants maps program -> week -> camper ids, ordered ascending.
type Snapshot struct {
	FetchedAt    time.Time                 `json:"fetched_at"`
	Programs     []ProgramStats            `json:"programs"`
	Participants map[string]map[int][]int64 `json:"participants"`
	Categories   []CategoryStats           `json:"categories"`
	Summary      SummaryStats              `json:"summary"`
	DateStats    DateStats                 `json:"date_stats"`
}

// Roster returns the camper ids enrolled in program for week.
func (s *Snapshot) Roster(program string, week int) []int64 {
	if s == nil || s.Participants == nil {
		return nil
	}
	weeks, ok := s.Participants[program]
	if !ok {
		return nil
	}
	return weeks[week]
}

// EnrolledWeeks returns the weeks a camper is enrolled in program, ascending.
func (s *Snapshot) EnrolledWeeks(program string, personID int64) []int {
	if s == nil || s.Participants == nil {
		return nil
	}
	var weeks []int
	for w := MinWeek; w <= MaxWeek; w++ {
		for _, id := range s.Participants[program][w] {
			if id == personID {
				weeks = append(weeks, w)
				break
			}
		}
	}
	return weeks
}
