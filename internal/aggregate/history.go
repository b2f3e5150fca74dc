package aggregate

import (
	"sort"
	"time"

	"github.com/camp-ops/dashboard-api/internal/models"
)

// EnrollmentMilestones are the cumulative-camper thresholds tracked for
// year-over-year pace comparison.
var EnrollmentMilestones = []int{100, 250, 500, 750, 1000}

// PacePoint is the cumulative position of one season at a calendar cursor.
type PacePoint struct {
	Year              int    `json:"year"`
	Date              string `json:"date"`
	CumulativeCampers int    `json:"cumulative_campers"`
	CumulativeWeeks   int    `json:"cumulative_weeks"`
}

// PaceComparison contrasts the current season against one prior year at
// the same month/day calendar point.
type PaceComparison struct {
	Current     PacePoint `json:"current"`
	Prior       PacePoint `json:"prior"`
	CamperDiff  int       `json:"camper_diff"`
	CamperPct   float64   `json:"camper_pct"`
	WeeksDiff   int       `json:"weeks_diff"`
	WeeksPct    float64   `json:"weeks_pct"`
}

// Milestone records when a season crossed an enrollment threshold.
type Milestone struct {
	Threshold        int    `json:"threshold"`
	Date             string `json:"date,omitempty"`
	DaysFromYearStart int   `json:"days_from_year_start"`
	Reached          bool   `json:"reached"`
}

// WeeklyComparisonPoint aligns seasons by elapsed days from January 1.
type WeeklyComparisonPoint struct {
	DaysFromYearStart int         `json:"days_from_year_start"`
	ByYear            map[int]int `json:"by_year"`
}

// AsOfDate returns the last daily point dated on or before the given
// month/day in the series' own year. The comparison is by calendar point,
// not elapsed days, so leap years line up naturally.
func AsOfDate(year int, series []models.DailyPoint, month time.Month, dayOfMonth int) (models.DailyPoint, bool) {
	target := time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)

	var best models.DailyPoint
	found := false
	for _, point := range series {
		t, err := time.Parse("2006-01-02", point.Date)
		if err != nil {
			continue
		}
		if t.After(target) {
			continue
		}
		if !found || point.Date > best.Date {
			best = point
			found = true
		}
	}
	return best, found
}

// ComparePace projects each prior year's series to the current calendar
// cursor and reports the deltas.
func ComparePace(currentYear int, current []models.DailyPoint, priors map[int][]models.DailyPoint, month time.Month, dayOfMonth int) []PaceComparison {
	currentPoint, ok := AsOfDate(currentYear, current, month, dayOfMonth)
	if !ok {
		return nil
	}

	years := sortedYears(priors)
	out := make([]PaceComparison, 0, len(years))
	for _, year := range years {
		priorPoint, ok := AsOfDate(year, priors[year], month, dayOfMonth)
		if !ok {
			continue
		}

		cmp := PaceComparison{
			Current: PacePoint{
				Year:              currentYear,
				Date:              currentPoint.Date,
				CumulativeCampers: currentPoint.CumulativeCampers,
				CumulativeWeeks:   currentPoint.CumulativeWeeks,
			},
			Prior: PacePoint{
				Year:              year,
				Date:              priorPoint.Date,
				CumulativeCampers: priorPoint.CumulativeCampers,
				CumulativeWeeks:   priorPoint.CumulativeWeeks,
			},
			CamperDiff: currentPoint.CumulativeCampers - priorPoint.CumulativeCampers,
			WeeksDiff:  currentPoint.CumulativeWeeks - priorPoint.CumulativeWeeks,
		}
		if priorPoint.CumulativeCampers > 0 {
			cmp.CamperPct = round1(float64(cmp.CamperDiff) / float64(priorPoint.CumulativeCampers) * 100)
		}
		if priorPoint.CumulativeWeeks > 0 {
			cmp.WeeksPct = round1(float64(cmp.WeeksDiff) / float64(priorPoint.CumulativeWeeks) * 100)
		}
		out = append(out, cmp)
	}
	return out
}

// Milestones reports when the series crossed each tracked threshold.
func Milestones(series []models.DailyPoint) []Milestone {
	out := make([]Milestone, 0, len(EnrollmentMilestones))
	for _, threshold := range EnrollmentMilestones {
		ms := Milestone{Threshold: threshold}
		for _, point := range series {
			if point.CumulativeCampers < threshold {
				continue
			}
			t, err := time.Parse("2006-01-02", point.Date)
			if err != nil {
				continue
			}
			ms.Date = point.Date
			ms.DaysFromYearStart = t.YearDay()
			ms.Reached = true
			break
		}
		out = append(out, ms)
	}
	return out
}

// WeeklyComparison samples every season's cumulative campers at 7-day
// steps of elapsed days from January 1 so seasons chart side by side.
func WeeklyComparison(seriesByYear map[int][]models.DailyPoint) []WeeklyComparisonPoint {
	maxDay := 0
	cumByDay := make(map[int]map[int]int)

	for year, series := range seriesByYear {
		days := make(map[int]int)
		for _, point := range series {
			t, err := time.Parse("2006-01-02", point.Date)
			if err != nil {
				continue
			}
			yd := t.YearDay()
			days[yd] = point.CumulativeCampers
			if yd > maxDay {
				maxDay = yd
			}
		}
		cumByDay[year] = days
	}

	var out []WeeklyComparisonPoint
	for d := 7; d <= maxDay; d += 7 {
		point := WeeklyComparisonPoint{DaysFromYearStart: d, ByYear: make(map[int]int)}
		for year, days := range cumByDay {
			best := 0
			for yd, cum := range days {
				if yd <= d && cum > best {
					best = cum
				}
			}
			point.ByYear[year] = best
		}
		out = append(out, point)
	}
	return out
}

func sortedYears(priors map[int][]models.DailyPoint) []int {
	years := make([]int, 0, len(priors))
	for y := range priors {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}
