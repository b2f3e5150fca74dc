// Package aggregate builds the full-season enrollment snapshot from
// parsed enrollment records. Build is deterministic: the same records and
// settings always produce the same snapshot, and rosters are a pure
// projection of the records with no independent mutation path.
package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/camp-ops/dashboard-api/internal/models"
	"github.com/camp-ops/dashboard-api/internal/parser"
)

// Settings carries the per-program reporting parameters. Operator-edited
// program settings override the season defaults before Build runs.
type Settings struct {
	Goals        map[string]float64
	WeeksOffered map[string]int
	Excluded     map[string]struct{}
}

// DefaultSettings returns a private copy of the season tables, so callers
// can layer stored overrides on top without touching the shared defaults.
func DefaultSettings() Settings {
	goals := make(map[string]float64, len(parser.DefaultGoals))
	for k, v := range parser.DefaultGoals {
		goals[k] = v
	}
	weeks := make(map[string]int, len(parser.DefaultWeeksOffered))
	for k, v := range parser.DefaultWeeksOffered {
		weeks[k] = v
	}
	excluded := make(map[string]struct{}, len(parser.ExcludedFromGoalTotal))
	for k := range parser.ExcludedFromGoalTotal {
		excluded[k] = struct{}{}
	}
	return Settings{Goals: goals, WeeksOffered: weeks, Excluded: excluded}
}

// goalFor falls back to zero goal for unknown programs.
func (s Settings) goalFor(program string) float64 {
	return s.Goals[program]
}

// weeksOfferedFor defaults to the full nine-week season.
func (s Settings) weeksOfferedFor(program string) int {
	if w, ok := s.WeeksOffered[program]; ok && w > 0 {
		return w
	}
	return models.MaxWeek
}

func (s Settings) excluded(program string) bool {
	_, ok := s.Excluded[program]
	return ok
}

// Build produces the season snapshot. Duplicate (person, program, week)
// records collapse to one so week counts always equal roster sizes.
func Build(records []models.EnrollmentRecord, settings Settings, fetchedAt time.Time) *models.Snapshot {
	type key struct {
		person  int64
		program string
		week    int
	}

	seen := make(map[key]struct{}, len(records))
	participants := make(map[string]map[int][]int64)
	allCampers := make(map[int64]struct{})
	totalWeeks := 0

	byDate := make(map[string]*dateBucket)

	for _, rec := range records {
		k := key{rec.PersonID, rec.Program, rec.Week}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}

		weeks, ok := participants[rec.Program]
		if !ok {
			weeks = make(map[int][]int64)
			participants[rec.Program] = weeks
		}
		weeks[rec.Week] = append(weeks[rec.Week], rec.PersonID)

		allCampers[rec.PersonID] = struct{}{}
		totalWeeks++

		if !rec.EnrolledAt.IsZero() {
			dateKey := rec.EnrolledAt.Format("2006-01-02")
			bucket, ok := byDate[dateKey]
			if !ok {
				bucket = &dateBucket{campers: make(map[int64]struct{})}
				byDate[dateKey] = bucket
			}
			bucket.campers[rec.PersonID] = struct{}{}
			bucket.camperWeeks++
		}
	}

	for _, weeks := range participants {
		for _, ids := range weeks {
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		}
	}

	programs := buildProgramStats(participants, settings)
	categories := buildCategoryStats(programs)
	summary := buildSummary(programs, settings, len(allCampers), totalWeeks)

	return &models.Snapshot{
		FetchedAt:    fetchedAt,
		Programs:     programs,
		Participants: participants,
		Categories:   categories,
		Summary:      summary,
		DateStats:    buildDateStats(byDate),
	}
}

func buildProgramStats(participants map[string]map[int][]int64, settings Settings) []models.ProgramStats {
	programs := make([]models.ProgramStats, 0, len(participants))
	for name, weeks := range participants {
		counts := make(map[int]int, len(weeks))
		total := 0
		for w, ids := range weeks {
			counts[w] = len(ids)
			total += len(ids)
		}

		offered := settings.weeksOfferedFor(name)
		fte := round2(float64(total) / float64(offered))
		goal := settings.goalFor(name)
		percent := 0.0
		if goal > 0 {
			percent = round1(fte / goal * 100)
		}

		programs = append(programs, models.ProgramStats{
			Name:          name,
			Category:      parser.CategoryFor(name),
			WeekCounts:    counts,
			TotalWeeks:    total,
			WeeksOffered:  offered,
			FTE:           fte,
			Goal:          goal,
			PercentToGoal: percent,
		})
	}

	catIndex := make(map[string]int, len(parser.CategoryOrder))
	for i, c := range parser.CategoryOrder {
		catIndex[c] = i
	}
	progIndex := make(map[string]int, len(parser.ProgramOrder))
	for i, p := range parser.ProgramOrder {
		progIndex[p] = i
	}

	sort.Slice(programs, func(i, j int) bool {
		ci, cj := orderOf(catIndex, programs[i].Category), orderOf(catIndex, programs[j].Category)
		if ci != cj {
			return ci < cj
		}
		pi, pj := orderOf(progIndex, programs[i].Name), orderOf(progIndex, programs[j].Name)
		if pi != pj {
			return pi < pj
		}
		return programs[i].Name < programs[j].Name
	})

	return programs
}

func orderOf(index map[string]int, name string) int {
	if i, ok := index[name]; ok {
		return i
	}
	return len(index) + 1
}

func buildCategoryStats(programs []models.ProgramStats) []models.CategoryStats {
	byCat := make(map[string]*models.CategoryStats)
	for _, p := range programs {
		cat, ok := byCat[p.Category]
		if !ok {
			cat = &models.CategoryStats{Name: p.Category}
			byCat[p.Category] = cat
		}
		cat.FTE = round1(cat.FTE + p.FTE)
		cat.Goal += p.Goal
	}

	var out []models.CategoryStats
	for _, name := range parser.CategoryOrder {
		cat, ok := byCat[name]
		if !ok {
			continue
		}
		if cat.Goal > 0 {
			cat.PercentToGoal = round1(cat.FTE / cat.Goal * 100)
		}
		switch {
		case cat.PercentToGoal >= 70:
			cat.Status = models.CategoryStatusOnTrack
		case cat.PercentToGoal >= 50:
			cat.Status = models.CategoryStatusWatch
		default:
			cat.Status = models.CategoryStatusBehind
		}
		out = append(out, *cat)
	}
	return out
}

func buildSummary(programs []models.ProgramStats, settings Settings, campers, camperWeeks int) models.SummaryStats {
	totalGoal := 0.0
	for program, goal := range settings.Goals {
		if goal > 0 && !settings.excluded(program) {
			totalGoal += goal
		}
	}

	totalFTE := 0.0
	for _, p := range programs {
		if !settings.excluded(p.Name) {
			totalFTE += p.FTE
		}
	}
	totalFTE = round1(totalFTE)

	percent := 0.0
	if totalGoal > 0 {
		percent = round1(totalFTE / totalGoal * 100)
	}

	return models.SummaryStats{
		TotalCampers:      campers,
		TotalCamperWeeks:  camperWeeks,
		TotalFTE:          totalFTE,
		TotalGoal:         totalGoal,
		PercentToGoal:     percent,
		ProgramsReporting: len(programs),
	}
}

type dateBucket struct {
	campers     map[int64]struct{}
	camperWeeks int
}

func buildDateStats(byDate map[string]*dateBucket) models.DateStats {
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	cumulative := make(map[int64]struct{})
	cumulativeWeeks := 0
	daily := make([]models.DailyPoint, 0, len(dates))

	weekly := make(map[string]int)
	monthly := make(map[string]int)

	for _, d := range dates {
		bucket := byDate[d]
		for id := range bucket.campers {
			cumulative[id] = struct{}{}
		}
		cumulativeWeeks += bucket.camperWeeks

		daily = append(daily, models.DailyPoint{
			Date:              d,
			NewCampers:        len(bucket.campers),
			CumulativeCampers: len(cumulative),
			CumulativeWeeks:   cumulativeWeeks,
		})

		if t, err := time.Parse("2006-01-02", d); err == nil {
			monday := t.AddDate(0, 0, -mondayOffset(t.Weekday()))
			weekly[monday.Format("2006-01-02")] += len(bucket.campers)
			monthly[d[:7]] += len(bucket.campers)
		}
	}

	return models.DateStats{
		Daily:   daily,
		Weekly:  periodPoints(weekly),
		Monthly: periodPoints(monthly),
	}
}

func mondayOffset(d time.Weekday) int {
	if d == time.Sunday {
		return 6
	}
	return int(d) - 1
}

func periodPoints(byPeriod map[string]int) []models.PeriodPoint {
	keys := make([]string, 0, len(byPeriod))
	for k := range byPeriod {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]models.PeriodPoint, 0, len(keys))
	for _, k := range keys {
		out = append(out, models.PeriodPoint{Period: k, NewCampers: byPeriod[k]})
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
