package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camp-ops/dashboard-api/internal/models"
)

func rec(t *testing.T, person int64, program string, week int, enrolledAt time.Time) models.EnrollmentRecord {
	t.Helper()
	r, err := models.NewEnrollmentRecord(person, program, week, enrolledAt, models.EnrollmentStatusEnrolled)
	require.NoError(t, err)
	return r
}

func TestBuildIsDeterministic(t *testing.T) {
	enrolled := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	records := []models.EnrollmentRecord{
		rec(t, 3, "Basketball", 2, enrolled),
		rec(t, 1, "Basketball", 2, enrolled),
		rec(t, 2, "Soccer", 1, enrolled),
		rec(t, 1, "Basketball", 3, enrolled),
	}

	fetched := time.Now()
	a := Build(records, DefaultSettings(), fetched)
	b := Build(records, DefaultSettings(), fetched)

	assert.Equal(t, a.Participants, b.Participants)
	assert.Equal(t, a.Programs, b.Programs)
	assert.Equal(t, a.Summary, b.Summary)
	assert.Equal(t, []int64{1, 3}, a.Roster("Basketball", 2))
}

func TestBuildDeduplicatesRecords(t *testing.T) {
	enrolled := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	records := []models.EnrollmentRecord{
		rec(t, 123, "Basketball", 2, enrolled),
		rec(t, 123, "Basketball", 2, enrolled),
	}

	snap := Build(records, DefaultSettings(), time.Now())
	assert.Equal(t, []int64{123}, snap.Roster("Basketball", 2))
	require.Len(t, snap.Programs, 1)
	assert.Equal(t, 1, snap.Programs[0].TotalWeeks)
}

func TestBuildFTEAndGoal(t *testing.T) {
	enrolled := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	records := []models.EnrollmentRecord{
		rec(t, 123, "Basketball", 2, enrolled),
		rec(t, 123, "Basketball", 3, enrolled),
	}

	snap := Build(records, DefaultSettings(), time.Now())
	require.Len(t, snap.Programs, 1)

	basketball := snap.Programs[0]
	assert.Equal(t, "Basketball", basketball.Name)
	assert.Equal(t, "Sports Camps", basketball.Category)
	assert.Equal(t, 2, basketball.TotalWeeks)
	assert.Equal(t, 9, basketball.WeeksOffered)
	assert.InDelta(t, 0.22, basketball.FTE, 0.001)
	assert.Equal(t, float64(20), basketball.Goal)
}

func TestBuildRosterProjection(t *testing.T) {
	enrolled := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	records := []models.EnrollmentRecord{
		rec(t, 123, "Basketball", 2, enrolled),
		rec(t, 123, "Basketball", 3, enrolled),
	}

	snap := Build(records, DefaultSettings(), time.Now())
	assert.Equal(t, []int64{123}, snap.Roster("Basketball", 2))
	assert.Equal(t, []int64{123}, snap.Roster("Basketball", 3))
	assert.Empty(t, snap.Roster("Basketball", 4))
	assert.Equal(t, []int{2, 3}, snap.EnrolledWeeks("Basketball", 123))
}

func TestBuildCategoryStatus(t *testing.T) {
	enrolled := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	settings := Settings{
		Goals:        map[string]float64{"Basketball": 1},
		WeeksOffered: map[string]int{"Basketball": 9},
	}

	var records []models.EnrollmentRecord
	for id := int64(1); id <= 9; id++ {
		records = append(records, rec(t, id, "Basketball", 1, enrolled))
	}

	snap := Build(records, settings, time.Now())
	require.Len(t, snap.Categories, 1)
	// 9 camper-weeks over 9 offered weeks = 1.0 FTE against a goal of 1.
	assert.Equal(t, models.CategoryStatusOnTrack, snap.Categories[0].Status)
}

func TestBuildSummaryExcludesConfiguredPrograms(t *testing.T) {
	enrolled := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	records := []models.EnrollmentRecord{
		rec(t, 1, "Basketball", 1, enrolled),
		rec(t, 2, "MMA Camp", 1, enrolled),
	}

	snap := Build(records, DefaultSettings(), time.Now())
	assert.Equal(t, 2, snap.Summary.TotalCampers)
	assert.Equal(t, 2, snap.Summary.TotalCamperWeeks)
	// MMA Camp FTE stays out of the goal-facing total.
	assert.InDelta(t, 0.1, snap.Summary.TotalFTE, 0.001)
}

func TestBuildDateStats(t *testing.T) {
	d1 := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	records := []models.EnrollmentRecord{
		rec(t, 1, "Basketball", 1, d1),
		rec(t, 1, "Basketball", 2, d1),
		rec(t, 2, "Soccer", 1, d2),
	}

	snap := Build(records, DefaultSettings(), time.Now())
	require.Len(t, snap.DateStats.Daily, 2)

	first := snap.DateStats.Daily[0]
	assert.Equal(t, "2026-02-02", first.Date)
	assert.Equal(t, 1, first.NewCampers)
	assert.Equal(t, 1, first.CumulativeCampers)
	assert.Equal(t, 2, first.CumulativeWeeks)

	second := snap.DateStats.Daily[1]
	assert.Equal(t, 2, second.CumulativeCampers)
	assert.Equal(t, 3, second.CumulativeWeeks)

	// Feb 2 2026 is a Monday; both dates fall in the same week bucket.
	require.Len(t, snap.DateStats.Weekly, 1)
	assert.Equal(t, "2026-02-02", snap.DateStats.Weekly[0].Period)
	require.Len(t, snap.DateStats.Monthly, 1)
	assert.Equal(t, "2026-02", snap.DateStats.Monthly[0].Period)
}

func TestBuildEmptyInput(t *testing.T) {
	snap := Build(nil, DefaultSettings(), time.Now())
	assert.Empty(t, snap.Programs)
	assert.Empty(t, snap.Participants)
	assert.Equal(t, 0, snap.Summary.TotalCampers)
}
