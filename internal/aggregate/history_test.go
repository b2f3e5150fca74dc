package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camp-ops/dashboard-api/internal/models"
)

func series(points ...models.DailyPoint) []models.DailyPoint {
	return points
}

func TestAsOfDatePicksClosestEarlierPoint(t *testing.T) {
	s := series(
		models.DailyPoint{Date: "2025-02-01", CumulativeCampers: 50, CumulativeWeeks: 120},
		models.DailyPoint{Date: "2025-03-10", CumulativeCampers: 200, CumulativeWeeks: 510},
		models.DailyPoint{Date: "2025-04-01", CumulativeCampers: 320, CumulativeWeeks: 800},
	)

	point, ok := AsOfDate(2025, s, time.March, 15)
	require.True(t, ok)
	assert.Equal(t, "2025-03-10", point.Date)
	assert.Equal(t, 200, point.CumulativeCampers)

	_, ok = AsOfDate(2025, s, time.January, 15)
	assert.False(t, ok)
}

func TestComparePace(t *testing.T) {
	current := series(
		models.DailyPoint{Date: "2026-03-01", CumulativeCampers: 300, CumulativeWeeks: 900},
	)
	priors := map[int][]models.DailyPoint{
		2025: series(models.DailyPoint{Date: "2025-02-28", CumulativeCampers: 250, CumulativeWeeks: 750}),
		2024: series(models.DailyPoint{Date: "2024-03-01", CumulativeCampers: 200, CumulativeWeeks: 500}),
	}

	cmps := ComparePace(2026, current, priors, time.March, 1)
	require.Len(t, cmps, 2)

	assert.Equal(t, 2025, cmps[0].Prior.Year)
	assert.Equal(t, 50, cmps[0].CamperDiff)
	assert.InDelta(t, 20.0, cmps[0].CamperPct, 0.001)

	assert.Equal(t, 2024, cmps[1].Prior.Year)
	assert.Equal(t, 100, cmps[1].CamperDiff)
	assert.InDelta(t, 50.0, cmps[1].CamperPct, 0.001)
}

func TestMilestones(t *testing.T) {
	s := series(
		models.DailyPoint{Date: "2026-01-20", CumulativeCampers: 80},
		models.DailyPoint{Date: "2026-02-05", CumulativeCampers: 120},
		models.DailyPoint{Date: "2026-03-15", CumulativeCampers: 300},
	)

	milestones := Milestones(s)
	require.Len(t, milestones, len(EnrollmentMilestones))

	assert.True(t, milestones[0].Reached)
	assert.Equal(t, "2026-02-05", milestones[0].Date)
	assert.Equal(t, 36, milestones[0].DaysFromYearStart)

	assert.True(t, milestones[1].Reached)
	assert.Equal(t, "2026-03-15", milestones[1].Date)

	assert.False(t, milestones[2].Reached)
	assert.Empty(t, milestones[2].Date)
}

func TestWeeklyComparisonAlignsByYearDay(t *testing.T) {
	byYear := map[int][]models.DailyPoint{
		2026: series(
			models.DailyPoint{Date: "2026-01-05", CumulativeCampers: 10},
			models.DailyPoint{Date: "2026-01-12", CumulativeCampers: 40},
		),
		2025: series(
			models.DailyPoint{Date: "2025-01-06", CumulativeCampers: 5},
			models.DailyPoint{Date: "2025-01-13", CumulativeCampers: 25},
		),
	}

	points := WeeklyComparison(byYear)
	require.Len(t, points, 1)

	assert.Equal(t, 7, points[0].DaysFromYearStart)
	assert.Equal(t, 10, points[0].ByYear[2026])
	assert.Equal(t, 5, points[0].ByYear[2025])
}
