package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/camp-ops/dashboard-api/internal/models"
)

func historySnapshot() *models.Snapshot {
	return &models.Snapshot{
		FetchedAt: time.Now(),
		DateStats: models.DateStats{Daily: []models.DailyPoint{
			{Date: "2026-02-01", NewCampers: 40, CumulativeCampers: 40, CumulativeWeeks: 120},
			{Date: "2026-03-01", NewCampers: 80, CumulativeCampers: 120, CumulativeWeeks: 400},
			{Date: "2026-04-01", NewCampers: 60, CumulativeCampers: 180, CumulativeWeeks: 640},
		}},
	}
}

func newHistoryFixture(t *testing.T) *HistoryService {
	t.Helper()
	svc := NewHistoryService(&staticSnapshot{snap: historySnapshot()}, &memoryStore{}, 2026, zap.NewNop())
	require.NoError(t, svc.SavePriorSeason(2025, []models.DailyPoint{
		{Date: "2025-02-15", NewCampers: 50, CumulativeCampers: 50, CumulativeWeeks: 150},
		{Date: "2025-03-20", NewCampers: 50, CumulativeCampers: 100, CumulativeWeeks: 320},
	}))
	return svc
}

func TestHistoryPaceComparesCalendarPoint(t *testing.T) {
	svc := newHistoryFixture(t)

	comparisons, err := svc.Pace(context.Background(), time.March, 25)
	require.NoError(t, err)
	require.Len(t, comparisons, 1)

	cmp := comparisons[0]
	assert.Equal(t, 2026, cmp.Current.Year)
	assert.Equal(t, 120, cmp.Current.CumulativeCampers)
	assert.Equal(t, 2025, cmp.Prior.Year)
	assert.Equal(t, 100, cmp.Prior.CumulativeCampers)
	assert.Equal(t, 20, cmp.CamperDiff)
	assert.Equal(t, 20.0, cmp.CamperPct)
}

func TestHistoryMilestones(t *testing.T) {
	svc := newHistoryFixture(t)

	milestones, err := svc.Milestones(context.Background())
	require.NoError(t, err)

	current := milestones[2026]
	require.NotEmpty(t, current)
	assert.Equal(t, 100, current[0].Threshold)
	assert.True(t, current[0].Reached)
	assert.Equal(t, "2026-03-01", current[0].Date)

	// 250 not reached yet this season.
	assert.False(t, current[1].Reached)
}

func TestHistoryWeeklyIncludesAllSeasons(t *testing.T) {
	svc := newHistoryFixture(t)

	points, err := svc.Weekly(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, points)
	last := points[len(points)-1]
	assert.Contains(t, last.ByYear, 2025)
	assert.Contains(t, last.ByYear, 2026)
}

func TestHistorySavePriorSeasonValidation(t *testing.T) {
	svc := newHistoryFixture(t)
	require.Error(t, svc.SavePriorSeason(0, nil))
}
