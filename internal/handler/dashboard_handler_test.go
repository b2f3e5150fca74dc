package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/camp-ops/dashboard-api/internal/aggregate"
	"github.com/camp-ops/dashboard-api/internal/models"
)

type fakeSnapshotSrv struct {
	snap       *models.Snapshot
	err        error
	refreshed  bool
	refreshErr error
}

func (f *fakeSnapshotSrv) Get(context.Context, bool) (*models.Snapshot, error) {
	return f.snap, f.err
}

func (f *fakeSnapshotSrv) RefreshAsync() error {
	f.refreshed = true
	return f.refreshErr
}

type fakeHistorySrv struct {
	pace       []aggregate.PaceComparison
	milestones map[int][]aggregate.Milestone
	weekly     []aggregate.WeeklyComparisonPoint
	err        error

	lastMonth time.Month
	lastDay   int
}

func (f *fakeHistorySrv) Pace(_ context.Context, month time.Month, day int) ([]aggregate.PaceComparison, error) {
	f.lastMonth, f.lastDay = month, day
	return f.pace, f.err
}

func (f *fakeHistorySrv) Milestones(context.Context) (map[int][]aggregate.Milestone, error) {
	return f.milestones, f.err
}

func (f *fakeHistorySrv) Weekly(context.Context) ([]aggregate.WeeklyComparisonPoint, error) {
	return f.weekly, f.err
}

func TestDashboardHandlerGetCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	snapshots := &fakeSnapshotSrv{snap: &models.Snapshot{
		FetchedAt: time.Now().Add(-time.Minute),
		Summary:   models.SummaryStats{TotalCampers: 412},
	}}
	handler := NewDashboardHandler(snapshots, &fakeHistorySrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	handler.Get(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	summary, ok := envelope.Data["summary"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, float64(412), summary["total_campers"])
}

func TestDashboardHandlerRefreshQueues(t *testing.T) {
	gin.SetMode(gin.TestMode)
	snapshots := &fakeSnapshotSrv{}
	handler := NewDashboardHandler(snapshots, &fakeHistorySrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/refresh", nil)

	handler.Refresh(c)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, snapshots.refreshed)
}

func TestDashboardHandlerPaceForwardsCalendarPoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	history := &fakeHistorySrv{}
	handler := NewDashboardHandler(&fakeSnapshotSrv{}, history)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/history/pace?month=3&day=25", nil)

	handler.Pace(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.March, history.lastMonth)
	assert.Equal(t, 25, history.lastDay)
}

func TestDashboardHandlerPaceRejectsBadMonth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeSnapshotSrv{}, &fakeHistorySrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/history/pace?month=13", nil)

	handler.Pace(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type responseEnvelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}
