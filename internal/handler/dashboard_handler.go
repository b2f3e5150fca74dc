package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/camp-ops/dashboard-api/internal/aggregate"
	"github.com/camp-ops/dashboard-api/internal/middleware"
	"github.com/camp-ops/dashboard-api/internal/models"
	appErrors "github.com/camp-ops/dashboard-api/pkg/errors"
	"github.com/camp-ops/dashboard-api/pkg/response"
)

type snapshotService interface {
	Get(ctx context.Context, forceRefresh bool) (*models.Snapshot, error)
	RefreshAsync() error
}

type historyService interface {
	Pace(ctx context.Context, month time.Month, day int) ([]aggregate.PaceComparison, error)
	Milestones(ctx context.Context) (map[int][]aggregate.Milestone, error)
	Weekly(ctx context.Context) ([]aggregate.WeeklyComparisonPoint, error)
}

// DashboardHandler serves the enrollment snapshot and season history.
type DashboardHandler struct {
	snapshots snapshotService
	history   historyService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(snapshots snapshotService, history historyService) *DashboardHandler {
	return &DashboardHandler{snapshots: snapshots, history: history}
}

// Get godoc
// @Summary Enrollment dashboard snapshot
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	if h.snapshots == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	snap, err := h.snapshots.Get(c.Request.Context(), false)
	if err != nil {
		response.Error(c, err)
		return
	}
	// A snapshot fetched before the request started came from cache.
	middleware.SetCacheHit(c, snap.FetchedAt.Before(start))
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	meta["fetched_at"] = snap.FetchedAt.Format(time.RFC3339)
	response.JSON(c, http.StatusOK, snap, nil, meta)
}

// Refresh godoc
// @Summary Queue a snapshot rebuild
// @Description Enqueues a background refresh and returns immediately
// @Tags Dashboard
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /dashboard/refresh [get]
func (h *DashboardHandler) Refresh(c *gin.Context) {
	if err := h.snapshots.RefreshAsync(); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"status": "refresh queued"}, nil)
}

// Pace godoc
// @Summary Season-over-season enrollment pace
// @Tags Dashboard
// @Produce json
// @Param month query int false "Calendar month (1-12), defaults to today"
// @Param day query int false "Day of month, defaults to today"
// @Success 200 {object} response.Envelope
// @Router /dashboard/history/pace [get]
func (h *DashboardHandler) Pace(c *gin.Context) {
	month, err := intQuery(c, "month", 0)
	if err != nil {
		response.Error(c, err)
		return
	}
	day, err := intQuery(c, "day", 0)
	if err != nil {
		response.Error(c, err)
		return
	}
	if month < 0 || month > 12 || day < 0 || day > 31 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "month or day out of range"))
		return
	}
	comparisons, err := h.history.Pace(c.Request.Context(), time.Month(month), day)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comparisons, nil)
}

// Milestones godoc
// @Summary Enrollment milestone dates per season
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/history/milestones [get]
func (h *DashboardHandler) Milestones(c *gin.Context) {
	milestones, err := h.history.Milestones(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, milestones, nil)
}

// Weekly godoc
// @Summary Season-over-season cumulative series
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/history/weekly [get]
func (h *DashboardHandler) Weekly(c *gin.Context) {
	points, err := h.history.Weekly(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, points, nil)
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name)
	}
	return v, nil
}
