package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/camp-ops/dashboard-api/internal/models"
	"github.com/camp-ops/dashboard-api/internal/service"
	appErrors "github.com/camp-ops/dashboard-api/pkg/errors"
	"github.com/camp-ops/dashboard-api/pkg/response"
)

// AttendanceHandler exposes roster, marking, summary and trend endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
	persons    *service.PersonService
	calendar   models.SeasonCalendar
	lockHour   int
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(attendance *service.AttendanceService, persons *service.PersonService, calendar models.SeasonCalendar, lockHour int) *AttendanceHandler {
	if lockHour <= 0 || lockHour > 23 {
		lockHour = 17
	}
	return &AttendanceHandler{attendance: attendance, persons: persons, calendar: calendar, lockHour: lockHour}
}

func dateQuery(c *gin.Context, name string, def time.Time) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid "+name+", expected YYYY-MM-DD")
	}
	return parsed, nil
}

// Campers godoc
// @Summary Program roster for one week
// @Tags Attendance
// @Produce json
// @Param program query string true "Program name"
// @Param week query int true "Camp week (1-9)"
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /attendance/campers [get]
func (h *AttendanceHandler) Campers(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	program := strings.TrimSpace(c.Query("program"))
	if program == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "program is required"))
		return
	}
	week, err := intQuery(c, "week", 0)
	if err != nil {
		response.Error(c, err)
		return
	}
	date, err := dateQuery(c, "date", time.Now())
	if err != nil {
		response.Error(c, err)
		return
	}
	roster, err := h.attendance.Roster(c.Request.Context(), actor, program, week, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// KidConnection godoc
// @Summary Before/after care roster for one day
// @Description Splits campers holding care for the week into early-childhood programs and everyone else, with marks for the care checkpoints only.
// @Tags Attendance
// @Produce json
// @Param week query int true "Camp week (1-9)"
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /attendance/kc [get]
func (h *AttendanceHandler) KidConnection(c *gin.Context) {
	if _, ok := actorFromContext(c); !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	week, err := intQuery(c, "week", 0)
	if err != nil {
		response.Error(c, err)
		return
	}
	date, err := dateQuery(c, "date", time.Now())
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.attendance.KidConnectionView(c.Request.Context(), week, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Record godoc
// @Summary Mark one camper at one checkpoint
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.MarkRequest true "Mark payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 423 {object} response.Envelope
// @Router /attendance/records [post]
func (h *AttendanceHandler) Record(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.MarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mark payload"))
		return
	}
	if err := h.attendance.Record(c.Request.Context(), actor, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RecordBatch godoc
// @Summary Mark many campers in one call
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body []service.MarkRequest true "Marks"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance/records/batch [post]
func (h *AttendanceHandler) RecordBatch(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var reqs []service.MarkRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid batch payload"))
		return
	}
	if err := h.attendance.RecordBatch(c.Request.Context(), actor, reqs); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Summary godoc
// @Summary Attendance summary across programs for one day
// @Tags Attendance
// @Produce json
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /attendance/summary [get]
func (h *AttendanceHandler) Summary(c *gin.Context) {
	date, err := dateQuery(c, "date", time.Now())
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.attendance.Summary(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Trends godoc
// @Summary Daily attendance rate over a date range
// @Tags Attendance
// @Produce json
// @Param program query string false "Program filter"
// @Param from query string false "Range start (YYYY-MM-DD)"
// @Param to query string false "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance/trends [get]
func (h *AttendanceHandler) Trends(c *gin.Context) {
	from, err := dateQuery(c, "from", time.Time{})
	if err != nil {
		response.Error(c, err)
		return
	}
	to, err := dateQuery(c, "to", time.Time{})
	if err != nil {
		response.Error(c, err)
		return
	}
	points, err := h.attendance.Trend(c.Request.Context(), strings.TrimSpace(c.Query("program")), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, points, nil)
}

// Detail godoc
// @Summary Full attendance history for one camper
// @Tags Attendance
// @Produce json
// @Param personID path int true "Person ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/detail/{personID} [get]
func (h *AttendanceHandler) Detail(c *gin.Context) {
	personID, err := strconv.ParseInt(c.Param("personID"), 10, 64)
	if err != nil || personID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid person id"))
		return
	}
	records, err := h.attendance.PersonHistory(c.Request.Context(), personID)
	if err != nil {
		response.Error(c, err)
		return
	}
	person, err := h.persons.Detail(c.Request.Context(), personID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"person": person, "records": records}, nil)
}

// WeekInfo godoc
// @Summary Season calendar and current week
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance/week-info [get]
func (h *AttendanceHandler) WeekInfo(c *gin.Context) {
	now := time.Now()
	response.JSON(c, http.StatusOK, gin.H{
		"year":         h.calendar.Year,
		"weeks":        h.calendar.Weeks,
		"current_week": h.calendar.CurrentWeek(now),
		"is_camp_day":  h.calendar.IsCampDay(now),
		"lock_hour":    h.lockHour,
	}, nil)
}

// SyncBAC godoc
// @Summary Force a before/after care resync
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance/sync-bac [post]
func (h *AttendanceHandler) SyncBAC(c *gin.Context) {
	if err := h.persons.SyncBAC(c.Request.Context(), true); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"synced_at": h.persons.BACSyncedAt().Format(time.RFC3339)}, nil)
}

// Checkpoints godoc
// @Summary List active attendance checkpoints
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance/checkpoints [get]
func (h *AttendanceHandler) Checkpoints(c *gin.Context) {
	checkpoints, err := h.attendance.Checkpoints(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, checkpoints, nil)
}

type checkpointRequest struct {
	Name      string `json:"name" binding:"required"`
	TimeLabel string `json:"time_label"`
}

// AddCheckpoint godoc
// @Summary Add an attendance checkpoint
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body checkpointRequest true "Checkpoint"
// @Success 201 {object} response.Envelope
// @Router /attendance/checkpoints [put]
func (h *AttendanceHandler) AddCheckpoint(c *gin.Context) {
	var req checkpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid checkpoint payload"))
		return
	}
	cp, err := h.attendance.AddCheckpoint(c.Request.Context(), req.Name, req.TimeLabel)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cp)
}

// RemoveCheckpoint godoc
// @Summary Deactivate an attendance checkpoint
// @Tags Attendance
// @Produce json
// @Param id path int true "Checkpoint ID"
// @Success 204 {object} response.Envelope
// @Router /attendance/checkpoints/{id} [delete]
func (h *AttendanceHandler) RemoveCheckpoint(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid checkpoint id"))
		return
	}
	if err := h.attendance.RemoveCheckpoint(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
