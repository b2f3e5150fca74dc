package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/camp-ops/dashboard-api/internal/middleware"
	"github.com/camp-ops/dashboard-api/internal/models"
)

func attendanceTestContext(rec *httptest.ResponseRecorder, target string) *gin.Context {
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{Username: "leader1", Role: models.RoleUnitLeader})
	return c
}

func TestAttendanceHandlerCampersRequiresProgram(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAttendanceHandler(nil, nil, models.NewSeasonCalendar(2026), 17)

	rec := httptest.NewRecorder()
	c := attendanceTestContext(rec, "/attendance/campers?week=2")

	handler.Campers(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceHandlerCampersRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAttendanceHandler(nil, nil, models.NewSeasonCalendar(2026), 17)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/attendance/campers?program=Pioneers&week=2", nil)

	handler.Campers(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAttendanceHandlerDetailRejectsBadID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAttendanceHandler(nil, nil, models.NewSeasonCalendar(2026), 17)

	rec := httptest.NewRecorder()
	c := attendanceTestContext(rec, "/attendance/detail/abc")
	c.Params = gin.Params{{Key: "personID", Value: "abc"}}

	handler.Detail(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceHandlerWeekInfo(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAttendanceHandler(nil, nil, models.NewSeasonCalendar(2026), 17)

	rec := httptest.NewRecorder()
	c := attendanceTestContext(rec, "/attendance/week-info")

	handler.WeekInfo(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, float64(2026), envelope.Data["year"])
	assert.Equal(t, float64(17), envelope.Data["lock_hour"])
	weeks, ok := envelope.Data["weeks"].([]interface{})
	assert.True(t, ok)
	assert.Len(t, weeks, 9)
}

func TestAttendanceHandlerTrendsRejectsBadDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAttendanceHandler(nil, nil, models.NewSeasonCalendar(2026), 17)

	rec := httptest.NewRecorder()
	c := attendanceTestContext(rec, "/attendance/trends?from=June-1")

	handler.Trends(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
