package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/camp-ops/dashboard-api/internal/service"
	appErrors "github.com/camp-ops/dashboard-api/pkg/errors"
	"github.com/camp-ops/dashboard-api/pkg/response"
)

// SettingsHandler manages program goals, global settings and unit-leader
// program assignments.
type SettingsHandler struct {
	service *service.SettingsService
}

// NewSettingsHandler constructs the handler.
func NewSettingsHandler(svc *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{service: svc}
}

// Programs godoc
// @Summary Program settings merged with season defaults
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/programs [get]
func (h *SettingsHandler) Programs(c *gin.Context) {
	settings, err := h.service.ProgramSettings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// SaveProgram godoc
// @Summary Override one program's goal and weeks
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body service.ProgramSettingRequest true "Program setting"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /settings/programs [put]
func (h *SettingsHandler) SaveProgram(c *gin.Context) {
	var req service.ProgramSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid program setting payload"))
		return
	}
	setting, err := h.service.SaveProgramSetting(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, setting, nil)
}

// Globals godoc
// @Summary List global key/value settings
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/global [get]
func (h *SettingsHandler) Globals(c *gin.Context) {
	settings, err := h.service.GlobalSettings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

type globalSettingRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value"`
}

// SetGlobal godoc
// @Summary Set one global key/value setting
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body globalSettingRequest true "Setting"
// @Success 204 {object} response.Envelope
// @Router /settings/global [put]
func (h *SettingsHandler) SetGlobal(c *gin.Context) {
	var req globalSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid setting payload"))
		return
	}
	if err := h.service.SetGlobalSetting(c.Request.Context(), req.Key, req.Value); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Assignments godoc
// @Summary List unit-leader program assignments
// @Tags Settings
// @Produce json
// @Param username query string false "Filter by operator"
// @Success 200 {object} response.Envelope
// @Router /settings/assignments [get]
func (h *SettingsHandler) Assignments(c *gin.Context) {
	username := strings.TrimSpace(c.Query("username"))
	var (
		assignments interface{}
		err         error
	)
	if username == "" {
		assignments, err = h.service.Assignments(c.Request.Context())
	} else {
		assignments, err = h.service.AssignmentsByUsername(c.Request.Context(), username)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

type assignRequest struct {
	Username string `json:"username" binding:"required"`
	Program  string `json:"program" binding:"required"`
}

// Assign godoc
// @Summary Grant a unit leader access to a program
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body assignRequest true "Assignment"
// @Success 201 {object} response.Envelope
// @Router /settings/assignments [post]
func (h *SettingsHandler) Assign(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	assignment, err := h.service.Assign(c.Request.Context(), req.Username, req.Program)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// Unassign godoc
// @Summary Revoke a unit-leader program assignment
// @Tags Settings
// @Produce json
// @Param id path int true "Assignment ID"
// @Success 204 {object} response.Envelope
// @Router /settings/assignments/{id} [delete]
func (h *SettingsHandler) Unassign(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid assignment id"))
		return
	}
	if err := h.service.Unassign(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
