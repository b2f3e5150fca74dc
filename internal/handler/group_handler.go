package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/camp-ops/dashboard-api/internal/service"
	appErrors "github.com/camp-ops/dashboard-api/pkg/errors"
	"github.com/camp-ops/dashboard-api/pkg/response"
)

// GroupHandler exposes weekly group assignment endpoints.
type GroupHandler struct {
	service *service.GroupService
}

// NewGroupHandler constructs the handler.
func NewGroupHandler(svc *service.GroupService) *GroupHandler {
	return &GroupHandler{service: svc}
}

type setGroupRequest struct {
	Program  string `json:"program" binding:"required"`
	Week     int    `json:"week" binding:"required"`
	PersonID int64  `json:"person_id" binding:"required"`
	Group    int    `json:"group"`
	// Propagate defaults to true; clients send false to touch one week only.
	Propagate *bool `json:"propagate"`
}

// Set godoc
// @Summary Assign a camper to a group number
// @Description Group 0 clears the assignment. Unless propagate is false, changes (including clears) carry into later enrolled weeks.
// @Tags Groups
// @Accept json
// @Produce json
// @Param payload body setGroupRequest true "Assignment"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /groups [put]
func (h *GroupHandler) Set(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req setGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid group payload"))
		return
	}
	propagate := req.Propagate == nil || *req.Propagate
	if err := h.service.SetGroup(c.Request.Context(), actor, req.Program, req.Week, req.PersonID, req.Group, propagate); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// List godoc
// @Summary List group assignments
// @Tags Groups
// @Produce json
// @Param program query string false "Program filter"
// @Param week query int true "Camp week (1-9)"
// @Success 200 {object} response.Envelope
// @Router /groups [get]
func (h *GroupHandler) List(c *gin.Context) {
	week, err := intQuery(c, "week", 0)
	if err != nil {
		response.Error(c, err)
		return
	}
	program := strings.TrimSpace(c.Query("program"))
	var assignments interface{}
	if program == "" {
		assignments, err = h.service.WeekAssignments(c.Request.Context(), week)
	} else {
		assignments, err = h.service.Assignments(c.Request.Context(), program, week)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}
