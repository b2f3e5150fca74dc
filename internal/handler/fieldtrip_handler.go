package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/camp-ops/dashboard-api/internal/service"
	appErrors "github.com/camp-ops/dashboard-api/pkg/errors"
	"github.com/camp-ops/dashboard-api/pkg/response"
)

// FieldTripHandler manages trip venues and weekly group bookings.
type FieldTripHandler struct {
	service *service.FieldTripService
}

// NewFieldTripHandler constructs the handler.
func NewFieldTripHandler(svc *service.FieldTripService) *FieldTripHandler {
	return &FieldTripHandler{service: svc}
}

// Venues godoc
// @Summary List field trip venues
// @Tags FieldTrips
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /field-trips/venues [get]
func (h *FieldTripHandler) Venues(c *gin.Context) {
	venues, err := h.service.Venues(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, venues, nil)
}

type venueRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

// AddVenue godoc
// @Summary Add a field trip venue
// @Tags FieldTrips
// @Accept json
// @Produce json
// @Param payload body venueRequest true "Venue"
// @Success 201 {object} response.Envelope
// @Router /field-trips/venues [post]
func (h *FieldTripHandler) AddVenue(c *gin.Context) {
	var req venueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid venue payload"))
		return
	}
	venue, err := h.service.AddVenue(c.Request.Context(), req.Name, req.Address, req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, venue)
}

// RemoveVenue godoc
// @Summary Remove a field trip venue
// @Tags FieldTrips
// @Produce json
// @Param id path int true "Venue ID"
// @Success 204 {object} response.Envelope
// @Router /field-trips/venues/{id} [delete]
func (h *FieldTripHandler) RemoveVenue(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid venue id"))
		return
	}
	if err := h.service.RemoveVenue(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// WeekSchedule godoc
// @Summary Trip bookings for one camp week
// @Tags FieldTrips
// @Produce json
// @Param week query int true "Camp week (1-9)"
// @Success 200 {object} response.Envelope
// @Router /field-trips [get]
func (h *FieldTripHandler) WeekSchedule(c *gin.Context) {
	week, err := intQuery(c, "week", 0)
	if err != nil {
		response.Error(c, err)
		return
	}
	schedule, err := h.service.WeekSchedule(c.Request.Context(), week)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Book godoc
// @Summary Book or update a group's trip for a week
// @Tags FieldTrips
// @Accept json
// @Produce json
// @Param payload body service.TripBookingRequest true "Booking"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /field-trips [post]
func (h *FieldTripHandler) Book(c *gin.Context) {
	var req service.TripBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking payload"))
		return
	}
	booking, err := h.service.Book(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// Cancel godoc
// @Summary Cancel a trip booking
// @Tags FieldTrips
// @Produce json
// @Param id path int true "Booking ID"
// @Success 204 {object} response.Envelope
// @Router /field-trips/{id} [delete]
func (h *FieldTripHandler) Cancel(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid booking id"))
		return
	}
	if err := h.service.Cancel(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
