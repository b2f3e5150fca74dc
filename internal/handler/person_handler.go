package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/camp-ops/dashboard-api/internal/service"
	appErrors "github.com/camp-ops/dashboard-api/pkg/errors"
	"github.com/camp-ops/dashboard-api/pkg/response"
)

// PersonHandler serves cached person details and the share-group upload.
type PersonHandler struct {
	service *service.PersonService
}

// NewPersonHandler constructs the handler.
func NewPersonHandler(svc *service.PersonService) *PersonHandler {
	return &PersonHandler{service: svc}
}

// Details godoc
// @Summary Person details for a set of IDs
// @Tags Persons
// @Produce json
// @Param ids query string true "Comma-separated person IDs"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /persons [get]
func (h *PersonHandler) Details(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("ids"))
	if raw == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "ids is required"))
		return
	}
	parts := strings.Split(raw, ",")
	if len(parts) > 500 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "too many ids, max 500"))
		return
	}
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil || id <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid person id: "+p))
			return
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "ids is required"))
		return
	}
	details, err := h.service.Details(c.Request.Context(), ids)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, nil)
}

type shareGroupUpload struct {
	Groups map[int64]string `json:"groups" binding:"required"`
}

// SetShareGroups godoc
// @Summary Upload photo share-group assignments
// @Tags Persons
// @Accept json
// @Produce json
// @Param payload body shareGroupUpload true "Person ID to share-group name"
// @Success 204 {object} response.Envelope
// @Router /persons/share-groups [post]
func (h *PersonHandler) SetShareGroups(c *gin.Context) {
	var req shareGroupUpload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid share group payload"))
		return
	}
	if err := h.service.SetShareGroups(req.Groups); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// BACStatus godoc
// @Summary Before/after care sync status
// @Tags Persons
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /persons/bac-status [get]
func (h *PersonHandler) BACStatus(c *gin.Context) {
	syncedAt := h.service.BACSyncedAt()
	data := gin.H{"synced": !syncedAt.IsZero()}
	if !syncedAt.IsZero() {
		data["synced_at"] = syncedAt.Format(time.RFC3339)
	}
	response.JSON(c, http.StatusOK, data, nil)
}
