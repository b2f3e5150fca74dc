package handler

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/camp-ops/dashboard-api/internal/service"
	appErrors "github.com/camp-ops/dashboard-api/pkg/errors"
	"github.com/camp-ops/dashboard-api/pkg/response"
)

// ExportHandler generates report files and serves signed downloads.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Generate returns a handler that renders one report type in one format.
// Roster exports take program and week from the query string.
func (h *ExportHandler) Generate(exportType, format string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFromContext(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		week, err := intQuery(c, "week", 0)
		if err != nil {
			response.Error(c, err)
			return
		}
		date, err := dateQuery(c, "date", time.Time{})
		if err != nil {
			response.Error(c, err)
			return
		}
		result, err := h.service.Generate(c.Request.Context(), actor, service.ExportRequest{
			Type:    exportType,
			Format:  format,
			Program: strings.TrimSpace(c.Query("program")),
			Week:    week,
			Date:    date,
		})
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, gin.H{
			"url":        result.URL,
			"format":     result.Format,
			"expires_at": result.ExpiresAt.Format(time.RFC3339),
		}, nil)
	}
}

// Download godoc
// @Summary Download a generated report by signed token
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Param("token")
	_, relPath, _, err := h.service.ParseToken(token, false)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, http.StatusUnauthorized, "invalid or expired download token"))
		return
	}
	file, err := h.service.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export no longer available"))
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	name := filepath.Base(relPath)
	contentType := "application/octet-stream"
	switch filepath.Ext(name) {
	case ".csv":
		contentType = "text/csv"
	case ".pdf":
		contentType = "application/pdf"
	}
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, map[string]string{
		"Content-Disposition": `attachment; filename="` + name + `"`,
	})
}
