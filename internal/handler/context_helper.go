package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/camp-ops/dashboard-api/internal/middleware"
	"github.com/camp-ops/dashboard-api/internal/models"
	"github.com/camp-ops/dashboard-api/internal/service"
	appErrors "github.com/camp-ops/dashboard-api/pkg/errors"
	"github.com/camp-ops/dashboard-api/pkg/response"
)

// claimsFromContext reads the verified JWT claims the auth middleware
// stored, or nil when the route was reached unauthenticated.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext converts the claims into the service-layer Actor used
// for permission checks and audit attribution.
func actorFromContext(c *gin.Context) (service.Actor, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		return service.Actor{}, false
	}
	return service.Actor{Username: claims.Username, Role: claims.Role}, true
}

// bindJSON decodes the request body into dest and writes a 400 envelope
// on failure, returning false so the handler can bail out.
func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message))
		return false
	}
	return true
}
