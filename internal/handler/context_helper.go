package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/learning-path-api/internal/middleware"
	"github.com/noah-isme/learning-path-api/internal/models"
)

// claimsFromContext returns the operator claims stored by the JWT middleware,
// or nil on unauthenticated routes.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	if claims, ok := value.(*models.JWTClaims); ok {
		return claims
	}
	return nil
}

// operatorEmail resolves the acting operator for audit fields on uploads.
func operatorEmail(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		return claims.Email
	}
	return ""
}
