package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/learning-path-api/internal/service"
	appErrors "github.com/noah-isme/learning-path-api/pkg/errors"
	"github.com/noah-isme/learning-path-api/pkg/response"
)

// ContextUserKey is the gin context key storing the operator's JWT claims.
const ContextUserKey = "currentUser"

// JWT guards routes behind a valid Bearer access token. Validated claims are
// stored on the context under ContextUserKey.
func JWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abortUnauthorized(c, err)
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", appErrors.ErrUnauthorized
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}
	return token, nil
}

func abortUnauthorized(c *gin.Context, err error) {
	response.Error(c, err)
	c.Abort()
}
