package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

const tenantContextKey = "tenant_id"

// TenantResolver resolves a tenant ID from a bearer token.
type TenantResolver interface {
	ResolveTenant(ctx context.Context, token string) (string, error)
}

// TenantFromContext returns the tenant ID injected by AuthMiddleware.
func TenantFromContext(c *gin.Context) (string, bool) {
	tenantID, ok := c.Get(tenantContextKey)
	if !ok {
		return "", false
	}
	s, ok := tenantID.(string)
	return s, ok
}

// AuthMiddleware enforces bearer token authentication and scopes the request
// to the resolved tenant.
func AuthMiddleware(resolver TenantResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("unauthorized", "missing bearer token"))
			return
		}

		tenantID, err := resolver.ResolveTenant(c.Request.Context(), token)
		if err != nil || tenantID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("unauthorized", "invalid bearer token"))
			return
		}

		c.Set(tenantContextKey, tenantID)
		c.Next()
	}
}
