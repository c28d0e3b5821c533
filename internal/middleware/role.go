package middleware

import (
	"net/http"
	"slices"

	"fileintake/internal/logger"
	"fileintake/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const RoleAdmin = "admin"

// RequireRole lets the request through when the role set by JWTAuth is one
// of roles. It must run after JWTAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			response.AbortError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			return
		}

		if !slices.Contains(roles, role) {
			logger.FromContext(c.Request.Context(), nil).Info("access denied",
				"path", c.Request.URL.Path, "role", role, "required", roles)
			response.AbortError(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			return
		}

		c.Next()
	}
}

// AdminOnly guards maintenance routes such as stored file removal.
func AdminOnly() gin.HandlerFunc {
	return RequireRole(RoleAdmin)
}
