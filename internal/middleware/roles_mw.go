package middleware

import (
	"net/http"

	"voting_rooms/internal/model"

	"github.com/gin-gonic/gin"
)

// RequireRole allows the request through only when the principal attached by
// SessionAuthMiddleware has one of allowedRoles. It must run after that
// middleware; a missing principal is answered with 401.
func RequireRole(allowedRoles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c.Request.Context())
		if !ok {
			abort(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		if !principal.HasRole(allowedRoles...) {
			abort(c, http.StatusForbidden, "Forbidden")
			return
		}

		c.Next()
	}
}

// AdminMiddleware checks if the user is an administrator
func AdminMiddleware() gin.HandlerFunc {
	return RequireRole(model.RoleAdministrator)
}
