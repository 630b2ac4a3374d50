package middleware

import (
	"context"
	"errors"
	"net/http"

	"voting_rooms/internal/model"
	"voting_rooms/internal/service"

	"github.com/gin-gonic/gin"
)

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p
func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal attached by SessionAuthMiddleware
func PrincipalFrom(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(model.Principal)
	return p, ok
}

// SessionAuthMiddleware resolves the session cookie to a principal and
// attaches it to the request context. Any presented token that does not
// resolve gets its cookie cleared.
func SessionAuthMiddleware(auth service.AuthService, cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := auth.Authenticate(c.Request.Context(), cookie.Token(c))
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNoToken):
				abort(c, http.StatusUnauthorized, "Authentication required")
			case errors.Is(err, service.ErrUnauthenticated):
				cookie.Clear(c)
				abort(c, http.StatusUnauthorized, "Unauthorized")
			default:
				abort(c, http.StatusInternalServerError, "Internal Server Error")
			}
			return
		}

		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, model.APIResponse{Success: false, Message: message})
}
