package handler

import (
	"net/http"

	"voting_rooms/internal/middleware"
	"voting_rooms/internal/model"
	"voting_rooms/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	service service.AuthService
	cookie  middleware.SessionCookie
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(s service.AuthService, cookie middleware.SessionCookie) *AuthHandler {
	return &AuthHandler{service: s, cookie: cookie}
}

func clientMeta(c *gin.Context) model.ClientMeta {
	return model.ClientMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req model.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Bad Request")
		return
	}

	res, err := h.service.SignUp(c.Request.Context(), req, clientMeta(c))
	if err != nil {
		writeError(c, err)
		return
	}

	h.cookie.Set(c, res.Session.Token, res.Lifetime)
	respond(c, http.StatusCreated, "User created successfully", userData(res.User))
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req model.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Bad Request")
		return
	}

	res, err := h.service.SignIn(c.Request.Context(), req, clientMeta(c))
	if err != nil {
		writeError(c, err)
		return
	}

	h.cookie.Set(c, res.Session.Token, res.Lifetime)
	respond(c, http.StatusOK, "Signed in successfully", userData(res.User))
}

// SignOut revokes the presented session, if any. The cookie is cleared
// whatever the outcome.
func (h *AuthHandler) SignOut(c *gin.Context) {
	err := h.service.SignOut(c.Request.Context(), h.cookie.Token(c))
	h.cookie.Clear(c)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "Signed out successfully", nil)
}

// Me returns the current user. Requires SessionAuthMiddleware.
func (h *AuthHandler) Me(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c.Request.Context())
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.service.CurrentUser(c.Request.Context(), principal)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "", userData(user))
}

// PurgeExpiredSessions deletes all expired sessions. Administrators only.
func (h *AuthHandler) PurgeExpiredSessions(c *gin.Context) {
	n, err := h.service.PurgeExpiredSessions(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "Expired sessions purged", gin.H{"deleted": n})
}

// RegisterAuthRoutes registers auth routes
func (h *AuthHandler) RegisterAuthRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, adminMW gin.HandlerFunc) {
	users := rg.Group("/users")
	{
		users.POST("/sign-up", h.SignUp)
		users.POST("/sign-in", h.SignIn)
		users.POST("/sign-out", h.SignOut)

		users.GET("/me", authMW, h.Me)
		users.POST("/sessions/purge-expired", authMW, adminMW, h.PurgeExpiredSessions)
	}
}
