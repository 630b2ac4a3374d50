package handler

import (
	"errors"
	"net/http"

	"voting_rooms/internal/model"
	"voting_rooms/internal/service"

	"github.com/gin-gonic/gin"
)

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, model.APIResponse{Success: true, Message: message, Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, model.APIResponse{Success: false, Message: message})
}

// writeError maps service errors to status codes. Authentication and
// authorization failures always carry the same message regardless of cause.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrConflict):
		respondError(c, http.StatusConflict, "Conflict")
	case errors.Is(err, service.ErrUnauthenticated):
		respondError(c, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, service.ErrForbidden):
		respondError(c, http.StatusForbidden, "Forbidden")
	default:
		respondError(c, http.StatusInternalServerError, "Internal Server Error")
	}
}

func userData(u *model.User) gin.H {
	return gin.H{"user": model.NewUserResponse(u)}
}
