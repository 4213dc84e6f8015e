package http

import (
	"errors"
	"net/http"

	"fieldserve/internal/domain"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError is the single place the outward-facing shape of every
// failure is decided. Handlers and middleware hand their error here and
// never construct a response of their own. Classification order:
// pipeline denials first, then storage conflicts, then validation, then
// the catch-all. Internal detail leaks only outside production.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "Authentication required"})
		return
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, errorResponse{Error: "Admin access required"})
		return
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, errorResponse{
			Error:   "Too many requests",
			Message: "rate limit exceeded, try again later",
		})
		return
	case errors.Is(err, domain.ErrDuplicate), errors.Is(err, gorm.ErrDuplicatedKey):
		c.JSON(http.StatusConflict, errorResponse{Error: "Resource already exists"})
		return
	}
	if validation, ok := domain.IsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:   "Validation error",
			Message: validation.Error(),
		})
		return
	}
	if transition, ok := domain.IsInvalidTransition(err); ok {
		c.JSON(http.StatusConflict, errorResponse{
			Error:   "Invalid status transition",
			Message: transition.Error(),
		})
		return
	}
	switch {
	case errors.Is(err, domain.ErrInvalidState):
		c.JSON(http.StatusConflict, errorResponse{
			Error:   "Invalid booking state",
			Message: "rating and review require a completed booking",
		})
		return
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "Resource not found"})
		return
	}

	message := "Something went wrong"
	if !s.cfg.Production() && err != nil {
		message = err.Error()
	}
	c.JSON(http.StatusInternalServerError, errorResponse{
		Error:   "Internal server error",
		Message: message,
	})
}
