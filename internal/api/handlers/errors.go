package handlers

import (
	"errors"

	"github.com/dhima/version-watch/internal/api/response"
	"github.com/dhima/version-watch/internal/logging"
	"github.com/dhima/version-watch/internal/triggers"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleServiceError writes the HTTP response for err and reports whether it did.
func handleServiceError(c *gin.Context, logger logging.Logger, err error, operation string) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, triggers.ErrInvalidArgument):
		response.BadRequest(c, "validation failed", err.Error())
	case errors.Is(err, triggers.ErrPermissionDenied):
		response.Forbidden(c, "exact alarm permission is required", "grant the exact alarm permission and retry")
	case errors.Is(err, triggers.ErrCapacityExceeded):
		response.Conflict(c, "fixed-time trigger limit reached", err.Error())
	default:
		logger.Error(operation+" failed",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.InternalServerError(c, "internal server error")
	}
	return true
}
