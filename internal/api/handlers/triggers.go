package handlers

import (
	"context"

	"github.com/dhima/version-watch/internal/api/response"
	"github.com/dhima/version-watch/internal/logging"
	"github.com/dhima/version-watch/internal/models"
	"github.com/dhima/version-watch/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TriggerService is the trigger management surface used by the handlers.
type TriggerService interface {
	EnablePeriodic(ctx context.Context) error
	DisablePeriodic(ctx context.Context) error
	AddFixedTime(ctx context.Context, hour, minute int) error
	RemoveFixedTime(ctx context.Context, hour, minute int) error
	RemoveAllFixedTime(ctx context.Context) error
	Triggers(ctx context.Context) (models.TriggerListResponse, error)
	Reset(ctx context.Context) error
}

// TriggerHandler handles trigger management requests.
type TriggerHandler struct {
	logger  logging.Logger
	service TriggerService
}

// NewTriggerHandler creates a new trigger handler.
func NewTriggerHandler(logger logging.Logger, service TriggerService) *TriggerHandler {
	return &TriggerHandler{
		logger:  logger.With(zap.String("handler", "trigger")),
		service: service,
	}
}

// ListTriggers godoc
// @Summary List active triggers
// @Description Returns the persisted schedule state and every active trigger with its pending fire time
// @Tags Triggers
// @Produce json
// @Success 200 {object} response.SuccessResponse{data=models.TriggerListResponse}
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/triggers [get]
func (h *TriggerHandler) ListTriggers(c *gin.Context) {
	result, err := h.service.Triggers(c.Request.Context())
	if handleServiceError(c, h.logger, err, "list triggers") {
		return
	}
	response.OK(c, result)
}

// EnablePeriodic godoc
// @Summary Enable the periodic check
// @Description Registers the 12-hourly check. Enabling twice re-registers it.
// @Tags Triggers
// @Produce json
// @Success 200 {object} response.SuccessResponse{data=models.TriggerListResponse}
// @Failure 403 {object} response.ErrorResponse "Exact alarm permission denied"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/triggers/periodic [put]
func (h *TriggerHandler) EnablePeriodic(c *gin.Context) {
	if handleServiceError(c, h.logger, h.service.EnablePeriodic(c.Request.Context()), "enable periodic trigger") {
		return
	}
	h.logger.Info("periodic trigger enabled", zap.String("request_id", response.GetRequestID(c)))
	h.respondWithTriggers(c)
}

// DisablePeriodic godoc
// @Summary Disable the periodic check
// @Tags Triggers
// @Produce json
// @Success 200 {object} response.SuccessResponse{data=models.TriggerListResponse}
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/triggers/periodic [delete]
func (h *TriggerHandler) DisablePeriodic(c *gin.Context) {
	if handleServiceError(c, h.logger, h.service.DisablePeriodic(c.Request.Context()), "disable periodic trigger") {
		return
	}
	h.respondWithTriggers(c)
}

// AddFixedTime godoc
// @Summary Add a daily check time
// @Description Registers a daily check at hour:minute local time. At most four times may be active.
// @Tags Triggers
// @Accept json
// @Produce json
// @Param time body models.AddFixedTimeRequest true "Time of day"
// @Success 201 {object} response.SuccessResponse{data=models.TriggerListResponse}
// @Failure 400 {object} response.ErrorResponse "Invalid time of day"
// @Failure 403 {object} response.ErrorResponse "Exact alarm permission denied"
// @Failure 409 {object} response.ErrorResponse "Fixed-time trigger limit reached"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/triggers/fixed [post]
func (h *TriggerHandler) AddFixedTime(c *gin.Context) {
	var req models.AddFixedTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid add fixed time request",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	if handleServiceError(c, h.logger, h.service.AddFixedTime(c.Request.Context(), *req.Hour, *req.Minute), "add fixed time") {
		return
	}

	h.logger.Info("fixed-time trigger added",
		zap.Int("hour", *req.Hour),
		zap.Int("minute", *req.Minute),
		zap.String("request_id", response.GetRequestID(c)),
	)
	result, err := h.service.Triggers(c.Request.Context())
	if handleServiceError(c, h.logger, err, "list triggers") {
		return
	}
	response.Created(c, result, "fixed-time trigger added")
}

// RemoveFixedTime godoc
// @Summary Remove a daily check time
// @Description Removing a time that is not active succeeds without change.
// @Tags Triggers
// @Produce json
// @Param time path string true "Time of day as HH:MM"
// @Success 200 {object} response.SuccessResponse{data=models.TriggerListResponse}
// @Failure 400 {object} response.ErrorResponse "Invalid time of day"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/triggers/fixed/{time} [delete]
func (h *TriggerHandler) RemoveFixedTime(c *gin.Context) {
	ft, err := storage.ParseFixedTime(c.Param("time"))
	if err != nil {
		response.BadRequest(c, "invalid time of day", err.Error())
		return
	}

	if handleServiceError(c, h.logger, h.service.RemoveFixedTime(c.Request.Context(), ft.Hour, ft.Minute), "remove fixed time") {
		return
	}
	h.respondWithTriggers(c)
}

// RemoveAllFixedTimes godoc
// @Summary Remove every daily check time
// @Description Cancels every fixed-time alarm identity, including ones left by a corrupted record
// @Tags Triggers
// @Produce json
// @Success 200 {object} response.SuccessResponse{data=models.TriggerListResponse}
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/triggers/fixed [delete]
func (h *TriggerHandler) RemoveAllFixedTimes(c *gin.Context) {
	if handleServiceError(c, h.logger, h.service.RemoveAllFixedTime(c.Request.Context()), "remove all fixed times") {
		return
	}
	h.respondWithTriggers(c)
}

// ResetState godoc
// @Summary Reset all schedule state
// @Description Cancels every trigger and clears the persisted state, including the last check time
// @Tags Triggers
// @Success 204
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/state/reset [post]
func (h *TriggerHandler) ResetState(c *gin.Context) {
	if handleServiceError(c, h.logger, h.service.Reset(c.Request.Context()), "reset state") {
		return
	}
	h.logger.Info("schedule state reset", zap.String("request_id", response.GetRequestID(c)))
	response.NoContent(c)
}

func (h *TriggerHandler) respondWithTriggers(c *gin.Context) {
	result, err := h.service.Triggers(c.Request.Context())
	if handleServiceError(c, h.logger, err, "list triggers") {
		return
	}
	response.OK(c, result)
}
