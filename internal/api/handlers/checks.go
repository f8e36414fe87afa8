package handlers

import (
	"context"
	"errors"

	"github.com/dhima/version-watch/internal/api/response"
	"github.com/dhima/version-watch/internal/checks"
	"github.com/dhima/version-watch/internal/logging"
	"github.com/dhima/version-watch/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CheckRunner runs version checks on demand and reports the latest outcome.
type CheckRunner interface {
	RunNow(ctx context.Context, source models.CheckSource) (models.CheckResult, error)
	Latest() (models.CheckResult, bool)
}

// CheckHandler handles manual check requests.
type CheckHandler struct {
	logger logging.Logger
	runner CheckRunner
}

// NewCheckHandler creates a new check handler.
func NewCheckHandler(logger logging.Logger, runner CheckRunner) *CheckHandler {
	return &CheckHandler{
		logger: logger.With(zap.String("handler", "check")),
		runner: runner,
	}
}

// RunCheck godoc
// @Summary Run a version check now
// @Description Runs a check and waits for its result. Joins a check already in flight instead of starting another.
// @Tags Checks
// @Produce json
// @Success 200 {object} response.SuccessResponse{data=models.CheckResult}
// @Failure 503 {object} response.ErrorResponse "Runner is shutting down"
// @Failure 500 {object} response.ErrorResponse "Request ended before the check finished"
// @Router /api/v1/checks [post]
func (h *CheckHandler) RunCheck(c *gin.Context) {
	result, err := h.runner.RunNow(c.Request.Context(), models.CheckSourceManual)
	if err != nil {
		if errors.Is(err, checks.ErrRunnerClosed) {
			response.ServiceUnavailable(c, "check runner is shutting down")
			return
		}
		h.logger.Warn("manual check did not complete",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.InternalServerError(c, "check did not complete")
		return
	}

	h.logger.Info("manual check completed",
		zap.String("check_id", result.ID),
		zap.String("status", string(result.Status)),
		zap.String("request_id", response.GetRequestID(c)),
	)
	response.OK(c, result)
}

// LatestCheck godoc
// @Summary Get the latest check result
// @Description Returns the in-flight check as status running, otherwise the last completed result
// @Tags Checks
// @Produce json
// @Success 200 {object} response.SuccessResponse{data=models.CheckResult}
// @Failure 404 {object} response.ErrorResponse "No check has run yet"
// @Router /api/v1/checks/latest [get]
func (h *CheckHandler) LatestCheck(c *gin.Context) {
	result, ok := h.runner.Latest()
	if !ok {
		response.NotFound(c, "no check has run yet")
		return
	}
	response.OK(c, result)
}
