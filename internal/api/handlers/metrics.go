package handlers

import (
	"github.com/dhima/version-watch/internal/api/response"
	"github.com/dhima/version-watch/internal/checks"
	"github.com/dhima/version-watch/internal/logging"
	"github.com/dhima/version-watch/internal/triggers"
	"github.com/gin-gonic/gin"
)

// MetricsSources supplies the counters reported by the metrics endpoint.
// Nil functions report zero values.
type MetricsSources struct {
	Checks        func() checks.RunnerStats
	Dispatches    func() triggers.DispatchStats
	PendingAlarms func() int
}

// MetricsHandler handles metrics requests.
type MetricsHandler struct {
	logger  logging.Logger
	sources MetricsSources
}

// NewMetricsHandler creates a new metrics handler.
func NewMetricsHandler(logger logging.Logger, sources MetricsSources) *MetricsHandler {
	return &MetricsHandler{logger: logger, sources: sources}
}

// MetricsResponse represents the metrics response.
type MetricsResponse struct {
	Checks        checks.RunnerStats     `json:"checks"`
	Dispatches    triggers.DispatchStats `json:"dispatches"`
	PendingAlarms int                    `json:"pending_alarms" example:"3"`
} // @name MetricsResponse

// Metrics godoc
// @Summary Get service metrics
// @Description Returns check, dispatch and alarm counters since start
// @Tags System
// @Produce json
// @Success 200 {object} response.SuccessResponse{data=MetricsResponse}
// @Router /metrics [get]
func (h *MetricsHandler) Metrics(c *gin.Context) {
	var metrics MetricsResponse
	if h.sources.Checks != nil {
		metrics.Checks = h.sources.Checks()
	}
	if h.sources.Dispatches != nil {
		metrics.Dispatches = h.sources.Dispatches()
	}
	if h.sources.PendingAlarms != nil {
		metrics.PendingAlarms = h.sources.PendingAlarms()
	}
	response.OK(c, metrics)
}
