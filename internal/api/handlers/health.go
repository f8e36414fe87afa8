package handlers

import (
	"github.com/dhima/version-watch/internal/api/response"
	"github.com/dhima/version-watch/internal/logging"
	"github.com/gin-gonic/gin"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "version-watch"

// HealthHandler handles health check requests.
type HealthHandler struct {
	logger  logging.Logger
	version string
}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler(logger logging.Logger, version string) *HealthHandler {
	return &HealthHandler{logger: logger, version: version}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Service string `json:"service" example:"version-watch"`
	Version string `json:"version" example:"1.0.0"`
} // @name HealthResponse

// Health godoc
// @Summary Health check endpoint
// @Description Returns the health status of the service
// @Tags System
// @Produce json
// @Success 200 {object} response.SuccessResponse{data=HealthResponse}
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	response.OK(c, HealthResponse{
		Status:  "ok",
		Service: ServiceName,
		Version: h.version,
	})
}
