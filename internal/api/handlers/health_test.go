package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dhima/version-watch/internal/checks"
	"github.com/dhima/version-watch/internal/logging"
	"github.com/dhima/version-watch/internal/triggers"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth_WhenCalled_ThenReturns200WithHealthStatus(t *testing.T) {
	// Arrange
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", NewHealthHandler(logging.NewNoOpLogger(), "1.2.3").Health)
	w := httptest.NewRecorder()

	// Act
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	var wrapper struct {
		Data HealthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wrapper))
	assert.Equal(t, "ok", wrapper.Data.Status)
	assert.Equal(t, ServiceName, wrapper.Data.Service)
	assert.Equal(t, "1.2.3", wrapper.Data.Version)
}

func TestMetrics_WhenSourcesSet_ThenReportsCounters(t *testing.T) {
	// Arrange
	gin.SetMode(gin.TestMode)
	handler := NewMetricsHandler(logging.NewNoOpLogger(), MetricsSources{
		Checks:        func() checks.RunnerStats { return checks.RunnerStats{Requests: 5, Executions: 2, Joined: 3, UpdatesFound: 1} },
		Dispatches:    func() triggers.DispatchStats { return triggers.DispatchStats{Dispatched: 4, Rearmed: 3, Dropped: 1} },
		PendingAlarms: func() int { return 3 },
	})
	router := gin.New()
	router.GET("/metrics", handler.Metrics)
	w := httptest.NewRecorder()

	// Act
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	var wrapper struct {
		Data MetricsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wrapper))
	assert.Equal(t, int64(3), wrapper.Data.Checks.Joined)
	assert.Equal(t, int64(1), wrapper.Data.Checks.UpdatesFound)
	assert.Equal(t, int64(4), wrapper.Data.Dispatches.Dispatched)
	assert.Equal(t, 3, wrapper.Data.PendingAlarms)
}

func TestMetrics_WhenNoSources_ThenReportsZero(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/metrics", NewMetricsHandler(logging.NewNoOpLogger(), MetricsSources{}).Metrics)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pending_alarms":0`)
}
