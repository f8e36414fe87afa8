package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dhima/version-watch/internal/api/handlers"
	"github.com/dhima/version-watch/internal/api/middleware"
	"github.com/dhima/version-watch/internal/logging"
	"github.com/dhima/version-watch/pkg/config"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Dependencies are the collaborators the HTTP surface drives.
type Dependencies struct {
	Triggers   handlers.TriggerService
	Checks     handlers.CheckRunner
	Discoverer handlers.PackageDiscoverer
	Metrics    handlers.MetricsSources
	Version    string
}

// Server orchestrates HTTP routing and dependencies for the API service.
type Server struct {
	config config.App
	logger logging.Logger
	router *gin.Engine
	deps   Dependencies
}

// NewServer wires the API dependencies together.
func NewServer(cfg config.App, logger logging.Logger, deps Dependencies) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.DebugMode)
	}

	server := &Server{
		config: cfg,
		logger: logger,
		deps:   deps,
	}
	server.setupRouter()
	return server
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRouter configures the Gin router with middleware and routes.
func (s *Server) setupRouter() {
	router := gin.New()
	zapLogger := logging.Zap(s.logger)

	// Recovery first so it catches panics from the other middleware.
	router.Use(ginzap.RecoveryWithZap(zapLogger, true))
	router.Use(middleware.RequestID())
	router.Use(ginzap.Ginzap(zapLogger, time.RFC3339, true))

	origins := s.config.CORSOrigins
	allowAll := len(origins) == 0 || (len(origins) == 1 && origins[0] == "*")
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if allowAll {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", handlers.NewHealthHandler(s.logger, s.deps.Version).Health)
	router.GET("/metrics", handlers.NewMetricsHandler(s.logger, s.deps.Metrics).Metrics)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	{
		if s.deps.Triggers != nil {
			triggerHandler := handlers.NewTriggerHandler(s.logger, s.deps.Triggers)
			triggers := v1.Group("/triggers")
			{
				triggers.GET("", triggerHandler.ListTriggers)
				triggers.PUT("/periodic", triggerHandler.EnablePeriodic)
				triggers.DELETE("/periodic", triggerHandler.DisablePeriodic)
				triggers.POST("/fixed", triggerHandler.AddFixedTime)
				triggers.DELETE("/fixed", triggerHandler.RemoveAllFixedTimes)
				triggers.DELETE("/fixed/:time", triggerHandler.RemoveFixedTime)
			}
			v1.POST("/state/reset", triggerHandler.ResetState)
		}

		if s.deps.Checks != nil {
			checkHandler := handlers.NewCheckHandler(s.logger, s.deps.Checks)
			v1.POST("/checks", checkHandler.RunCheck)
			v1.GET("/checks/latest", checkHandler.LatestCheck)
		}

		if s.deps.Discoverer != nil {
			v1.GET("/installed", handlers.NewInstalledHandler(s.logger, s.deps.Discoverer).Discover)
		}
	}

	s.router = router
}

// Serve listens until ctx ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	addr := ":" + s.config.APIPort
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.config.CheckTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting API server",
			zap.String("address", addr),
			zap.String("environment", s.config.Environment),
			zap.String("log_level", s.config.LogLevel),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.logger.Error("API server failed", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}

	s.logger.Info("server stopped")
	return nil
}
