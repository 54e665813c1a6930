package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vendor-payment-scheduler/internal/api_gateway/handler"
	"github.com/vendor-payment-scheduler/internal/api_gateway/service"
	"github.com/vendor-payment-scheduler/internal/config"
)

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger // For structured logging
	httpServer *http.Server // Underlying HTTP server
	httpRouter *gin.Engine  // Gin router instance
}

// Services groups the application services the HTTP layer delegates to
type Services struct {
	Schedules  service.ScheduleService
	Previews   service.PreviewService
	Executions service.ExecutionService
}

// NewServer creates and configures a new HTTP server with the given services.
// metricsHandler is mounted on /metrics when non-nil.
func NewServer(
	log *slog.Logger,
	cfg *config.Config,
	services Services,
	metricsHandler http.Handler,
	health map[string]Pinger,
) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	setupRouter(log, httpRouter, routes{
		schedules:  handler.NewScheduleHandler(log, services.Schedules, services.Previews, cfg.Lifecycle.PreviewMaxResults),
		executions: handler.NewExecutionHandler(log, services.Executions),
		metrics:    metricsHandler,
		health:     health,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Handler exposes the configured router
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server, waiting at most until ctx expires
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
