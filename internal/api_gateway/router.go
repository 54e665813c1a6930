package api_gateway

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vendor-payment-scheduler/internal/api_gateway/handler"
	"github.com/vendor-payment-scheduler/internal/api_gateway/middleware"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is a dependency the health endpoint checks
type Pinger interface {
	Ping(ctx context.Context) error
}

// routes bundles what setupRouter mounts
type routes struct {
	schedules  *handler.ScheduleHandler
	executions *handler.ExecutionHandler
	metrics    http.Handler // nil disables /metrics
	health     map[string]Pinger
}

// setupRouter configures API routes and middleware for the application
func setupRouter(logger *slog.Logger, r *gin.Engine, rt routes) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Identity())
	r.Use(middleware.Logger(logger, "/health", "/metrics"))

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		scheduled := v1.Group("/scheduled-payments")
		{
			scheduled.POST("", middleware.RequireIdentity(), rt.schedules.Create)
			scheduled.GET("", rt.schedules.List)
			scheduled.POST("/preview", rt.schedules.Preview)
			scheduled.GET("/:id", rt.schedules.GetByID)
			scheduled.POST("/:id/cancel", rt.schedules.Cancel)
			scheduled.POST("/:id/execute", middleware.RequireIdentity(), rt.executions.Execute)
			scheduled.GET("/:id/occurrences", rt.schedules.Occurrences)
			scheduled.GET("/:id/payments", rt.schedules.Payments)
			scheduled.GET("/:id/history", rt.executions.History)
		}

		v1.GET("/dashboard", rt.schedules.Dashboard)
	}

	// Health check endpoint for monitoring
	r.GET("/health", healthHandler(logger, rt.health))

	if rt.metrics != nil {
		r.GET("/metrics", gin.WrapH(rt.metrics))
	}
}

// healthHandler pings every dependency and answers 503 when any of them fails
func healthHandler(logger *slog.Logger, checks map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check.Ping(ctx); err != nil {
				logger.Warn("Health check failed", "dependency", name, "error", err)
				results[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		c.JSON(status, gin.H{"status": overall, "checks": results, "timestamp": time.Now().UTC()})
	}
}
