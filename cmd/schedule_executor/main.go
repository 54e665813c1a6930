package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/vendor-payment-scheduler/internal/config"
	"github.com/vendor-payment-scheduler/internal/data/mongo"
	"github.com/vendor-payment-scheduler/internal/data/postgres"
	"github.com/vendor-payment-scheduler/internal/logger"
	"github.com/vendor-payment-scheduler/internal/metrics"
	"github.com/vendor-payment-scheduler/internal/platform/messaging/consumers"
	"github.com/vendor-payment-scheduler/internal/platform/messaging/producers"
	"github.com/vendor-payment-scheduler/internal/platform/persistence"
	"github.com/vendor-payment-scheduler/internal/schedule_executor/components"
	"github.com/vendor-payment-scheduler/internal/schedule_executor/consumer"
	"github.com/vendor-payment-scheduler/internal/schedule_executor/outbox_poller"
	"github.com/vendor-payment-scheduler/internal/schedule_executor/service"
	"github.com/vendor-payment-scheduler/internal/schedule_executor/sweeper"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("schedule_executor")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Schedule Executor",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"timezone", cfg.Application.Timezone,
	)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	repos := components.Repositories{
		Schedules: postgres.NewScheduleRepository(log, postgresDB),
		Payments:  postgres.NewPaymentRepository(log, postgresDB),
		Outbox:    postgres.NewOutboxRepository(log, postgresDB),
	}
	historyRepo := mongo.NewHistoryRepository(log, mongoDB.Database(), cfg.MongoDB.HistoryCollection)
	if err := historyRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to ensure payment history indexes", "error", err)
		os.Exit(1)
	}

	collector := metrics.NewCollector()

	// Initialize Kafka consumer
	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	// Initialize Kafka DLQ producer, nil when no DLQ topic is configured
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize execution service bounded by the worker pool
	manager := components.CreateLifecycleManager(postgresDB, repos, collector, log, cfg)
	executionService := components.CreateExecutionService(manager, log, cfg)

	executionRequestHandler := consumer.NewExecutionRequestHandler(
		log,
		executionService,
		dlqProducer,
	)

	// Initialize outbox poller
	historyPublisher := outbox_poller.NewHistoryPublisher(
		repos.Outbox,
		historyRepo,
		log,
	)
	poller := outbox_poller.NewPoller(
		&cfg.Outbox,
		repos.Outbox,
		historyPublisher,
		collector,
		log,
	)

	// Create error channel for service errors
	errChan := make(chan error, 3)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start Kafka consumer in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.ExecutionTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Subscribe(appCtx, cfg.Kafka.ExecutionTopic, cfg.Kafka.ConsumerGroup, executionRequestHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	// Start outbox poller in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Outbox Poller",
			"interval", cfg.Outbox.PollingInterval.String(),
			"batch_size", cfg.Outbox.BatchSize,
		)
		poller.Start(appCtx)
	}()

	// Start the due-schedule sweep
	if cfg.Scheduler.SweepEnabled {
		loc, _ := cfg.Application.Location()
		sw := sweeper.NewSweeper(&cfg.Scheduler, loc, manager, executionService, collector, log.With("component", "sweeper"))

		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info("Starting sweeper",
				"cron", cfg.Scheduler.SweepCronSpec,
				"batch_size", cfg.Scheduler.SweepBatchSize,
			)
			if err := sw.Start(appCtx); err != nil {
				errChan <- fmt.Errorf("sweeper error: %w", err)
			}
		}()
	}

	// Expose Prometheus metrics
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler:           collector.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info("Starting metrics server", "port", cfg.Metrics.Port)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Shutdown the worker pool if it's a WorkerPoolExecutionService
	if wpService, ok := executionService.(*service.WorkerPoolExecutionService); ok {
		log.Info("Shutting down worker pool", "running_workers", wpService.Running())
		wpService.Shutdown()
	}

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Wait for all goroutines to finish
	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	if metricsServer != nil {
		if err = metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error("Error stopping metrics server", "error", err)
		}
	}

	// Close DLQ Kafka producer
	if err = dlqProducer.Close(); err != nil {
		log.Error("Error closing DLQ Kafka producer", "error", err)
	}

	// Close Kafka consumer
	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Close MongoDB connection
	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serviceErr != nil {
		log.Error("Schedule Executor shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Schedule Executor shutdown completed with errors")
	} else {
		log.Info("Schedule Executor shutdown completed successfully")
	}
}
