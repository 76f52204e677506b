package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"budgethub/internal/amqp"
	"budgethub/internal/cli"
	"budgethub/internal/log"
	"budgethub/internal/services"
	"budgethub/internal/worker"
)

const (
	shutdownTimeout = 30 * time.Second
	cacheSweep      = 5 * time.Minute
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		slog.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, log.ComponentWorker, os.Stdout)
	logger.Info("Starting budgethub-worker",
		"sheets_backend", cfg.SheetsBackend,
		"document_backend", cfg.DocumentBackend)

	ctx, cancel := cli.SignalContext(context.Background())
	defer cancel()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backends", log.FieldError, err)
		os.Exit(1)
	}
	defer app.Close()

	syncWorker := worker.NewSyncWorker(app.Sync, cfg.SyncAutoApply, cfg.SyncConcurrency, logger.Logger)

	go app.Backend.Caches.Run(ctx, cacheSweep)

	var scheduler *services.Scheduler
	if cfg.SyncInterval > 0 {
		scheduler = services.NewScheduler(syncWorker, services.SchedulerConfig{Interval: cfg.SyncInterval}, logger.Logger)
		if err := scheduler.Start(ctx); err != nil {
			logger.Error("Failed to start scheduler", log.FieldError, err)
			os.Exit(1)
		}
	} else {
		logger.Info("Periodic push disabled - SYNC_INTERVAL not set")
	}

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.Logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		go func() {
			if err := amqpClient.Consume(ctx, syncWorker.HandleSyncMessage); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
			cancel()
		}()
	} else {
		logger.Info("AMQP consumption disabled - AMQP_URL not set")
	}

	if scheduler == nil && cfg.AMQPURL == "" {
		logger.Error("Nothing to do: set AMQP_URL or SYNC_INTERVAL")
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)

	if scheduler != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stopCancel()
		if err := scheduler.Stop(stopCtx); err != nil {
			logger.Warn("Scheduler did not stop in time", log.FieldError, err)
		}
	}
	logger.Info("Worker stopped gracefully")
}
