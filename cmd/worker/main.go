package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/c0rreagui/slotline/internal/app"
	"github.com/c0rreagui/slotline/internal/publisher"
	"github.com/c0rreagui/slotline/internal/scheduling/domain"
	"github.com/c0rreagui/slotline/internal/shared/infrastructure/eventbus"
	"github.com/c0rreagui/slotline/pkg/config"
	"github.com/c0rreagui/slotline/pkg/observability"
)

// The worker keeps the local mirror fresh: it consumes push updates from
// the broker and periodically re-fetches the authoritative queue from the
// backend, republishing the result as a snapshot for other mirrors.
func main() {
	logger := observability.LoggerFromEnv()
	logger.Info("starting slotline worker")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Offline {
		logger.Error("worker cannot run offline, unset SLOTLINE_OFFLINE")
		os.Exit(1)
	}

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	metrics := container.Metrics

	// Event publisher for snapshot re-broadcasts. The envelope wrapper
	// stamps each message with the ConsumedEvent frame the consumer side
	// decodes, including a sequence for staleness checks.
	var busPublisher eventbus.Publisher
	if cfg.RabbitMQURL != "" {
		rabbitPublisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Error("failed to connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		busPublisher = eventbus.NewEnvelopePublisher(rabbitPublisher)
		defer rabbitPublisher.Close()
	} else {
		logger.Warn("RabbitMQ not configured, snapshots will not be broadcast")
		busPublisher = eventbus.NewNoopPublisher(logger)
	}

	// Push consumer mirrors backend-originated events into the local store
	var consumer *eventbus.RabbitMQConsumer
	if cfg.RabbitMQURL != "" {
		registry := eventbus.NewConsumerRegistry(logger)
		consumer, err = eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
			URL:       cfg.RabbitMQURL,
			QueueName: cfg.ConsumerQueue,
			Logger:    logger,
		}, registry)
		if err != nil {
			logger.Error("failed to create RabbitMQ consumer", "error", err)
			os.Exit(1)
		}
		consumer.RegisterConsumer(container.SnapshotSubscriber)
		defer consumer.Close()

		go func() {
			if err := consumer.Start(ctx); err != nil {
				logger.Error("consumer stopped", "error", err)
				cancel()
			}
		}()
		logger.Info("push consumer started", "queue", cfg.ConsumerQueue)
	}

	refresh := func() {
		timer := observability.StartTimer("queue.refresh").
			WithLogger(logger).
			WithMetrics(metrics)

		refreshCtx, cancelRefresh := context.WithTimeout(ctx, cfg.BackendTimeout)
		defer cancelRefresh()

		events, err := container.Backend.ListEvents(refreshCtx)
		if err != nil {
			timer.StopWithError(err)
			logger.Error("backend refresh failed", "error", err)
			return
		}

		if err := container.EventRepo.ReplaceAll(refreshCtx, events); err != nil {
			timer.StopWithError(err)
			logger.Error("failed to replace local mirror", "error", err)
			return
		}
		metrics.Counter(observability.MetricSnapshotsApplied, 1)

		if container.SnapshotCache != nil {
			if err := container.SnapshotCache.Store(refreshCtx, events, 0); err != nil {
				logger.Warn("failed to refresh snapshot cache", "error", err)
			}
		}

		dtos := make([]publisher.EventDTO, 0, len(events))
		for _, e := range events {
			dtos = append(dtos, publisher.FromDomain(e))
		}
		payload, err := json.Marshal(dtos)
		if err != nil {
			timer.StopWithError(err)
			logger.Error("failed to marshal snapshot", "error", err)
			return
		}
		if err := busPublisher.Publish(refreshCtx, domain.RoutingKeySnapshotReplaced, payload); err != nil {
			logger.Error("failed to broadcast snapshot", "error", err)
		} else {
			metrics.Counter(observability.MetricEventsPublished, 1)
		}

		timer.Stop()
		logger.Info("mirror refreshed", "events", len(events))
	}

	// Prime the mirror before the first tick
	refresh()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RefreshSchedule, refresh); err != nil {
		logger.Error("invalid refresh schedule", "schedule", cfg.RefreshSchedule, "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()
	logger.Info("refresh scheduled", "schedule", cfg.RefreshSchedule)

	if cfg.WorkerHealthAddr != "" {
		startHealthServer(ctx, cfg, container, logger)
	}

	// Wait for shutdown
	<-ctx.Done()
	logger.Info("worker stopped")
}

func startHealthServer(ctx context.Context, cfg *config.Config, container *app.Container, logger *slog.Logger) {
	registry := observability.NewHealthRegistry()

	if container.SQLiteDB != nil {
		registry.Register("store", observability.DatabaseHealthChecker(container.SQLiteDB.PingContext))
	}
	if container.PGPool != nil {
		registry.Register("store", observability.DatabaseHealthChecker(container.PGPool.Ping))
	}
	if container.RedisClient != nil {
		registry.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
			return container.RedisClient.Ping(ctx).Err()
		}))
	}
	registry.Register("backend", observability.BackendHealthChecker(func(ctx context.Context) error {
		_, err := container.Backend.ListEvents(ctx)
		return err
	}))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := registry.GetOverallHealth(checkCtx)
		w.Header().Set("Content-Type", "application/json")
		if health.Status == observability.HealthStatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		body, err := health.ToJSON()
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(body)
	})

	healthSrv := &http.Server{
		Addr:              cfg.WorkerHealthAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := healthSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("health server shutdown error", "error", err)
		}
	}()
}
