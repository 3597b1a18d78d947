package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"github.com/c0rreagui/slotline/internal/publisher"
	"github.com/c0rreagui/slotline/internal/scheduling/application/commands"
	"github.com/c0rreagui/slotline/internal/scheduling/application/queries"
	"github.com/c0rreagui/slotline/internal/scheduling/application/services"
	"github.com/c0rreagui/slotline/internal/scheduling/application/subscribers"
	"github.com/c0rreagui/slotline/internal/scheduling/domain"
	"github.com/c0rreagui/slotline/internal/scheduling/infrastructure/persistence"
	"github.com/c0rreagui/slotline/internal/shared/infrastructure/eventbus"
	"github.com/c0rreagui/slotline/internal/shared/infrastructure/migrations"
	"github.com/c0rreagui/slotline/pkg/config"
	"github.com/c0rreagui/slotline/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.InMemoryMetrics

	// Storage
	SQLiteDB *sql.DB
	PGPool   *pgxpool.Pool

	// Redis
	RedisClient   *redis.Client
	SnapshotCache *persistence.RedisSnapshotCache

	// Repositories
	EventRepo domain.EventRepository

	// Backend client. Nil when running offline.
	Backend *publisher.Client

	// Scheduling policy
	Policy domain.ConflictPolicy

	// Domain services
	TimelineGenerator *services.TimelineGenerator
	ConflictDetector  *services.ConflictDetector
	SlotSuggester     *services.SlotSuggester
	Aggregator        *services.ScheduleAggregator

	// Event bus
	Bus                *eventbus.InProcessEventBus
	SnapshotSubscriber *subscribers.SnapshotSubscriber

	// Command handlers
	PlanBatchHandler       *commands.PlanBatchHandler
	SubmitScheduleHandler  *commands.SubmitScheduleHandler
	RetryEventHandler      *commands.RetryEventHandler
	RescheduleEventHandler *commands.RescheduleEventHandler
	RemoveEventHandler     *commands.RemoveEventHandler

	// Query handlers
	ListQueueHandler      *queries.ListQueueHandler
	CalendarViewHandler   *queries.CalendarViewHandler
	ExportCalendarHandler *queries.ExportCalendarHandler
}

// NewContainer creates and wires all dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
	}

	if err := c.openStore(ctx, cfg); err != nil {
		return nil, err
	}

	// Connect to Redis (optional; the snapshot cache is a warm-start
	// convenience, not a requirement)
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err != nil {
			if !cfg.IsDevelopment() {
				c.Close()
				return nil, fmt.Errorf("failed to connect to Redis: %w", err)
			}
			logger.Warn("Redis not available, snapshot cache disabled", "error", err)
		} else {
			c.RedisClient = client
			c.SnapshotCache = persistence.NewRedisSnapshotCache(client, cfg.InstanceName, cfg.SnapshotCacheTTL)
			logger.Info("connected to Redis")
		}
	}

	// Backend client
	if !cfg.Offline {
		clientCfg := publisher.DefaultClientConfig(cfg.BackendURL)
		clientCfg.Timeout = cfg.BackendTimeout
		clientCfg.Metrics = c.Metrics
		if cfg.BackendFailureThreshold > 0 {
			clientCfg.BreakerFailureThreshold = uint32(cfg.BackendFailureThreshold)
		}
		c.Backend = publisher.NewClient(clientCfg, logger)
	}

	// Policy
	c.Policy = domain.ConflictPolicy{
		MinSeparation: cfg.MinSeparation,
		QuotaWindow:   cfg.QuotaWindow,
		SearchHorizon: cfg.SearchHorizon,
		ProbeStep:     cfg.ProbeStep,
	}
	if err := c.Policy.Validate(); err != nil {
		logger.Warn("invalid scheduling policy, using defaults", "error", err)
		c.Policy = domain.DefaultConflictPolicy()
	}

	// Domain services
	c.TimelineGenerator = services.NewTimelineGenerator(logger)
	c.SlotSuggester = services.NewSlotSuggester(logger)
	c.ConflictDetector = services.NewConflictDetector(logger)
	c.ConflictDetector.AttachSuggester(c.SlotSuggester)
	c.Aggregator = services.NewScheduleAggregator()

	// In-process bus mirrors push updates into the local store
	c.Bus = eventbus.NewInProcessEventBus(logger)
	c.SnapshotSubscriber = subscribers.NewSnapshotSubscriber(c.EventRepo, logger)
	c.Bus.Registry().Register(c.SnapshotSubscriber)

	// Command handlers. The gateway interfaces stay nil when offline so
	// handlers can tell a missing backend from a broken one.
	var gateway commands.BackendGateway
	var remover commands.EventRemover
	var rescheduler commands.EventRescheduler
	if c.Backend != nil {
		gateway = c.Backend
		remover = c.Backend
		rescheduler = c.Backend
	}

	c.PlanBatchHandler = commands.NewPlanBatchHandler(c.EventRepo, c.TimelineGenerator, c.ConflictDetector, c.Policy, logger).WithMetrics(c.Metrics)
	if gateway != nil {
		c.SubmitScheduleHandler = commands.NewSubmitScheduleHandler(gateway, c.EventRepo, c.ConflictDetector, c.Policy, logger).WithMetrics(c.Metrics)
	}
	c.RetryEventHandler = commands.NewRetryEventHandler(gateway, c.EventRepo, c.SlotSuggester, c.Policy, logger).WithMetrics(c.Metrics)
	c.RescheduleEventHandler = commands.NewRescheduleEventHandler(rescheduler, c.EventRepo, c.ConflictDetector, c.Policy, logger)
	c.RemoveEventHandler = commands.NewRemoveEventHandler(remover, c.EventRepo, logger).WithMetrics(c.Metrics)

	// Query handlers
	c.ListQueueHandler = queries.NewListQueueHandler(c.EventRepo, c.Aggregator)
	c.CalendarViewHandler = queries.NewCalendarViewHandler(c.EventRepo, c.Aggregator)
	c.ExportCalendarHandler = queries.NewExportCalendarHandler(c.EventRepo)

	return c, nil
}

func (c *Container) openStore(ctx context.Context, cfg *config.Config) error {
	switch cfg.StoreDriver {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return fmt.Errorf("failed to ping database: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		c.PGPool = pool
		c.EventRepo = persistence.NewPostgresEventRepository(pool)
		c.Logger.Info("connected to postgres store")
		return nil

	case "sqlite", "":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create store directory: %w", err)
			}
		}
		db, err := sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open sqlite store: %w", err)
		}
		// SQLite allows one writer; a single pooled connection avoids
		// SQLITE_BUSY under concurrent handlers.
		db.SetMaxOpenConns(1)
		if err := migrations.RunSQLiteMigrations(ctx, db); err != nil {
			db.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		c.SQLiteDB = db
		c.EventRepo = persistence.NewSQLiteEventRepository(db)
		c.Logger.Info("opened sqlite store", "path", cfg.SQLitePath)
		return nil

	default:
		return fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// WarmStartFromCache replays the last cached snapshot through the in-process
// bus so the local mirror is current before the first command runs. A cache
// miss is not an error.
func (c *Container) WarmStartFromCache(ctx context.Context) error {
	if c.SnapshotCache == nil {
		return nil
	}
	events, sequence, err := c.SnapshotCache.Load(ctx)
	if err != nil {
		if errors.Is(err, persistence.ErrSnapshotNotCached) {
			return nil
		}
		return err
	}

	dtos := make([]publisher.EventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, publisher.FromDomain(e))
	}
	payload, err := json.Marshal(dtos)
	if err != nil {
		return err
	}
	if err := c.Bus.Publish(ctx, domain.RoutingKeySnapshotReplaced, payload); err != nil {
		return err
	}
	c.Logger.Info("warm-started mirror from cached snapshot", "events", len(events), "cached_sequence", sequence)
	return nil
}

// SyncFromBackend fetches the authoritative queue and replaces the local
// mirror, refreshing the snapshot cache on the way.
func (c *Container) SyncFromBackend(ctx context.Context) (int, error) {
	if c.Backend == nil {
		return 0, commands.ErrBackendRequired
	}
	events, err := c.Backend.ListEvents(ctx)
	if err != nil {
		return 0, err
	}
	if err := c.EventRepo.ReplaceAll(ctx, events); err != nil {
		return 0, err
	}
	if c.SnapshotCache != nil {
		if err := c.SnapshotCache.Store(ctx, events, 0); err != nil {
			c.Logger.Warn("failed to refresh snapshot cache", "error", err)
		}
	}
	return len(events), nil
}

// Close releases all resources held by the container.
func (c *Container) Close() {
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("failed to close Redis client", "error", err)
		}
	}
	if c.PGPool != nil {
		c.PGPool.Close()
	}
	if c.SQLiteDB != nil {
		if err := c.SQLiteDB.Close(); err != nil {
			c.Logger.Warn("failed to close sqlite store", "error", err)
		}
	}
}
