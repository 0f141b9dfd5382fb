// Package container wires the application with Uber FX
package container

import (
	"context"
	"fmt"

	"github.com/alchemorsel/recipebook/internal/application/catalog"
	"github.com/alchemorsel/recipebook/internal/application/importer"
	"github.com/alchemorsel/recipebook/internal/application/instructions"
	"github.com/alchemorsel/recipebook/internal/infrastructure/ai"
	"github.com/alchemorsel/recipebook/internal/infrastructure/ai/openai"
	"github.com/alchemorsel/recipebook/internal/infrastructure/cache"
	"github.com/alchemorsel/recipebook/internal/infrastructure/config"
	"github.com/alchemorsel/recipebook/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/recipebook/internal/infrastructure/http/server"
	"github.com/alchemorsel/recipebook/internal/infrastructure/importwatch"
	"github.com/alchemorsel/recipebook/internal/infrastructure/monitoring"
	gormRepo "github.com/alchemorsel/recipebook/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/recipebook/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/recipebook/internal/infrastructure/persistence/migrations"
	"github.com/alchemorsel/recipebook/internal/infrastructure/persistence/postgres"
	redisRepo "github.com/alchemorsel/recipebook/internal/infrastructure/persistence/redis"
	"github.com/alchemorsel/recipebook/internal/infrastructure/persistence/sqlite"
	"github.com/alchemorsel/recipebook/internal/infrastructure/queue"
	"github.com/alchemorsel/recipebook/internal/infrastructure/realtime"
	"github.com/alchemorsel/recipebook/internal/ports/inbound"
	"github.com/alchemorsel/recipebook/internal/ports/outbound"
	"github.com/alchemorsel/recipebook/pkg/healthcheck"
	"github.com/alchemorsel/recipebook/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Backend names shared by the cache and queue sections
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Module provides everything the serve command runs
var Module = fx.Options(
	CoreModule,
	MonitoringModule,
	AIModule,
	QueueModule,
	RealtimeModule,
	HTTPModule,
	fx.Invoke(RegisterTaskHandlers, RegisterLifecycleHooks),
)

// CoreModule provides storage and the catalog and import services, which is
// all the one-shot CLI commands need
var CoreModule = fx.Options(
	LoggerModule,
	DatabaseModule,
	CacheModule,
	RepositoryModule,
	ServiceModule,
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// DatabaseModule provides the GORM connection for the configured driver
var DatabaseModule = fx.Provide(NewDatabase)

// NewDatabase opens SQLite or PostgreSQL and closes it when the app stops
func NewDatabase(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	var db *gorm.DB

	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Database.AutoMigrate {
			if err := migrate(cfg, log); err != nil {
				return nil, err
			}
		}
		cm, err := postgres.NewConnectionManager(cfg, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return cm.Close() }})
		return cm.GetDB(), nil

	default:
		var err error
		db, err = sqlite.SetupDatabase(cfg.Database.Path,
			gormRepo.NewLogger(log, cfg.Database.LogLevel, cfg.Database.SlowQueryThreshold))
		if err != nil {
			return nil, err
		}
		log.Info("Connected to SQLite database", zap.String("path", cfg.Database.Path))
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return db, nil
}

func migrate(cfg *config.Config, log *zap.Logger) error {
	m, err := migrations.Open(cfg.GetDSN(), cfg.Database.Database, log)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}

// CacheModule provides the cache backend and, when a backend needs it, Redis
var CacheModule = fx.Provide(
	NewRedisClient,
	NewCacheRepository,
)

// NewRedisClient connects to Redis when the cache or queue backend uses it.
// Otherwise it returns a nil client.
func NewRedisClient(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (redis.UniversalClient, error) {
	if cfg.Cache.Backend != BackendRedis && cfg.Queue.Backend != BackendRedis {
		return nil, nil
	}

	client, err := cache.NewRedisClient(cfg, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return client.Close() }})
	return client, nil
}

// NewCacheRepository selects the cache backend
func NewCacheRepository(cfg *config.Config, client redis.UniversalClient, log *zap.Logger) outbound.CacheRepository {
	if cfg.Cache.Backend == BackendRedis {
		log.Info("Using Redis cache", zap.String("addr", cfg.RedisAddr()))
		return redisRepo.NewCacheRepository(client, log)
	}
	log.Info("Using in-memory cache")
	return memory.NewCacheRepository(cfg.Cache.DefaultTTL)
}

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	gormRepo.NewRecipeRepository,
	gormRepo.NewIngredientRepository,
	gormRepo.NewTransactor,
)

// ServiceModule provides the catalog and import services
var ServiceModule = fx.Provide(
	func(cfg *config.Config, cache outbound.CacheRepository, recipes outbound.RecipeRepository, log *zap.Logger) *catalog.PopularCategories {
		return catalog.NewPopularCategories(cache, recipes, cfg.Cache.PopularCategoriesTTL, log)
	},
	catalog.NewService,
	func(c inbound.CatalogService) importer.CacheInvalidator { return c },
	importer.NewService,
	func() outbound.MetricsRecorder { return outbound.NopMetrics{} },
)

// MonitoringModule provides metrics and tracing. It replaces the no-op
// metrics recorder of CoreModule.
var MonitoringModule = fx.Options(
	fx.Provide(
		monitoring.NewMetrics,
		NewTracingProvider,
	),
	fx.Decorate(func(_ outbound.MetricsRecorder, m *monitoring.Metrics) outbound.MetricsRecorder {
		return m
	}),
	fx.Provide(func(m *monitoring.Metrics) queue.Metrics { return m }),
)

// NewTracingProvider installs tracing and flushes it when the app stops
func NewTracingProvider(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
	tp, err := monitoring.NewTracingProvider(context.Background(), monitoring.TracingConfig{
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
		Insecure:       cfg.Monitoring.OTLPInsecure,
		SamplingRate:   cfg.Monitoring.SamplingRate,
		Enabled:        cfg.Monitoring.EnableTracing,
	}, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: tp.Shutdown})
	return tp, nil
}

// AIModule provides the instruction generator
var AIModule = fx.Provide(NewInstructionGenerator)

// NewInstructionGenerator uses OpenAI when an API key is configured and the
// offline placeholder otherwise
func NewInstructionGenerator(cfg *config.Config, log *zap.Logger) outbound.InstructionGenerator {
	if cfg.AI.APIKey == "" {
		log.Warn("No AI API key configured, using placeholder instructions")
		return ai.NewPlaceholderGenerator()
	}
	log.Info("Using OpenAI instruction generator", zap.String("model", cfg.AI.Model))
	return openai.NewClient(cfg.AI, nil, log)
}

// QueueModule provides the task queue and its dispatcher
var QueueModule = fx.Provide(
	queue.NewDispatcher,
	NewQueue,
	func(q queue.Queue) outbound.TaskQueue { return q },
)

// NewQueue selects the queue backend
func NewQueue(cfg *config.Config, client redis.UniversalClient, dispatcher *queue.Dispatcher, metrics queue.Metrics, log *zap.Logger) queue.Queue {
	if cfg.Queue.Backend == BackendRedis {
		log.Info("Using Redis task queue", zap.String("key", cfg.Queue.Key))
		return queue.NewRedisQueue(client, cfg.Queue.Key, cfg.Queue.PollWait, cfg.Queue.Workers, dispatcher, metrics, log)
	}
	log.Info("Using in-memory task queue", zap.Int("workers", cfg.Queue.Workers))
	return queue.NewMemoryQueue(cfg.Queue.Workers, cfg.Queue.BufferSize, dispatcher, metrics, log)
}

// RealtimeModule provides the live update hub and the instruction service
// that notifies through it
var RealtimeModule = fx.Provide(
	func(r *handlers.Renderer, log *zap.Logger) *realtime.Hub {
		return realtime.NewHub(r.AIFragment, log)
	},
	func(h *realtime.Hub) outbound.Notifier { return h },
	func(
		cfg *config.Config,
		recipes outbound.RecipeRepository,
		generator outbound.InstructionGenerator,
		tasks outbound.TaskQueue,
		notifier outbound.Notifier,
		metrics outbound.MetricsRecorder,
		log *zap.Logger,
	) inbound.InstructionService {
		return instructions.NewService(recipes, generator, tasks, notifier, ai.ErrorMessage, metrics, log,
			instructions.WithPendingTimeout(cfg.AI.PendingTimeout))
	},
)

// HTTPModule provides the HTTP server and handlers
var HTTPModule = fx.Provide(
	handlers.NewRenderer,
	func(h *realtime.Hub) handlers.LiveSubscriber { return h },
	handlers.NewFrontendHandlers,
	handlers.NewAPIHandlers,
	NewHealthCheck,
	func(cfg *config.Config, log *zap.Logger, f *handlers.FrontendHandlers, a *handlers.APIHandlers, h *healthcheck.HealthCheck, m *monitoring.Metrics) *server.Server {
		if !cfg.Monitoring.EnableMetrics {
			m = nil
		}
		return server.NewServer(cfg, log, f, a, h, m)
	},
)

// NewHealthCheck registers the database, Redis and queue checks
func NewHealthCheck(cfg *config.Config, db *gorm.DB, client redis.UniversalClient, hub *realtime.Hub, log *zap.Logger) (*healthcheck.HealthCheck, error) {
	h := healthcheck.New(cfg.App.Version, log.Named("health"))

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	h.Register("database", healthcheck.NewDatabaseChecker(sqlDB))

	if client != nil {
		h.Register("redis", healthcheck.NewRedisChecker(client))
	}

	h.Register("realtime", healthcheck.NewCustomChecker("realtime", func(context.Context) (healthcheck.Status, string, interface{}) {
		return healthcheck.StatusHealthy, "Live update hub running", map[string]int{"subscribers": hub.Subscribers()}
	}))

	return h, nil
}

// RegisterTaskHandlers routes background tasks to the services that run them
func RegisterTaskHandlers(dispatcher *queue.Dispatcher, svc inbound.InstructionService) {
	dispatcher.Register(outbound.TaskKindGenerateInstructions, func(ctx context.Context, task outbound.Task) error {
		return svc.GenerateInstructions(ctx, task.RecipeID)
	})
}

// RegisterLifecycleHooks starts the hub, queue workers, import watcher and HTTP
// server, and stops them in reverse order
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	hub *realtime.Hub,
	tasks queue.Queue,
	imports inbound.ImportService,
	srv *server.Server,
	_ *monitoring.TracingProvider,
) {
	runCtx, cancel := context.WithCancel(context.Background())
	hubDone := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(hubDone)
				hub.Run(runCtx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			hub.Close()
			cancel()
			select {
			case <-hubDone:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})

	lc.Append(fx.Hook{OnStart: tasks.Start, OnStop: tasks.Stop})

	if dir := cfg.Import.WatchDir; dir != "" {
		watcher := importwatch.New(dir, cfg.Import.Debounce, imports, log)
		watchCtx, stopWatch := context.WithCancel(context.Background())
		watchDone := make(chan struct{})
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go func() {
					defer close(watchDone)
					if err := watcher.Run(watchCtx); err != nil {
						log.Error("Import watcher stopped", zap.Error(err))
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				stopWatch()
				select {
				case <-watchDone:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			},
		})
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("Starting recipebook",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
			)
			return srv.Start()
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down recipebook")
			err := srv.Shutdown(ctx)
			_ = log.Sync()
			return err
		},
	})
}
