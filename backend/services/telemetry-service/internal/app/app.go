package app

import (
	"context"
	"database/sql"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"spacerover/backend/libs/db"
	"spacerover/backend/libs/monitor"
	"spacerover/backend/libs/randx"
	libredis "spacerover/backend/libs/redis"
	appconfig "spacerover/backend/services/telemetry-service/internal/config"
	httpserver "spacerover/backend/services/telemetry-service/internal/http"
	"spacerover/backend/services/telemetry-service/internal/http/handlers"
	"spacerover/backend/services/telemetry-service/internal/redisstore"
	"spacerover/backend/services/telemetry-service/internal/repository"
	"spacerover/backend/services/telemetry-service/internal/service"
	"spacerover/backend/services/telemetry-service/internal/simulator"
	"spacerover/backend/services/telemetry-service/internal/ws"
)

// App wires dependencies for the telemetry service.
type App struct {
	server    *httpserver.Server
	generator *simulator.Generator
	db        *sql.DB
	redis     *goredis.Client
	logger    *zap.Logger
}

// New builds application graph.
func New(cfg *appconfig.Config, logger *zap.Logger) (*App, error) {
	if cfg.Database.MigrationsDir != "" {
		if err := db.Migrate(cfg.Database.DSN, cfg.Database.MigrationsDir); err != nil {
			return nil, err
		}
	}

	sqlDB, err := db.NewPostgresDB(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	// The cache is optional: without redis, latest-telemetry reads fall
	// back to the database.
	var redisClient *goredis.Client
	var cache *redisstore.Store
	if cfg.Redis.Addr != "" {
		redisClient, err = libredis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		cache = redisstore.NewStore(redisClient, cfg.CacheTTL())
	}

	sink := monitor.NewPrometheusSink("telemetry")
	hub := ws.NewHub()
	wsServer := ws.NewServer(hub, 10*time.Second, logger)

	readingRepo := repository.NewTelemetryRepository(sqlDB)
	roverRepo := repository.NewRoverRepository(sqlDB)
	statsView := repository.NewReadingStatsView(sqlDB)

	var latestCache service.LatestCache
	var latestReader service.LatestReader
	if cache != nil {
		latestCache = cache
		latestReader = cache
	}
	ingest := service.NewIngestService(readingRepo, roverRepo, latestCache, hub, sink, logger)
	queries := service.NewQueryService(readingRepo, roverRepo, statsView, latestReader, logger)

	var generator *simulator.Generator
	if cfg.Generator.Enabled {
		generator, err = simulator.New(logger, sink, readingRepo, roverRepo, ingest, randx.New(), cfg.GeneratorInterval())
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
	}

	routes := httpserver.Routes{
		ReceiveTelemetry: handlers.NewReceiveTelemetryHandler(ingest, logger),
		RoverHistory:     handlers.NewRoverHistoryHandler(queries, logger),
		LatestTelemetry:  handlers.NewLatestTelemetryHandler(queries, logger),
		RoverStats:       handlers.NewRoverStatsHandler(queries, logger),
		LiveFeed:         wsServer.HandleWS,
		Health:           handlers.NewHealthHandler(),
		Metrics:          sink.Handler(),
	}

	router := httpserver.NewRouter(routes)
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:    server,
		generator: generator,
		db:        sqlDB,
		redis:     redisClient,
		logger:    logger,
	}, nil
}

// Run starts background loops and serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a.generator != nil {
		a.generator.Start(ctx)
		defer a.generator.Stop()
	}
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}
