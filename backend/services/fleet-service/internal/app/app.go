package app

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"spacerover/backend/libs/db"
	"spacerover/backend/libs/monitor"
	"spacerover/backend/libs/randx"
	appconfig "spacerover/backend/services/fleet-service/internal/config"
	"spacerover/backend/services/fleet-service/internal/clients"
	httpserver "spacerover/backend/services/fleet-service/internal/http"
	"spacerover/backend/services/fleet-service/internal/http/handlers"
	"spacerover/backend/services/fleet-service/internal/http/middleware"
	"spacerover/backend/services/fleet-service/internal/password"
	"spacerover/backend/services/fleet-service/internal/repository"
	"spacerover/backend/services/fleet-service/internal/scheduler"
	"spacerover/backend/services/fleet-service/internal/service"
)

// App wires dependencies for the fleet service.
type App struct {
	server    *httpserver.Server
	scheduler *scheduler.Scheduler
	db        *sql.DB
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

	rng := randx.New()
	sink := monitor.NewPrometheusSink("fleet")

	roverRepo := repository.NewRoverRepository(sqlDB)
	missionRepo := repository.NewMissionRepository(sqlDB)
	userRepo := repository.NewUserRepository(sqlDB)
	auditRepo := repository.NewTelemetryAuditRepository(sqlDB)

	hasher := password.NewBcryptHasher(0)
	tokenSvc := service.NewTokenService(cfg.JWT.Secret, cfg.JWTExpiration())
	authSvc := service.NewAuthService(userRepo, hasher, tokenSvc, logger)
	roverSvc := service.NewRoverService(roverRepo, rng, logger)
	missionSvc := service.NewMissionService(missionRepo, roverRepo, logger)

	jobs, err := scheduler.New(logger, sink, roverRepo, missionRepo, auditRepo, rng)
	if err != nil {
		return nil, err
	}

	telemetryClient := clients.NewTelemetryClient(
		cfg.Telemetry.BaseURL,
		clients.NewDefaultHTTPClient(cfg.TelemetryTimeout()),
	)

	routes := httpserver.Routes{
		ListRovers:   handlers.NewListRoversHandler(roverSvc),
		GetRover:     handlers.NewGetRoverHandler(roverSvc),
		CreateRover:  handlers.NewCreateRoverHandler(roverSvc),
		UpdateRover:  handlers.NewUpdateRoverHandler(roverSvc),
		RoverCommand: handlers.NewRoverCommandHandler(roverSvc),
		LowBattery:   handlers.NewLowBatteryHandler(roverSvc),

		ListMissions:   handlers.NewListMissionsHandler(missionSvc),
		GetMission:     handlers.NewGetMissionHandler(missionSvc),
		CreateMission:  handlers.NewCreateMissionHandler(missionSvc),
		UpdateMission:  handlers.NewUpdateMissionHandler(missionSvc),
		AddObjective:   handlers.NewAddObjectiveHandler(missionSvc),
		MissionRovers:  handlers.NewMissionRoversHandler(missionSvc),
		ActiveMissions: handlers.NewActiveMissionsHandler(missionSvc),

		LatestTelemetry: handlers.NewLatestTelemetryHandler(telemetryClient, roverSvc, rng, logger),

		Signup: handlers.NewSignupHandler(authSvc),
		Login:  handlers.NewLoginHandler(authSvc),

		Health:  handlers.NewHealthHandler(),
		Metrics: sink.Handler(),
	}

	router := httpserver.NewRouter(routes, middleware.Auth(tokenSvc))
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:    server,
		scheduler: jobs,
		db:        sqlDB,
		logger:    logger,
	}, nil
}

// Run starts the background jobs and serves HTTP until context cancellation.
func (a *App) Run(ctx context.Context) error {
	a.scheduler.Start(ctx)
	defer a.scheduler.Stop()
	return a.server.Run(ctx)
}

// Close releases acquired resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}
