package app

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/foodgram-backend/internal/data/db"
	"github.com/yungbote/foodgram-backend/internal/http"
	"github.com/yungbote/foodgram-backend/internal/jobs/worker"
	"github.com/yungbote/foodgram-backend/internal/observability"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
	"github.com/yungbote/foodgram-backend/internal/temporalx"
	"github.com/yungbote/foodgram-backend/internal/temporalx/temporalworker"
)

const serviceName = "foodgram-backend"

// Version is set at build time with -ldflags.
var Version = "dev"

type Options struct {
	// Migrate runs AutoMigrate before wiring.
	Migrate bool
	// WithHTTP builds the router; CLI maintenance commands skip it.
	WithHTTP bool
}

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      *Config
	Repos    Repos
	Services Services
	Clients  Clients
	Server   *http.Server
	Metrics  *observability.Metrics

	dbService    *db.Service
	temporalCfg  temporalx.Config
	otelShutdown func(context.Context) error
}

func New(ctx context.Context, cfg *Config, log *logger.Logger, opts Options) (*App, error) {
	metrics := observability.Init(log)
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: cfg.Server.LogMode,
		Version:     Version,
	})

	dbService, err := db.NewService(db.Options{
		Driver:   cfg.Database.Driver,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Name:     cfg.Database.Name,
		Path:     cfg.Database.Path,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if opts.Migrate {
		if err := dbService.AutoMigrateAll(); err != nil {
			_ = dbService.Close()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}
	theDB := dbService.DB()
	if sqlDB, err := theDB.DB(); err == nil {
		metrics.RegisterDBStats(sqlDB, cfg.Database.Driver)
	}

	tcfg := temporalx.LoadConfig()
	clients, err := wireClients(ctx, log, cfg, tcfg, metrics)
	if err != nil {
		_ = dbService.Close()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, tcfg, reposet, clients)
	if err != nil {
		clients.Close()
		_ = dbService.Close()
		return nil, err
	}

	a := &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		Metrics:      metrics,
		dbService:    dbService,
		temporalCfg:  tcfg,
		otelShutdown: otelShutdown,
	}
	if opts.WithHTTP {
		handlerset := wireHandlers(theDB, log, serviceset)
		middleware := wireMiddleware(log, serviceset)
		a.Server = wireServer(log, cfg, handlerset, middleware, clients.Store, metrics)
	}
	return a, nil
}

// RunHTTP serves until ctx is done.
func (a *App) RunHTTP(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized with HTTP")
	}
	return a.Server.Run(ctx, ":"+strings.TrimPrefix(a.Cfg.Server.Port, ":"))
}

// RunWorker executes queued jobs until ctx is done, on Temporal when a client
// is connected and on the polling worker otherwise.
func (a *App) RunWorker(ctx context.Context) error {
	if a == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.Clients.Temporal != nil {
		r, err := temporalworker.NewRunner(
			a.Log,
			a.temporalCfg,
			a.Cfg.Jobs.Workers,
			a.Clients.Temporal,
			a.DB,
			a.Repos.JobRun,
			a.Services.JobRegistry,
			a.Services.JobNotifier,
		)
		if err != nil {
			return fmt.Errorf("init temporal worker: %w", err)
		}
		return r.Run(ctx)
	}
	w := worker.NewWorker(a.DB, a.Log, a.Repos.JobRun, a.Services.JobRegistry, a.Services.JobNotifier, worker.Config{
		Workers:      a.Cfg.Jobs.Workers,
		PollInterval: a.Cfg.Jobs.PollInterval,
		MaxAttempts:  a.Cfg.Jobs.MaxAttempts,
		RetryDelay:   a.Cfg.Jobs.RetryDelay,
		StaleRunning: a.Cfg.Jobs.StaleRunning,
	})
	return w.Run(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
