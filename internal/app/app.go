package app

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/wellness-backend/internal/data/db"
	"github.com/yungbote/wellness-backend/internal/http"
	"github.com/yungbote/wellness-backend/internal/observability"
	"github.com/yungbote/wellness-backend/internal/platform/envutil"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *http.Server
	Cfg      Config
	Repos    Repos
	Services Services
	Clients  Clients
	Metrics  *observability.Metrics

	dbs          db.Service
	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development", nil))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}

	otelShutdown := observability.InitOTel(context.Background(), log, cfg.Otel)
	metrics := observability.Init(cfg.MetricsEnabled)

	dbs, err := db.Open(log, cfg.DB)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	theDB := dbs.DB()
	if err := db.AutoMigrateAll(theDB); err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	metrics.RegisterDB(log, theDB, cfg.DB.Driver)

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, clients, metrics)
	if err != nil {
		clients.Close(log)
		_ = dbs.Close()
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, cfg, serviceset, healthChecks(dbs, clients.Revocations))
	middleware := wireMiddleware(log, serviceset)
	server := wireServer(log, cfg, handlerset, middleware, metrics)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		Metrics:      metrics,
		dbs:          dbs,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP and runs background loops until ctx is cancelled or one of
// them fails. It closes the app before returning.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Server.Run(gctx, net.JoinHostPort("", a.Cfg.Port), a.Cfg.ShutdownTimeout)
	})
	if a.Services.Janitor != nil {
		g.Go(func() error {
			return a.Services.Janitor.Run(gctx)
		})
	}
	if a.Clients.Revocations != nil {
		a.Metrics.StartRedisCollector(gctx, a.Log, a.Clients.Revocations, a.Cfg.RedisPingInterval)
	}
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil && a.Log != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
		a.otelShutdown = nil
	}
	a.Clients.Close(a.Log)
	a.Clients = Clients{}
	if a.dbs != nil {
		if err := a.dbs.Close(); err != nil && a.Log != nil {
			a.Log.Warn("Closing database failed", "error", err)
		}
		a.dbs = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
