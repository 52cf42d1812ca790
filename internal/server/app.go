// Package server initializes and runs the workload tracker. It opens the
// database, wires repositories, services and the HTTP API, and handles
// graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/workloadtracker/internal/logging"
	"github.com/dmitrijs2005/workloadtracker/internal/server/auth"
	"github.com/dmitrijs2005/workloadtracker/internal/server/config"
	"github.com/dmitrijs2005/workloadtracker/internal/server/database"
	"github.com/dmitrijs2005/workloadtracker/internal/server/httpapi"
	"github.com/dmitrijs2005/workloadtracker/internal/server/middleware"
	"github.com/dmitrijs2005/workloadtracker/internal/server/observability"
	"github.com/dmitrijs2005/workloadtracker/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/workloadtracker/internal/server/respond"
	"github.com/dmitrijs2005/workloadtracker/internal/server/revocation"
	"github.com/dmitrijs2005/workloadtracker/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config          *config.Config
	logger          logging.Logger
	db              *database.Database
	redis           redis.UniversalClient
	shutdownTracing observability.ShutdownFunc
	server          *httpapi.Server
}

// NewApp connects to the database and builds the full handler tree. The
// database is verified before NewApp returns, so a MySQL outage either falls
// back to SQLite here or fails startup.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	app := &App{config: cfg, logger: logger}

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.ServiceName, cfg.OTLPEndpoint, cfg.OTLPInsecure)
	if err != nil {
		return nil, fmt.Errorf("tracing init error: %w", err)
	}
	app.shutdownTracing = shutdownTracing

	var metrics *observability.Metrics
	var dbOpts []database.Option
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
		dbOpts = append(dbOpts, database.WithFallbackHook(func(from, to database.Kind) { metrics.DBFallback() }))
	}

	db, err := database.Open(ctx, cfg.Database, logger.With("component", "database"), dbOpts...)
	if err != nil {
		_ = app.shutdownTracing(ctx)
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = db

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpiresIn,
		auth.WithLogger(logger),
		auth.WithProduction(cfg.Production()),
	)

	revoked := app.revocationStore()
	rm := repomanager.NewSQLRepositoryManager()

	us := services.NewUserService(db, rm, tokens, revoked, logger.With("component", "users"))
	ws := services.NewWorkloadService(db, rm, cfg.HideForeignResources, logger.With("component", "workloads"))

	if cfg.SeedDefaultUsers {
		if err := us.SeedDefaults(ctx); err != nil {
			app.close(ctx)
			return nil, err
		}
	}

	resp := respond.New(cfg.Production(), logger)
	authn := middleware.NewAuthenticator(tokens, rm.Users(db), revoked, resp, metrics, logger)

	opts := httpapi.Options{ExpiryWarning: cfg.TokenExpiryWarning}
	if rs, ok := revoked.(*revocation.Redis); ok {
		opts.Revocation = rs
	}
	handler := httpapi.NewHandler(us, ws, db, authn, resp, metrics, logger, opts)
	app.server = httpapi.NewServer(cfg.HTTPAddr, handler.Routes(), logger)

	return app, nil
}

func (app *App) revocationStore() revocation.Store {
	switch app.config.Revocation {
	case config.RevocationMemory:
		return revocation.NewMemory()
	case config.RevocationRedis:
		app.redis = redis.NewClient(&redis.Options{
			Addr:     app.config.RedisAddr,
			Password: app.config.RedisPassword,
			DB:       app.config.RedisDB,
		})
		return revocation.NewRedis(app.redis, app.logger.With("component", "revocation"))
	default:
		return nil
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run listens on the configured address until ctx is cancelled or a
// termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	app.initSignalHandler(cancelFunc)

	return app.run(ctx, app.config.HTTPAddr, app.server.Run)
}

// Serve is Run on an existing listener, without signal handling.
func (app *App) Serve(ctx context.Context, ln net.Listener) error {
	return app.run(ctx, ln.Addr().String(), func(ctx context.Context) error {
		return app.server.Serve(ctx, ln)
	})
}

// run blocks in serve, then closes the database, the redis client and the
// tracer provider in that order.
func (app *App) run(ctx context.Context, addr string, serve func(context.Context) error) error {
	app.logger.Info(ctx, "Starting app...",
		"addr", addr,
		"database", app.db.Kind(),
		"environment", app.config.Environment,
	)

	var (
		wg       sync.WaitGroup
		serveErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if serveErr = serve(ctx); serveErr != nil {
			app.logger.Error(ctx, "http server failed", "error", serveErr)
		}
	}()

	wg.Wait()

	app.close(context.Background())
	app.logger.Info(ctx, "app stopped")
	return serveErr
}

func (app *App) close(ctx context.Context) {
	var errs []error
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		errs = append(errs, app.shutdownTracing(ctx))
	}
	if err := errors.Join(errs...); err != nil {
		app.logger.Error(ctx, "error during shutdown", "error", err)
	}
}
