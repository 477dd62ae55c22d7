// Package server wires the portal together: configuration, database and
// migrations, image storage, rate limiting, the REST API and the optional
// gRPC health endpoint. Run blocks until SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/incidentportal/internal/logging"
	"github.com/dmitrijs2005/incidentportal/internal/server/config"
	"github.com/dmitrijs2005/incidentportal/internal/server/httpapi"
	"github.com/dmitrijs2005/incidentportal/internal/server/ratelimit"
	"github.com/dmitrijs2005/incidentportal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/incidentportal/internal/server/services"
	"github.com/dmitrijs2005/incidentportal/internal/server/storage"

	gs "github.com/dmitrijs2005/incidentportal/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	redis  *redis.Client
	http   *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.Environment, os.Stdout)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	db, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		app.close(ctx)
		return nil, err
	}

	images, err := newImageStore(ctx, c)
	if err != nil {
		app.close(ctx)
		return nil, fmt.Errorf("image store: %w", err)
	}

	limiter, rdb, err := newLimiter(ctx, c)
	if err != nil {
		app.close(ctx)
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	app.redis = rdb

	router := httpapi.NewRouter(httpapi.Deps{
		Config:    c,
		Log:       logger,
		Users:     services.NewUserService(db, rm, c, logger),
		Incidents: services.NewIncidentService(db, rm, images, c, logger),
		Images:    images,
		Limiter:   limiter,
	})
	app.http = httpapi.NewServer(c.EndpointAddrHTTP, router, logger)

	return app, nil
}

func newImageStore(ctx context.Context, c *config.Config) (storage.ImageStore, error) {
	if c.StorageBackend == config.StorageS3 {
		s, err := storage.NewS3Store(ctx, c)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	s, err := storage.NewLocalStore(c.UploadDir)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// newLimiter returns a Redis-backed limiter when an address is configured
// and an in-process one otherwise.
func newLimiter(ctx context.Context, c *config.Config) (*ratelimit.Limiter, *redis.Client, error) {
	if c.RedisAddr == "" {
		return ratelimit.NewLimiter(ratelimit.NewMemoryCounter(), c.RateLimitMax, c.RateLimitWindow), nil, nil
	}

	rdb, err := ratelimit.NewRedisClient(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	return ratelimit.NewLimiter(ratelimit.NewRedisCounter(rdb), c.RateLimitMax, c.RateLimitWindow), rdb, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewHealthServer(app.config.EndpointAddrGRPC, app.logger, app.db)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "grpc health server failed", "error", err)
		cancelFunc()
	}
}

// Run serves until a shutdown signal arrives or ctx is cancelled, then
// releases the database and Redis connections.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment, "base_path", app.config.BasePath)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.EndpointAddrGRPC != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	app.close(context.WithoutCancel(ctx))
	app.logger.Info(ctx, "Graceful shutdown completed")
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(ctx, "redis close", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close", "error", err)
	}
}
