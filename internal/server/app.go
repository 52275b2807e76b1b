// Package server wires the AI proxy together: vendor client, response
// cache, HTTP API, gRPC health service, tracing and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/learnassist/internal/buildinfo"
	"github.com/dmitrijs2005/learnassist/internal/logging"
	"github.com/dmitrijs2005/learnassist/internal/server/ai"
	"github.com/dmitrijs2005/learnassist/internal/server/analysis"
	"github.com/dmitrijs2005/learnassist/internal/server/cache"
	"github.com/dmitrijs2005/learnassist/internal/server/config"
	"github.com/dmitrijs2005/learnassist/internal/server/telemetry"

	gs "github.com/dmitrijs2005/learnassist/internal/server/grpc"
	hs "github.com/dmitrijs2005/learnassist/internal/server/http"
)

const serviceName = "learnassist-proxy"

type App struct {
	config   *config.Config
	logger   logging.Logger
	cache    cache.Cache
	handler  http.Handler
	health   *gs.HealthServer
	tracing  telemetry.Shutdown
	syncLogs func()
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	zl, err := logging.NewZapLogger(c.LogMode)
	if err != nil {
		return nil, err
	}
	logger := zl.With("service", serviceName)

	gin.SetMode(gin.ReleaseMode)

	tracing, err := telemetry.Init(ctx, logger, telemetry.Config{
		ServiceName: serviceName,
		Version:     buildinfo.Version,
		Environment: c.LogMode,
		Exporter:    c.TraceExporter,
		Endpoint:    c.OTLPEndpoint,
		Writer:      os.Stdout,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init error: %w", err)
	}

	model, err := ai.NewGemini(ctx, ai.GeminiConfig{
		APIKey:   c.VendorKey,
		Endpoint: c.VendorEndpoint,
		Model:    c.Model,
		Timeout:  c.VendorTimeout,
	})
	if err != nil {
		_ = tracing(ctx)
		return nil, fmt.Errorf("vendor init error: %w", err)
	}

	var rc cache.Cache = cache.Nop{}
	if c.RedisAddr != "" {
		rc, err = cache.NewRedis(ctx, c.RedisAddr)
		if err != nil {
			logger.Warn(ctx, "response cache disabled", "addr", c.RedisAddr, "error", err)
			rc = cache.Nop{}
		}
	}

	app := newApp(c, logger, model, rc)
	app.tracing = tracing
	app.syncLogs = zl.Sync
	return app, nil
}

func newApp(c *config.Config, logger logging.Logger, model ai.Model, rc cache.Cache) *App {
	svc := analysis.NewService(model, rc, c.CacheTTL, logger)
	handler := hs.NewRouter(svc, logger, hs.Options{
		ServiceName:    serviceName,
		AllowOrigins:   c.AllowOrigins,
		TokenSecret:    c.TokenSecret,
		MaxUploadBytes: c.MaxUploadBytes,
	})

	return &App{
		config:   c,
		logger:   logger,
		cache:    rc,
		handler:  handler,
		health:   gs.NewHealthServer(c.GRPCAddr, logger),
		tracing:  func(context.Context) error { return nil },
		syncLogs: func() {},
	}
}

// Handler is the HTTP API; the Lambda entry point serves it directly.
func (app *App) Handler() http.Handler {
	return app.handler
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context) error {
	srv := &http.Server{Addr: app.config.HTTPAddr, Handler: app.handler}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "Stopping HTTP server...")
	app.health.SetServing(false)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run serves until ctx is cancelled, a termination signal arrives or one of
// the servers fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "version", buildinfo.Version, "model", app.config.Model)

	app.initSignalHandler(ctx, cancelFunc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.startHTTPServer(gctx)
	})
	if app.config.GRPCAddr != "" {
		g.Go(func() error {
			return app.health.Run(gctx)
		})
	}

	err := g.Wait()
	if err != nil {
		app.logger.Error(ctx, err.Error())
	}
	return err
}

// Close releases the cache connection and flushes spans and logs.
func (app *App) Close(ctx context.Context) error {
	err := errors.Join(app.cache.Close(), app.tracing(ctx))
	app.syncLogs()
	return err
}
