package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"domainacq/internal/app"
	"domainacq/internal/config"
	"domainacq/internal/handlers"
	"domainacq/internal/logger"
	"domainacq/internal/web"
	"domainacq/internal/worker"
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logg := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Storage, registrar and services
	a, err := app.New(ctx, cfg, logg, prometheus.DefaultRegisterer)
	if err != nil {
		logg.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// 3. API Server & HTML Renderer
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				logg.Error("request", append(attrs, "error", v.Error)...)
				return nil
			}
			logg.Debug("request", attrs...)
			return nil
		},
	}))

	renderer, err := web.NewRenderer()
	if err != nil {
		logg.Error("templates failed to parse", "error", err)
		os.Exit(1)
	}
	e.Renderer = renderer

	api := e.Group("/api")
	handlers.RegisterRoutes(e, api, handlers.New(a.Registrar, a.Acquisition, a.Batch, a.Importer, logg))

	// 4. Run server and auto search until a signal arrives
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info("domainacq starting", "addr", cfg.ServerAddr)
		if err := e.Start(cfg.ServerAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return worker.NewAutoSearch(a.Batch, cfg.AutoSearchInterval, logg).Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logg.Info("shutting down")
		a.Batch.Shutdown()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logg.Error("server stopped", "error", err)
		a.Close()
		os.Exit(1)
	}
}
