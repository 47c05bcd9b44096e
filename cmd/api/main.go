package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/sheet-insights/pkg/config"
	"github.com/FACorreiaa/sheet-insights/pkg/logger"
	"github.com/FACorreiaa/sheet-insights/pkg/server"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	deps, err := InitDependencies(cfg, log)
	if err != nil {
		return err
	}
	defer deps.Cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := deps.Scheduler.Start(); err != nil {
		return err
	}
	defer deps.Scheduler.Stop()

	servers := []*http.Server{server.New(cfg.Server.Host, cfg.Server.Port, newRouter(deps))}
	if cfg.Observability.MetricsEnabled {
		mux := chi.NewRouter()
		mux.Handle("/metrics", deps.Metrics.Handler())
		servers = append(servers, server.New(cfg.Server.Host, cfg.Observability.MetricsPort, mux))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			log.Info("listening", slog.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			errs = append(errs, srv.Shutdown(shutdownCtx))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

func newRouter(deps *Dependencies) http.Handler {
	r := server.NewRouter(server.Config{
		AllowedOrigins:     deps.Config.Server.AllowedOrigins,
		RateLimitPerSecond: deps.Config.Server.RateLimitPerSecond,
		RateLimitBurst:     deps.Config.Server.RateLimitBurst,
	}, deps.Logger, deps.Metrics)

	deps.ImportHandler.Routes(r)
	deps.InsightsHandler.Routes(r)
	return r
}
