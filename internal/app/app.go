// Package app provides top-level lifecycle management for the tradedesk
// coordinator. It wires the dependencies, seeds the holding store, connects
// the gateway, and runs the reconciliation loop and HTTP server until
// shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/forcepush/tradedesk/internal/config"
	"github.com/forcepush/tradedesk/internal/domain"
	"github.com/forcepush/tradedesk/internal/executor"
	"github.com/forcepush/tradedesk/internal/server"
)

// App is the root application object. It owns the configuration, logger,
// and a list of cleanup functions called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies, seeds both books, starts the coordinator's
// goroutines, and blocks until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting coordinator",
		slog.String("gateway", a.cfg.Gateway.WsURL),
		slog.String("log_level", a.cfg.LogLevel),
	)
	a.logger.DebugContext(ctx, "active configuration",
		slog.Any("config", config.RedactedConfig(a.cfg)),
	)

	deps, cleanup, err := Wire(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	a.seedBooks(ctx, deps)

	if err := deps.Transport.Connect(ctx); err != nil {
		return fmt.Errorf("app: connect gateway: %w", err)
	}

	coord := executor.NewCoordinator(deps.Store, deps.Transport, deps.Sessions, deps.Sink, a.logger)
	coord.SetInFlightTTL(time.Duration(a.cfg.Coordinator.InFlightTTLSeconds) * time.Second)

	reconciler := executor.NewReconciler(deps.Store, coord, deps.Sink, a.logger)
	reconciler.SetSweepInterval(time.Duration(a.cfg.Coordinator.SweepIntervalSeconds) * time.Second)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return reconciler.Run(gctx, deps.Transport.Messages())
	})

	if a.cfg.Server.Enabled {
		srv := server.NewServer(server.Config{
			Port:   a.cfg.Server.Port,
			APIKey: a.cfg.Server.APIKey,
		}, coord, deps.Store, deps.Sessions, a.logger)

		g.Go(srv.Start)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// seedBooks loads the initial snapshot for every variant. A book that
// cannot be seeded starts empty; its symbols simply cannot be queued until
// a later seed succeeds.
func (a *App) seedBooks(ctx context.Context, deps *Dependencies) {
	for _, variant := range domain.Variants {
		holdings, err := deps.Snapshots.Snapshot(ctx, variant)
		if err != nil {
			a.logger.Error("book seed failed",
				slog.String("variant", variant.Label()),
				slog.String("error", err.Error()),
			)
			continue
		}
		deps.Store.Seed(variant, holdings)
	}
}

// Close tears down all resources in reverse registration order. Safe to
// call multiple times.
func (a *App) Close() {
	a.logger.Info("shutting down")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
