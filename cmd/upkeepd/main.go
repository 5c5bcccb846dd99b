package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kWAYTV/rust-decay-notification-app/internal/app"
	"github.com/kWAYTV/rust-decay-notification-app/internal/config"
	"github.com/kWAYTV/rust-decay-notification-app/internal/server"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/alerts"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/tracker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("UPKEEP_CONFIG"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := app.NewLogger(cfg, os.Stderr)

	store, err := app.OpenStorage(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// No UI: toasts go to the log
	session, err := app.NewSession(ctx, cfg, store, logger, alerts.NewLogNotifier(logger))
	if err != nil {
		return err
	}

	d := cfg.Engine.Durations()
	runner := tracker.NewRunner(session, tracker.RunnerConfig{AlertInterval: d.AlertInterval}, logger)
	runner.Start(ctx)
	defer runner.Stop()

	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      server.NewServer(session, logger).Handler(),
		ReadTimeout:  config.ParseDuration(cfg.Server.ReadTimeout, 10*time.Second),
		WriteTimeout: config.ParseDuration(cfg.Server.WriteTimeout, 10*time.Second),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("upkeepd started", "listen", cfg.Server.Listen, "alerts_enabled", session.AlertsEnabled())
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
