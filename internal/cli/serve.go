package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kWAYTV/rust-decay-notification-app/internal/config"
	"github.com/kWAYTV/rust-decay-notification-app/internal/server"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/tracker"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the alert loop in the background with a local HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "Listen address (default from config)")
	serveCmd.Flags().Bool("no-api", false, "Only run the alert loop")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	listen, _ := cmd.Flags().GetString("listen")
	if listen != "" {
		cfg.Server.Listen = listen
	}
	noAPI, _ := cmd.Flags().GetBool("no-api")

	logger := newLogger(cfg)

	session, store, err := initSession(cmd, cfg, logger, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer store.Close()

	if !session.AlertsEnabled() {
		logger.Warn("alerts are disabled, run 'upkeep alerts enable' to receive them")
	}

	d := cfg.Engine.Durations()
	runner := tracker.NewRunner(session, tracker.RunnerConfig{AlertInterval: d.AlertInterval}, logger)
	runner.Start(cmd.Context())
	defer runner.Stop()

	errCh := make(chan error, 1)
	var srv *http.Server
	if !noAPI {
		srv = &http.Server{
			Addr:         cfg.Server.Listen,
			Handler:      server.NewServer(session, logger).Handler(),
			ReadTimeout:  config.ParseDuration(cfg.Server.ReadTimeout, 10*time.Second),
			WriteTimeout: config.ParseDuration(cfg.Server.WriteTimeout, 10*time.Second),
		}
		go func() {
			logger.Info("api started", "listen", cfg.Server.Listen)
			fmt.Fprintf(os.Stderr, "Upkeep API listening on %s\n", cfg.Server.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-cmd.Context().Done():
		logger.Info("shutting down", "reason", cmd.Context().Err())
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("serve stopped")
	return nil
}
