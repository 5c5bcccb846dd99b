// Package app wires configuration into the logger, store, notifiers and
// session shared by the upkeep CLI and the upkeepd daemon.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/kWAYTV/rust-decay-notification-app/internal/config"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/alerts"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/presets"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/storage"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/tracker"
)

// NewLogger creates a structured logger from config writing to w.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// LoadPresets loads the default stock values.
func LoadPresets(cfg *config.Config) (*presets.Set, error) {
	if cfg.Presets.Path == "" {
		return presets.Default(), nil
	}
	set, err := presets.Load(cfg.Presets.Path)
	if err != nil {
		return nil, fmt.Errorf("load presets: %w", err)
	}
	return set, nil
}

// OpenStorage creates a storage backend from config.
func OpenStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	store, err := storage.NewSQLite(cfg.Storage.Path,
		storage.WithKey(cfg.Storage.Key),
		storage.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	return store, nil
}

// Notifiers creates the alert notifiers enabled in config. The toast sink
// always receives alerts; integrations without a target URL are skipped.
func Notifiers(cfg *config.Config, toast alerts.Notifier) []alerts.Notifier {
	var notifiers []alerts.Notifier

	if cfg.Alerts.Desktop.Enabled {
		notifiers = append(notifiers, alerts.NewDesktopNotifier())
	}

	if toast != nil {
		notifiers = append(notifiers, toast)
	}

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alerts.NewSlackNotifier(
			cfg.Alerts.Slack.WebhookURL,
			cfg.Alerts.Slack.Channel,
		))
	}

	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alerts.NewWebhookNotifier(
			cfg.Alerts.Webhook.URL,
			cfg.Alerts.Webhook.Secret,
		))
	}

	return notifiers
}

// NewSession creates a session on store dispatching to the configured
// notifiers, with its state loaded.
func NewSession(ctx context.Context, cfg *config.Config, store storage.Storage, logger *slog.Logger, toast alerts.Notifier) (*tracker.Session, error) {
	dispatcher := alerts.NewDispatcher(logger, Notifiers(cfg, toast)...)
	session := tracker.NewSession(store, logger,
		tracker.WithThreshold(cfg.Engine.Durations().CriticalThreshold),
		tracker.WithDispatcher(dispatcher),
	)
	if err := session.Load(ctx); err != nil {
		return nil, err
	}
	return session, nil
}
