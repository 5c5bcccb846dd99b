package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/kWAYTV/rust-decay-notification-app/internal/app"
	"github.com/kWAYTV/rust-decay-notification-app/internal/config"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/alerts"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/presets"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/storage"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/tracker"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "upkeep",
	Short: "Upkeep - track decaying base resources and get warned before they run out",
	Long: `Upkeep tracks containers of wood, stone, metal and armored materials that
are consumed at a fixed daily rate. It shows how long each stock lasts and
raises one alert per depletion cycle when a stock enters the critical window.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.upkeep/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	return app.NewLogger(cfg, os.Stderr)
}

// initPresets loads the default stock values.
func initPresets(cfg *config.Config) (*presets.Set, error) {
	return app.LoadPresets(cfg)
}

// initSession creates a fully wired session with its state loaded. A
// non-nil toast writer receives the short in-app message of each alert.
func initSession(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, toast io.Writer) (*tracker.Session, storage.Storage, error) {
	store, err := app.OpenStorage(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	var sink alerts.Notifier
	if toast != nil {
		sink = alerts.NewToastNotifier(toast)
	}
	session, err := app.NewSession(cmd.Context(), cfg, store, logger, sink)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	return session, store, nil
}
