package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kWAYTV/rust-decay-notification-app/internal/tui"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open the live countdown screen (also runs alerts)",
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Logs would corrupt the alternate screen
	cfg.Logging.Level = "error"
	logger := newLogger(cfg)

	session, store, err := initSession(cmd, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	d := cfg.Engine.Durations()
	p := tea.NewProgram(tui.NewModel(session, d.DisplayInterval, d.AlertInterval),
		tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	return nil
}
