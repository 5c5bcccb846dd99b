package cli

import (
	"fmt"

	"github.com/kWAYTV/rust-decay-notification-app/internal/app"
	"github.com/spf13/cobra"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Manage depletion alerts",
}

var alertsEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Turn depletion alerts on",
	RunE:  func(cmd *cobra.Command, _ []string) error { return setAlerts(cmd, true) },
}

var alertsDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Turn depletion alerts off",
	RunE:  func(cmd *cobra.Command, _ []string) error { return setAlerts(cmd, false) },
}

var alertsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether alerts are on and where they are delivered",
	RunE:  runAlertsStatus,
}

func init() {
	rootCmd.AddCommand(alertsCmd)
	alertsCmd.AddCommand(alertsEnableCmd)
	alertsCmd.AddCommand(alertsDisableCmd)
	alertsCmd.AddCommand(alertsStatusCmd)
}

func setAlerts(cmd *cobra.Command, enabled bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	session, store, err := initSession(cmd, cfg, newLogger(cfg), nil)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := session.SetAlertsEnabled(cmd.Context(), enabled); err != nil {
		return err
	}

	if enabled {
		fmt.Fprintln(cmd.OutOrStdout(), "Alerts on")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Alerts off")
	}
	return nil
}

func runAlertsStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	session, store, err := initSession(cmd, cfg, newLogger(cfg), nil)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if session.AlertsEnabled() {
		fmt.Fprintln(out, "Alerts on")
	} else {
		fmt.Fprintln(out, "Alerts off. Use 'upkeep alerts enable' to turn them on.")
	}
	fmt.Fprintf(out, "Critical window: %s\n", session.Threshold())
	for _, n := range app.Notifiers(cfg, nil) {
		fmt.Fprintf(out, "  notifier: %s\n", n.Name())
	}
	return nil
}
