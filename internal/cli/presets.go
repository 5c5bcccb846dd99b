package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Show default stock values",
}

var presetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the default amount and daily upkeep per resource kind",
	RunE:  runPresetsList,
}

func init() {
	rootCmd.AddCommand(presetsCmd)
	presetsCmd.AddCommand(presetsListCmd)
}

func runPresetsList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	set, err := initPresets(cfg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "KIND\tAMOUNT\tUPKEEP/DAY\tLASTS\n")
	for _, p := range set.All() {
		lasts := "forever"
		if p.DailyUpkeep > 0 {
			lasts = fmt.Sprintf("%.1fh", p.Amount/p.DailyUpkeep*24)
		}
		fmt.Fprintf(w, "%s\t%.0f\t%.0f\t%s\n", p.Kind, p.Amount, p.DailyUpkeep, lasts)
	}
	return w.Flush()
}
