package cli

import (
	"fmt"

	"github.com/kWAYTV/rust-decay-notification-app/pkg/model"
	"github.com/spf13/cobra"
)

var refillCmd = &cobra.Command{
	Use:   "refill <container>",
	Short: "Mark stocks as topped up to their configured amount",
	Long: `Mark stocks as refilled now. Without --kind every stock of the container is
refilled. Refilling starts a new depletion cycle, so the stock can alert again.`,
	Args: cobra.ExactArgs(1),
	RunE: runRefill,
}

func init() {
	rootCmd.AddCommand(refillCmd)

	refillCmd.Flags().StringSliceP("kind", "k", nil, "Resource kinds to refill (default: all)")
}

func runRefill(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	names, _ := cmd.Flags().GetStringSlice("kind")
	kinds := make([]model.ResourceKind, 0, len(names))
	for _, name := range names {
		kind, err := model.ParseKind(name)
		if err != nil {
			return err
		}
		kinds = append(kinds, kind)
	}

	session, store, err := initSession(cmd, cfg, newLogger(cfg), nil)
	if err != nil {
		return err
	}
	defer store.Close()

	c, err := resolveContainer(session.Containers(), args[0])
	if err != nil {
		return err
	}

	c, err = session.Refill(cmd.Context(), c.ID, kinds...)
	if err != nil {
		return fmt.Errorf("refill: %w", err)
	}

	if len(kinds) == 0 {
		kinds = c.Kinds()
	}
	for _, k := range kinds {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s refilled to %.0f\n", c.Name, k.Label(), c.Resources[k].Amount)
	}
	return nil
}
