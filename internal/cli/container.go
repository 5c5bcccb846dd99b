package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/kWAYTV/rust-decay-notification-app/pkg/model"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/tracker"
	"github.com/spf13/cobra"
)

var errAmbiguous = errors.New("ambiguous container reference")

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Track a new container",
	Example: `  upkeep add "Main base" --stock stone=1000:500 --stock metal
  upkeep add Outpost --stock wood`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

var editCmd = &cobra.Command{
	Use:   "edit <container>",
	Short: "Change a container's name or stocks (all stocks restart from now)",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

var deleteCmd = &cobra.Command{
	Use:     "delete <container>",
	Aliases: []string{"rm"},
	Short:   "Stop tracking a container",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Show every container and how long its stocks last",
	RunE:    runList,
}

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)

	addCmd.Flags().StringArrayP("stock", "s", nil, "Stock as kind[=amount[:daily_upkeep]] (repeatable)")
	_ = addCmd.MarkFlagRequired("stock")

	editCmd.Flags().StringP("name", "n", "", "New name")
	editCmd.Flags().StringArrayP("stock", "s", nil, "Replacement stock as kind[=amount[:daily_upkeep]] (repeatable)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	set, err := initPresets(cfg)
	if err != nil {
		return err
	}
	specs, _ := cmd.Flags().GetStringArray("stock")
	stocks, err := parseStocks(specs, set, warnTo(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	session, store, err := initSession(cmd, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	c, err := session.Add(cmd.Context(), args[0], stocks)
	if err != nil {
		return fmt.Errorf("add container: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Container added:\n")
	fmt.Fprintf(out, "  ID:    %s\n", c.ID)
	fmt.Fprintf(out, "  Name:  %s\n", c.Name)
	for _, k := range c.Kinds() {
		s := c.Resources[k]
		fmt.Fprintf(out, "  %-7s %.0f (-%.0f/day)\n", k.Label()+":", s.Amount, s.DailyUpkeep)
	}
	return nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	set, err := initPresets(cfg)
	if err != nil {
		return err
	}

	session, store, err := initSession(cmd, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	c, err := resolveContainer(session.Containers(), args[0])
	if err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = c.Name
	}

	specs, _ := cmd.Flags().GetStringArray("stock")
	stocks := currentInputs(c)
	if len(specs) > 0 {
		stocks, err = parseStocks(specs, set, warnTo(cmd.ErrOrStderr()))
		if err != nil {
			return err
		}
	}

	edited, err := session.Edit(cmd.Context(), c.ID, name, stocks)
	if err != nil {
		return fmt.Errorf("edit container: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Container %s updated (%d stocks, refilled now)\n", edited.Name, len(edited.Resources))
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
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
	if err := session.Delete(cmd.Context(), c.ID); err != nil {
		return fmt.Errorf("delete container: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Container %s deleted\n", c.Name)
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	session, store, err := initSession(cmd, cfg, newLogger(cfg), nil)
	if err != nil {
		return err
	}
	defer store.Close()

	views := session.Views()
	if len(views) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No containers tracked. Use 'upkeep add' to create one.")
		return nil
	}

	writeViews(cmd.OutOrStdout(), views)
	return nil
}

// writeViews renders the collection as a table.
func writeViews(out io.Writer, views []tracker.ContainerView) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tCONTAINER\tRESOURCE\tREMAINING\tUPKEEP/DAY\tLEVEL\tTIME LEFT\n")
	for _, v := range views {
		for _, s := range v.Stocks {
			status := ""
			switch s.Level {
			case tracker.LevelEmpty:
				status = " [EMPTY]"
			case tracker.LevelCritical:
				status = " [CRITICAL]"
			}

			fmt.Fprintf(w, "%s\t%s\t%s\t%.0f/%.0f\t%.0f\t%.1f%%%s\t%s\n",
				shortID(v.ID), v.Name, s.Kind.Label(),
				s.Status.Remaining, s.Stock.Amount, s.Stock.DailyUpkeep,
				s.Status.Percentage, status, s.TimeLeft,
			)
		}
	}
	w.Flush()

	for _, v := range views {
		switch {
		case v.Depleted:
			fmt.Fprintf(out, "%s: Materials depleted!\n", v.Name)
		case v.Critical:
			fmt.Fprintf(out, "%s: Critical: refill soon!\n", v.Name)
		}
	}
}

// resolveContainer finds a container by exact id, unique id prefix or
// case-insensitive name.
func resolveContainer(containers []model.Container, ref string) (model.Container, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Container{}, fmt.Errorf("%w: empty reference", tracker.ErrNotFound)
	}
	var matches []model.Container
	for _, c := range containers {
		if c.ID == ref {
			return c, nil
		}
		if strings.HasPrefix(c.ID, ref) || strings.EqualFold(c.Name, ref) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return model.Container{}, fmt.Errorf("%w: %s", tracker.ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return model.Container{}, fmt.Errorf("%w: %q matches %d containers", errAmbiguous, ref, len(matches))
	}
}

func currentInputs(c model.Container) map[model.ResourceKind]model.StockInput {
	out := make(map[model.ResourceKind]model.StockInput, len(c.Resources))
	for k, s := range c.Resources {
		out[k] = model.StockInput{Amount: s.Amount, DailyUpkeep: s.DailyUpkeep}
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func warnTo(w io.Writer) func(string) {
	return func(msg string) {
		fmt.Fprintf(w, "warning: %s\n", msg)
	}
}
