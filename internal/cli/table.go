package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"fde-dashboard/internal/roster"
	"fde-dashboard/internal/table"
	"fde-dashboard/internal/theme"
	"fde-dashboard/internal/views"
)

const (
	performanceTitle = "Table I — Model Performance Comparison (UA-DETRAC Subset)"
	lossTitle        = "Table II — Model Loss Comparison at Convergence"
)

func newTableCmd(a *app) *cobra.Command {
	var kind, themeName string

	cmd := &cobra.Command{
		Use:   "table",
		Short: "Print the comparison tables in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if themeName == "" {
				themeName = cfg.DefaultTheme
			}
			snap := views.Build(roster.Default(), cfg.ProposedMarker)
			return printTables(cmd.OutOrStdout(), snap, kind, theme.Parse(themeName))
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "all", "performance|loss|all")
	cmd.Flags().StringVar(&themeName, "theme", "", "light|dark (default DEFAULT_THEME)")
	return cmd
}

func printTables(w io.Writer, snap views.Snapshot, kind string, sig theme.Signal) error {
	kind = strings.ToLower(strings.TrimSpace(kind))
	switch kind {
	case "performance", "loss", "all":
	default:
		return fmt.Errorf("invalid --kind %q (must be performance|loss|all)", kind)
	}

	t := table.NewTerminal(sig)
	if kind == "performance" || kind == "all" {
		fmt.Fprintln(w, performanceTitle)
		fmt.Fprintln(w, t.Performance(snap.Performance))
	}
	if kind == "all" {
		fmt.Fprintln(w)
	}
	if kind == "loss" || kind == "all" {
		fmt.Fprintln(w, lossTitle)
		fmt.Fprintln(w, t.Loss(snap.Losses))
	}
	return nil
}
