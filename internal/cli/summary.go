package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"fde-dashboard/internal/roster"
	"fde-dashboard/internal/views"
)

func newSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the proposed model's headline results",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			c := views.Conclude(roster.Default().Models(), cfg.ProposedMarker)
			printSummary(cmd.OutOrStdout(), c)
			return nil
		},
	}
}

func printSummary(w io.Writer, c views.Conclusion) {
	name := c.Name
	if !c.Found {
		name = "model"
	}
	fmt.Fprintf(w, "The proposed %s achieves %s mAP@50 and %s mAP@50-95, with only %s parameters and %s.\n",
		name, c.MAP50, c.MAP50_95, c.Params, c.FLOPs)
}
