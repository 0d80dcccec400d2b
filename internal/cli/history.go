package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCmd(st *rootState) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List completed trips, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			entries := st.app.Guide.History().List()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No trips recorded yet.")
				return nil
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}
			for _, e := range entries {
				rated := " "
				if e.PostTripRated {
					rated = "✓"
				}
				fmt.Fprintf(out, "%s  %s  %-28s  %s  %d intentions  %s\n",
					rated,
					e.StartTime.Local().Format("2006-01-02 15:04"),
					e.Title,
					formatDuration(e.Duration()),
					len(e.Intentions),
					shortID(e.ID))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of trips to show (0 for all)")
	return cmd
}
