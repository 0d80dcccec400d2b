package cli

import (
	"fmt"

	"github.com/sadopc/tripguide/internal/core"
	"github.com/sadopc/tripguide/internal/intention"
	"github.com/spf13/cobra"
)

func newIntentionsCmd(st *rootState) *cobra.Command {
	var available bool

	cmd := &cobra.Command{
		Use:   "intentions",
		Short: "List intentions with usage and average ratings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			engine := st.app.Guide.Intentions()
			list := engine.List()
			if available {
				list = engine.Available()
			}
			if len(list) == 0 {
				fmt.Fprintln(out, "No intentions.")
				return nil
			}
			for _, in := range list {
				fmt.Fprintf(out, "%-2s %-32s  used %d/%d", in.Emoji, in.Text, in.UsageCount(), intention.UsageCap)
				for _, kind := range core.RatingTypes {
					if avg, ok := in.Average(kind); ok {
						fmt.Fprintf(out, "  %s %.1f", kind, avg)
					}
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&available, "available", "a", false, "Only intentions that can still be picked for a trip")
	return cmd
}
