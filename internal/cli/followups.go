package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/sadopc/tripguide/internal/guide"
	"github.com/sadopc/tripguide/internal/intention"
	"github.com/spf13/cobra"
)

func newFollowUpsCmd(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "followups [trip-id]",
		Short: "Show follow-up ratings that are open, or the slots of one trip",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			g := st.app.Guide
			if len(args) == 1 {
				list, err := g.FollowUps(args[0])
				if err != nil {
					return err
				}
				for _, f := range list {
					fmt.Fprintf(out, "%s %s\n", f.Emoji, f.Text)
					for _, s := range f.Statuses {
						fmt.Fprintf(out, "    %-7s %s\n", s.Type, followUpState(s))
					}
				}
				return nil
			}

			pending := g.Pending()
			if len(pending) == 0 {
				fmt.Fprintln(out, "No follow-ups due.")
				return nil
			}
			printPending(out, pending)
			return nil
		},
	}
}

func followUpState(s intention.FollowUpStatus) string {
	switch {
	case s.AlreadyRated:
		return "already rated"
	case s.Available:
		return "open"
	case s.DaysRemaining == 1:
		return "opens in 1 day"
	}
	return fmt.Sprintf("opens in %d days", s.DaysRemaining)
}

func printPending(out io.Writer, pending []guide.PendingFollowUp) {
	for _, p := range pending {
		fmt.Fprintf(out, "%-7s  %-28s  %s  (%s %s)\n", p.Type, p.TripTitle, p.Text, shortID(p.TripID), shortID(p.IntentionID))
	}
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%02dm", h, m)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
