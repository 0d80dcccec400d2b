package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sadopc/tripguide/internal/export"
	"github.com/spf13/cobra"
)

func newExportCmd(st *rootState) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export trip history to CSV or JSON",
		Long: `Export completed trips for external analysis.

Examples:
  tripguide export --format csv
  tripguide export --format json --output trips.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				output = filepath.Join(home, fmt.Sprintf("tripguide-export-%s.%s", time.Now().Format("2006-01-02"), format))
			}

			entries := st.app.Guide.History().List()
			var err error
			switch format {
			case "csv":
				err = export.ToCSV(entries, output)
			case "json":
				err = export.ToJSON(entries, output)
			default:
				return fmt.Errorf("unknown format %q (want csv or json)", format)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d trips to %s\n", len(entries), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Output format: csv, json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: ~/tripguide-export-<date>.<format>)")
	return cmd
}
