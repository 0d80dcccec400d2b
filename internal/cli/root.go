// Package cli wires configuration, storage and the domain services into
// cobra commands.
package cli

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/tripguide/internal/config"
	"github.com/sadopc/tripguide/internal/tui"
	"github.com/spf13/cobra"
)

type rootState struct {
	configPath string
	app        *AppContext
}

// close releases the app once; later calls are no-ops.
func (st *rootState) close() error {
	if st.app == nil {
		return nil
	}
	err := st.app.Close()
	st.app = nil
	return err
}

// NewRootCmd builds the command tree. With no subcommand it opens the TUI.
func NewRootCmd() *cobra.Command {
	cmd, _ := newRootCmd()
	return cmd
}

func newRootCmd() (*cobra.Command, *rootState) {
	st := &rootState{}

	rootCmd := &cobra.Command{
		Use:   "tripguide",
		Short: "Guide for supervised trips",
		Long: `tripguide walks through trip setup, times the come-up, peak and comedown
phases, and collects post-trip and 7/14/30-day follow-up ratings for your
intentions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(st.configPath)
			if err != nil {
				return err
			}
			app, err := NewAppContext(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			st.app = app
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return st.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(st.app)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&st.configPath, "config", "c", "", "Config file (default: <user config dir>/tripguide/config.yaml)")

	rootCmd.AddCommand(newExportCmd(st))
	rootCmd.AddCommand(newHistoryCmd(st))
	rootCmd.AddCommand(newIntentionsCmd(st))
	rootCmd.AddCommand(newFollowUpsCmd(st))
	return rootCmd, st
}

// execute runs the tree and closes the app even when a command fails, since
// cobra skips post-run hooks after an error.
func execute(cmd *cobra.Command, st *rootState) error {
	err := cmd.Execute()
	return errors.Join(err, st.close())
}

func Execute() {
	cmd, st := newRootCmd()
	if err := execute(cmd, st); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runTUI(app *AppContext) error {
	m := tui.NewApp(app.Guide, tui.WithTickInterval(app.Config.TickInterval))
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
