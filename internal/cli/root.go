// Package cli defines the cobra commands for the tabata binary.
// This file contains the root command, which opens the terminal UI.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lowaak/tabata-timer/internal/config"
)

const configFlag = "config"

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "tabata",
		Short: "Tabata interval timer with music",
		Long: `Tabata runs blocks of timed work and rest intervals, with a random
exercise for every work interval and a music track per block.

Without a subcommand it opens the terminal UI on the last session you ran.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// When no subcommand is provided, launch the UI if TTY, show help otherwise
			if !isTTY(cmd.OutOrStdout()) {
				return cmd.Help()
			}
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			return runTUI(s, nil)
		},
	}

	root.PersistentFlags().String(configFlag, "", "config file (default <state-dir>/config.yaml)")
	config.AddFlags(root.PersistentFlags())

	root.AddCommand(newRunCommand())
	root.AddCommand(newPlanCommand())
	root.AddCommand(newPresetsCommand())
	root.AddCommand(newExercisesCommand())
	return root
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// isTTY returns true if w is a terminal
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	configFile, err := cmd.Flags().GetString(configFlag)
	if err != nil {
		return config.Settings{}, err
	}
	return config.Load(cmd.Flags(), configFile)
}
