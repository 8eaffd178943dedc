package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lowaak/tabata-timer/internal/tabata"
	"github.com/lowaak/tabata-timer/internal/trainer"
)

func newPlanCommand() *cobra.Command {
	var (
		last   bool
		preset string
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the phase schedule of a session without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			name, session, err := resolveSession(cmd.Flags(), s, preset, last)
			if err != nil {
				return err
			}
			s.Session = session
			if err := s.Validate(); err != nil {
				return err
			}
			return printPlan(cmd.OutOrStdout(), name, session)
		},
	}
	cmd.Flags().BoolVar(&last, "last", false, "plan the last session")
	cmd.Flags().StringVar(&preset, "preset", "", "plan a named preset (see 'tabata presets')")
	return cmd
}

func newPresetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the built-in sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			var b strings.Builder
			for _, p := range trainer.AllPresets {
				plan, err := tabata.Derive(p.Config)
				if err != nil {
					return err
				}
				fmt.Fprintf(&b, "%-16s %s, %s total\n", p.Name, sessionSummary(p.Config), formatClock(plan.TotalDuration()))
				fmt.Fprintf(&b, "%-16s %s\n", "", p.Description)
			}
			_, err := io.WriteString(cmd.OutOrStdout(), b.String())
			return err
		},
	}
}

func newExercisesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exercises",
		Short: "List the exercises drawn for work intervals",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			var b strings.Builder
			for i, name := range s.Exercises {
				fmt.Fprintf(&b, "%2d. %s\n", i+1, name)
			}
			fmt.Fprintf(&b, "\nOrder: %s\n", s.ExerciseOrder)
			_, err = io.WriteString(cmd.OutOrStdout(), b.String())
			return err
		},
	}
}

func sessionSummary(cfg tabata.SessionConfig) string {
	return fmt.Sprintf("%d x %d min, %ds work / %ds rest, %ds between blocks",
		cfg.NumBlocks, cfg.BlockMinutes, cfg.WorkSeconds, cfg.RestSeconds, cfg.BlockRestSeconds)
}

// formatClock renders d as MM:SS
func formatClock(d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// printPlan writes the derived quantities and one row per phase with its start offset
func printPlan(w io.Writer, name string, cfg tabata.SessionConfig) error {
	plan, err := tabata.Derive(cfg)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\n", name)
	fmt.Fprintf(&b, "Blocks: %s\n", sessionSummary(cfg))
	fmt.Fprintf(&b, "Intervals per block: %d\n", plan.IntervalsPerBlock)
	fmt.Fprintf(&b, "Phases: %d (%d work, %d block rests)\n", plan.PhaseCount(), plan.WorkPhases(), plan.BlockRests())
	fmt.Fprintf(&b, "Total: %s\n\n", formatClock(plan.TotalDuration()))

	fmt.Fprintf(&b, "%-6s  %-8s  %-10s  %-8s  %s\n", "BLOCK", "INTERVAL", "PHASE", "DURATION", "START")
	var start time.Duration
	for phase := range plan.Phases() {
		fmt.Fprintf(&b, "%-6d  %-8s  %-10s  %-8s  %s\n",
			phase.Block, phase.IntervalText(), phase.Kind, fmt.Sprintf("%ds", phase.Seconds()), formatClock(start))
		start += phase.Duration
	}

	_, err = io.WriteString(w, b.String())
	return err
}
