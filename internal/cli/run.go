package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lowaak/tabata-timer/internal/config"
	"github.com/lowaak/tabata-timer/internal/go_func_utils"
	"github.com/lowaak/tabata-timer/internal/trainer"
)

const quitHint = "Press 'q' then Enter to quit at any time."

func newRunCommand() *cobra.Command {
	var (
		plain  bool
		last   bool
		preset string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a session",
		Long: `Run a session straight away. The session comes from --preset, --last,
or the session flags and config file.

On a terminal the session opens in the UI; with --plain, or when stdout is
not a terminal, it prints a countdown to stdout and stops on Ctrl+C or
'q' followed by Enter.`,
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

			if plain || !isTTY(cmd.OutOrStdout()) {
				return runConsole(cmd, s, name)
			}
			return runTUI(s, &tuiStart{presetName: name, autoStart: true})
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print the countdown to stdout instead of opening the UI")
	cmd.Flags().BoolVar(&last, "last", false, "repeat the last session")
	cmd.Flags().StringVar(&preset, "preset", "", "run a named preset (see 'tabata presets')")
	return cmd
}

// runConsole runs one session with a ConsoleSink and returns when it finishes
func runConsole(cmd *cobra.Command, s config.Settings, name string) error {
	console := trainer.NewConsoleSink(cmd.OutOrStdout())
	a, err := newApp(s, console)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	watchQuit(a.logger, cmd.InOrStdin(), stop)

	if err := a.manager.Load(name, s.Session); err != nil {
		return err
	}
	if err := console.Intro(quitHint); err != nil {
		return err
	}

	state, err := runToEnd(ctx, a)
	if err != nil {
		return err
	}
	if state.Status == trainer.SessionStatusFailed {
		return fmt.Errorf("session failed: %w", state.Err)
	}
	return nil
}

// runToEnd starts the loaded session and waits for its final state, stopping it when ctx ends
func runToEnd(ctx context.Context, a *app) (trainer.SessionState, error) {
	ch := make(chan trainer.SessionState, 1)
	unregister := a.model.ListenToSessionState(ch)
	defer unregister()

	if err := a.manager.Start(); err != nil {
		return trainer.SessionState{}, err
	}

	done := ctx.Done()
	cancelled, stopSent := false, false
	stop := func() {
		err := a.manager.Stop()
		switch {
		case err == nil:
			stopSent = true
		case !errors.Is(err, trainer.ErrNoSessionRunning):
			a.logger.Printf("Stop failed: %v", err)
		}
	}
	for {
		select {
		case <-done:
			done = nil
			cancelled = true
			stop()
		case state := <-ch:
			if state.Status.Finished() {
				return state, nil
			}
			// A quit that arrived before the run started is applied once it is running
			if cancelled && !stopSent && state.Status == trainer.SessionStatusRunning {
				stop()
			}
		}
	}
}

// watchQuit cancels the session when a line reading "q" arrives on in.
// The reader goroutine lives until in is closed.
func watchQuit(logger *log.Logger, in io.Reader, cancel context.CancelFunc) {
	go_func_utils.SafeGo(logger, "cli.watchQuit", func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			if strings.EqualFold(strings.TrimSpace(scanner.Text()), "q") {
				logger.Println("Quit requested")
				cancel()
				return
			}
		}
	})
}
