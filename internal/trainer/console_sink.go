package trainer

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/lowaak/tabata-timer/internal/tabata"
)

// ConsoleSink prints a session to a plain terminal: a header per phase and a
// countdown line rewritten in place with a carriage return.
type ConsoleSink struct {
	mu  sync.Mutex
	out io.Writer
	err error // First write error, reported on every later call
}

func NewConsoleSink(out io.Writer) *ConsoleSink {
	if out == nil {
		panic("ConsoleSink: writer cannot be nil")
	}
	return &ConsoleSink{out: out}
}

// Intro prints the banner shown before the first phase
func (c *ConsoleSink) Intro(quitHint string) error {
	return c.printf("Starting Tabata Timer! (%s)\n", quitHint)
}

func (c *ConsoleSink) OnPhase(e tabata.PhaseEvent) error {
	switch e.Kind {
	case tabata.PhaseWork:
		if e.Interval == 1 {
			if err := c.printf("\n--- Block %d/%d ---\n", e.Block, e.NumBlocks); err != nil {
				return err
			}
		}
		return c.printf("\nInterval %s: Workout! (%s)\n", e.IntervalText(), e.Exercise)
	case tabata.PhaseRest:
		return c.printf("\nTime to Rest! (%s)\n", tabata.RestLabel)
	default:
		return c.printf("\n--- Rest Between Blocks ---\n")
	}
}

func (c *ConsoleSink) OnTick(t tabata.TickEvent) error {
	return c.printf("\r%s: %2ds ", countdownMessage(t.Phase.Kind), t.Remaining)
}

func (c *ConsoleSink) OnFinish(outcome tabata.Outcome, err error) {
	switch outcome {
	case tabata.OutcomeCompleted:
		_ = c.printf("\n\nTabata session complete! Amazing effort!\n")
	case tabata.OutcomeCancelled:
		_ = c.printf("\n\nTimer stopped by user. Goodbye!\n")
	default:
		reason := err
		if reason == nil {
			reason = errors.New("unknown error")
		}
		_ = c.printf("\n\nError: %v. Exiting.\n", reason)
	}
}

func countdownMessage(kind tabata.PhaseKind) string {
	switch kind {
	case tabata.PhaseWork:
		return "Workout Time Left"
	case tabata.PhaseRest:
		return "Rest Time Left"
	default:
		return "Block Rest Time Left"
	}
}

func (c *ConsoleSink) printf(format string, args ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	if _, err := fmt.Fprintf(c.out, format, args...); err != nil {
		c.err = fmt.Errorf("write console: %w", err)
		return c.err
	}
	return nil
}
