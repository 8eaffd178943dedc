package tabata

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidConfiguration is returned by Derive before a session starts
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrResourceUnavailable aborts a running session when a collaborator fails
	ErrResourceUnavailable = errors.New("resource unavailable")
)

// PhaseKind is the kind of an atomic schedule unit
type PhaseKind int

const (
	PhaseWork      PhaseKind = iota // Work phase, carries an exercise label
	PhaseRest                       // Rest between work phases
	PhaseBlockRest                  // Rest between blocks, never after the last block
)

func (k PhaseKind) String() string {
	switch k {
	case PhaseWork:
		return "Work"
	case PhaseRest:
		return "Rest"
	case PhaseBlockRest:
		return "Block Rest"
	default:
		return fmt.Sprintf("PhaseKind(%d)", int(k))
	}
}

// NoInterval is the Interval of a BlockRest phase
const NoInterval = 0

// RestLabel is what Rest and BlockRest phases show in place of an exercise
const RestLabel = "Breathe"

// TrackRef is an opaque audio track token passed through to sinks
type TrackRef string

// PhaseEvent is emitted once at the start of every phase
type PhaseEvent struct {
	Block             int           // 1-based block number
	Interval          int           // 1-based interval number, NoInterval for block rests
	Kind              PhaseKind     // Work, Rest or BlockRest
	Duration          time.Duration // Whole seconds
	Exercise          string        // Only set for Work phases
	Track             TrackRef      // Work track for Work, rest track otherwise
	NumBlocks         int
	IntervalsPerBlock int
}

// Seconds returns the phase duration in whole seconds
func (e PhaseEvent) Seconds() int {
	return int(e.Duration / time.Second)
}

// Label returns the exercise for Work phases and RestLabel for everything else
func (e PhaseEvent) Label() string {
	if e.Kind == PhaseWork {
		return e.Exercise
	}
	return RestLabel
}

// IntervalText formats the interval for display, "N/A" for block rests
func (e PhaseEvent) IntervalText() string {
	if e.Interval == NoInterval {
		return "N/A"
	}
	return fmt.Sprintf("%d/%d", e.Interval, e.IntervalsPerBlock)
}

// TickEvent is emitted once per second during a phase
type TickEvent struct {
	Phase     PhaseEvent
	Remaining int // Seconds left in the phase, from Phase duration down to 1
	Elapsed   int // Seconds elapsed in the whole session when this tick started
}

// Outcome is the terminal state of a run
type Outcome int

const (
	OutcomeCompleted Outcome = iota // All blocks finished
	OutcomeCancelled                // Cancellation observed at a tick boundary
	OutcomeFailed                   // A collaborator failed, see the returned error
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}
