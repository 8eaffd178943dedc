package tabata

import (
	"context"
	"fmt"
	"time"
)

// Engine drives one session: it emits phase and tick events to its sink
// on a one-second cadence and honors cancellation at every tick boundary.
// An Engine is single-use and not safe for concurrent Run calls.
type Engine struct {
	plan      DerivedPlan
	sink      Sink
	clock     Clock
	exercises ExerciseSource
	tracks    TrackSelector
}

// NewEngineArg holds the arguments for creating a new Engine
type NewEngineArg struct {
	Config    SessionConfig
	Sink      Sink
	Clock     Clock          // Defaults to RealClock
	Exercises ExerciseSource // Defaults to random draws from DefaultExercises
	Tracks    TrackSelector  // Defaults to NoTracks
}

// NewEngine validates the configuration up front so a bad session never starts.
func NewEngine(args NewEngineArg) (*Engine, error) {
	if args.Sink == nil {
		panic("Engine: sink cannot be nil")
	}
	plan, err := Derive(args.Config)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		plan:      plan,
		sink:      args.Sink,
		clock:     args.Clock,
		exercises: args.Exercises,
		tracks:    args.Tracks,
	}
	if e.clock == nil {
		e.clock = RealClock{}
	}
	if e.exercises == nil {
		e.exercises = NewRandomExercises(nil, nil)
	}
	if e.tracks == nil {
		e.tracks = NoTracks{}
	}
	return e, nil
}

// Plan returns the derived plan the engine runs
func (e *Engine) Plan() DerivedPlan {
	return e.plan
}

// Run walks the whole session. Cancelling ctx ends it with OutcomeCancelled
// and a nil error; a failing collaborator ends it with OutcomeFailed and an
// error wrapping ErrResourceUnavailable. No events follow either terminal state.
func (e *Engine) Run(ctx context.Context) (outcome Outcome, err error) {
	if f, ok := e.sink.(Finisher); ok {
		defer func() { f.OnFinish(outcome, err) }()
	}

	var workTrack, restTrack TrackRef
	elapsed := 0

	for phase := range e.plan.Phases() {
		if ctx.Err() != nil {
			return OutcomeCancelled, nil
		}

		// Tracks are chosen once per block and reused by every phase in it
		if phase.Kind == PhaseWork && phase.Interval == 1 {
			workTrack, restTrack, err = e.selectTracks(phase.Block)
			if err != nil {
				return OutcomeFailed, err
			}
		}

		if phase.Kind == PhaseWork {
			phase.Exercise = e.exercises.NextLabel()
			phase.Track = workTrack
		} else {
			phase.Track = restTrack
		}

		if err := e.sink.OnPhase(phase); err != nil {
			return OutcomeFailed, fmt.Errorf("%w: block %d %s phase: %w", ErrResourceUnavailable, phase.Block, phase.Kind, err)
		}

		cancelled, err := e.countdown(ctx, phase, &elapsed)
		if err != nil {
			return OutcomeFailed, err
		}
		if cancelled {
			return OutcomeCancelled, nil
		}
	}

	return OutcomeCompleted, nil
}

// countdown emits one tick per second from the phase duration down to 1.
func (e *Engine) countdown(ctx context.Context, phase PhaseEvent, elapsed *int) (bool, error) {
	for remaining := phase.Seconds(); remaining > 0; remaining-- {
		tick := TickEvent{Phase: phase, Remaining: remaining, Elapsed: *elapsed}
		if err := e.sink.OnTick(tick); err != nil {
			return false, fmt.Errorf("%w: block %d %s tick %d: %w", ErrResourceUnavailable, phase.Block, phase.Kind, remaining, err)
		}

		if ctx.Err() != nil {
			return true, nil
		}
		if err := e.clock.Sleep(ctx, time.Second); err != nil {
			if ctx.Err() != nil {
				return true, nil
			}
			return false, fmt.Errorf("%w: clock: %w", ErrResourceUnavailable, err)
		}
		*elapsed++
		if ctx.Err() != nil {
			return true, nil
		}
	}
	return false, nil
}

func (e *Engine) selectTracks(block int) (work, rest TrackRef, err error) {
	work, err = e.tracks.SelectTrack(PhaseWork, block)
	if err != nil {
		return "", "", fmt.Errorf("%w: work track for block %d: %w", ErrResourceUnavailable, block, err)
	}
	rest, err = e.tracks.SelectTrack(PhaseRest, block)
	if err != nil {
		return "", "", fmt.Errorf("%w: rest track for block %d: %w", ErrResourceUnavailable, block, err)
	}
	return work, rest, nil
}
