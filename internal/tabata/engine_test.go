package tabata

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink keeps every event in arrival order
type recordingSink struct {
	phases   []PhaseEvent
	ticks    []TickEvent
	order    []string
	outcomes []Outcome
	errs     []error

	onTick  func(TickEvent) error
	onPhase func(PhaseEvent) error
}

func (s *recordingSink) OnPhase(e PhaseEvent) error {
	s.phases = append(s.phases, e)
	s.order = append(s.order, "phase")
	if s.onPhase != nil {
		return s.onPhase(e)
	}
	return nil
}

func (s *recordingSink) OnTick(e TickEvent) error {
	s.ticks = append(s.ticks, e)
	s.order = append(s.order, "tick")
	if s.onTick != nil {
		return s.onTick(e)
	}
	return nil
}

func (s *recordingSink) OnFinish(outcome Outcome, err error) {
	s.outcomes = append(s.outcomes, outcome)
	s.errs = append(s.errs, err)
}

func newTestEngine(t *testing.T, cfg SessionConfig, sink Sink, tracks TrackSelector) (*Engine, *InstantClock) {
	t.Helper()
	clock := &InstantClock{}
	engine, err := NewEngine(NewEngineArg{
		Config:    cfg,
		Sink:      sink,
		Clock:     clock,
		Exercises: NewCyclicExercises(nil),
		Tracks:    tracks,
	})
	require.NoError(t, err)
	return engine, clock
}

func TestEngine_DefaultSessionCounts(t *testing.T) {
	sink := &recordingSink{}
	engine, clock := newTestEngine(t, DefaultSessionConfig, sink, nil)

	outcome, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, outcome)

	counts := map[PhaseKind]int{}
	for _, p := range sink.phases {
		counts[p.Kind]++
	}
	assert.Equal(t, 30, counts[PhaseWork])
	assert.Equal(t, 30, counts[PhaseRest])
	assert.Equal(t, 2, counts[PhaseBlockRest])

	total := 3*300 + 2*60
	assert.Len(t, sink.ticks, total)
	assert.Equal(t, time.Duration(total)*time.Second, clock.Slept())
	assert.Equal(t, []Outcome{OutcomeCompleted}, sink.outcomes)
}

func TestEngine_WorkRestAlternateAndBlockRestsBetweenBlocks(t *testing.T) {
	sink := &recordingSink{}
	engine, _ := newTestEngine(t, SessionConfig{BlockMinutes: 1, NumBlocks: 3, WorkSeconds: 20, RestSeconds: 10, BlockRestSeconds: 15}, sink, nil)

	_, err := engine.Run(context.Background())
	require.NoError(t, err)

	var kinds []PhaseKind
	for _, p := range sink.phases {
		kinds = append(kinds, p.Kind)
	}
	assert.Equal(t, []PhaseKind{
		PhaseWork, PhaseRest, PhaseWork, PhaseRest, PhaseBlockRest,
		PhaseWork, PhaseRest, PhaseWork, PhaseRest, PhaseBlockRest,
		PhaseWork, PhaseRest, PhaseWork, PhaseRest,
	}, kinds)
	assert.NotEqual(t, PhaseBlockRest, sink.phases[len(sink.phases)-1].Kind)
}

func TestEngine_TicksCountDownAfterPhase(t *testing.T) {
	sink := &recordingSink{}
	engine, _ := newTestEngine(t, SessionConfig{BlockMinutes: 1, NumBlocks: 1, WorkSeconds: 3, RestSeconds: 2, BlockRestSeconds: 10}, sink, nil)

	_, err := engine.Run(context.Background())
	require.NoError(t, err)

	// Every phase event is followed by exactly Duration ticks counting down to 1
	ti := 0
	for _, p := range sink.phases {
		for want := p.Seconds(); want >= 1; want-- {
			require.Less(t, ti, len(sink.ticks))
			tick := sink.ticks[ti]
			assert.Equal(t, want, tick.Remaining)
			assert.Equal(t, p, tick.Phase)
			assert.Equal(t, ti, tick.Elapsed)
			ti++
		}
	}
	assert.Equal(t, len(sink.ticks), ti)
	assert.Equal(t, "phase", sink.order[0])
	assert.Equal(t, []string{"phase", "tick", "tick", "tick", "phase", "tick", "tick"}, sink.order[:7])
}

func TestEngine_SingleBlockHasNoBlockRest(t *testing.T) {
	sink := &recordingSink{}
	engine, _ := newTestEngine(t, SessionConfig{BlockMinutes: 2, NumBlocks: 1, WorkSeconds: 20, RestSeconds: 10, BlockRestSeconds: 60}, sink, nil)

	outcome, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, outcome)
	require.Len(t, sink.phases, 8)
	for _, p := range sink.phases {
		assert.NotEqual(t, PhaseBlockRest, p.Kind)
	}
}

func TestEngine_ExerciseOnlyOnWork(t *testing.T) {
	sink := &recordingSink{}
	engine, _ := newTestEngine(t, DefaultSessionConfig, sink, nil)

	_, err := engine.Run(context.Background())
	require.NoError(t, err)

	for _, p := range sink.phases {
		if p.Kind == PhaseWork {
			assert.Contains(t, DefaultExercises, p.Exercise)
			assert.Equal(t, p.Exercise, p.Label())
		} else {
			assert.Empty(t, p.Exercise)
			assert.Equal(t, RestLabel, p.Label())
		}
	}
}

func TestEngine_TracksChosenOncePerBlock(t *testing.T) {
	var calls []string
	tracks := TrackSelectorFunc(func(kind PhaseKind, block int) (TrackRef, error) {
		calls = append(calls, fmt.Sprintf("%s-%d", kind, block))
		return TrackRef(fmt.Sprintf("%s-%d.mp3", kind, block)), nil
	})

	sink := &recordingSink{}
	engine, _ := newTestEngine(t, SessionConfig{BlockMinutes: 1, NumBlocks: 2, WorkSeconds: 20, RestSeconds: 10, BlockRestSeconds: 30}, sink, tracks)

	_, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Work-1", "Rest-1", "Work-2", "Rest-2"}, calls)
	for _, p := range sink.phases {
		switch p.Kind {
		case PhaseWork:
			assert.Equal(t, TrackRef(fmt.Sprintf("Work-%d.mp3", p.Block)), p.Track)
		default:
			// Block rest reuses the rest track of the block it follows
			assert.Equal(t, TrackRef(fmt.Sprintf("Rest-%d.mp3", p.Block)), p.Track)
		}
	}
}

func TestEngine_TrackSelectorFailure(t *testing.T) {
	noMusic := errors.New("no mp3 files in rest")
	tracks := TrackSelectorFunc(func(kind PhaseKind, block int) (TrackRef, error) {
		if kind == PhaseRest && block == 2 {
			return "", noMusic
		}
		return "track.mp3", nil
	})

	sink := &recordingSink{}
	engine, _ := newTestEngine(t, SessionConfig{BlockMinutes: 1, NumBlocks: 3, WorkSeconds: 20, RestSeconds: 10, BlockRestSeconds: 30}, sink, tracks)

	outcome, err := engine.Run(context.Background())
	assert.Equal(t, OutcomeFailed, outcome)
	require.ErrorIs(t, err, ErrResourceUnavailable)
	assert.ErrorIs(t, err, noMusic)

	// Block 1 ran fully, block 2 never started
	last := sink.phases[len(sink.phases)-1]
	assert.Equal(t, 1, last.Block)
	assert.Equal(t, PhaseBlockRest, last.Kind)
	assert.Equal(t, []Outcome{OutcomeFailed}, sink.outcomes)
	assert.ErrorIs(t, sink.errs[0], ErrResourceUnavailable)
}

func TestEngine_TrackSelectorFailsImmediately(t *testing.T) {
	tracks := TrackSelectorFunc(func(PhaseKind, int) (TrackRef, error) {
		return "", errors.New("no tracks")
	})
	sink := &recordingSink{}
	engine, _ := newTestEngine(t, DefaultSessionConfig, sink, tracks)

	outcome, err := engine.Run(context.Background())
	assert.Equal(t, OutcomeFailed, outcome)
	assert.ErrorIs(t, err, ErrResourceUnavailable)
	assert.Empty(t, sink.phases)
	assert.Empty(t, sink.ticks)
}

func TestEngine_SinkErrorFailsRun(t *testing.T) {
	speakerGone := errors.New("speaker unplugged")
	sink := &recordingSink{}
	sink.onPhase = func(e PhaseEvent) error {
		if e.Kind == PhaseRest {
			return speakerGone
		}
		return nil
	}
	engine, _ := newTestEngine(t, DefaultSessionConfig, sink, nil)

	outcome, err := engine.Run(context.Background())
	assert.Equal(t, OutcomeFailed, outcome)
	assert.ErrorIs(t, err, ErrResourceUnavailable)
	assert.ErrorIs(t, err, speakerGone)
	assert.Len(t, sink.phases, 2)
	assert.Len(t, sink.ticks, 20)
}

func TestEngine_CancelDuringTickStopsEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &recordingSink{}
	sink.onTick = func(e TickEvent) error {
		if e.Phase.Block == 1 && e.Phase.Interval == 2 && e.Phase.Kind == PhaseRest && e.Remaining == 7 {
			cancel()
		}
		return nil
	}
	engine, clock := newTestEngine(t, DefaultSessionConfig, sink, nil)

	outcome, err := engine.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, outcome)

	last := sink.ticks[len(sink.ticks)-1]
	assert.Equal(t, 7, last.Remaining)
	assert.Equal(t, PhaseRest, last.Phase.Kind)
	assert.Len(t, sink.phases, 4)
	// 20+10+20 full seconds, then 3 seconds of the second rest before the cancelling tick
	assert.Equal(t, 53*time.Second, clock.Slept())
	assert.Equal(t, []Outcome{OutcomeCancelled}, sink.outcomes)
	assert.Nil(t, sink.errs[0])
}

func TestEngine_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &recordingSink{}
	engine, _ := newTestEngine(t, DefaultSessionConfig, sink, nil)

	outcome, err := engine.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, outcome)
	assert.Empty(t, sink.phases)
	assert.Empty(t, sink.ticks)
}

func TestEngine_ClockErrorFailsRun(t *testing.T) {
	broken := errors.New("clock broke")
	engine, err := NewEngine(NewEngineArg{
		Config: DefaultSessionConfig,
		Sink:   &recordingSink{},
		Clock: ClockFunc(func(context.Context, time.Duration) error {
			return broken
		}),
	})
	require.NoError(t, err)

	outcome, err := engine.Run(context.Background())
	assert.Equal(t, OutcomeFailed, outcome)
	assert.ErrorIs(t, err, ErrResourceUnavailable)
	assert.ErrorIs(t, err, broken)
}

func TestEngine_RealClockCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	sink := &recordingSink{}
	engine, err := NewEngine(NewEngineArg{Config: DefaultSessionConfig, Sink: sink})
	require.NoError(t, err)

	start := time.Now()
	outcome, err := engine.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, outcome)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
	assert.Len(t, sink.phases, 1)
	assert.Len(t, sink.ticks, 1)
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	_, err := NewEngine(NewEngineArg{
		Config: SessionConfig{BlockMinutes: 0, NumBlocks: 1, WorkSeconds: 1, RestSeconds: 1, BlockRestSeconds: 1},
		Sink:   &recordingSink{},
	})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	assert.Panics(t, func() {
		_, _ = NewEngine(NewEngineArg{Config: DefaultSessionConfig})
	})
}

func TestEngine_SeededExercisesAreReproducible(t *testing.T) {
	run := func() []string {
		sink := &recordingSink{}
		engine, err := NewEngine(NewEngineArg{
			Config:    DefaultSessionConfig,
			Sink:      sink,
			Clock:     &InstantClock{},
			Exercises: NewSeededExercises(nil, 42),
		})
		require.NoError(t, err)
		_, err = engine.Run(context.Background())
		require.NoError(t, err)

		var labels []string
		for _, p := range sink.phases {
			if p.Kind == PhaseWork {
				labels = append(labels, p.Exercise)
			}
		}
		return labels
	}

	first := run()
	assert.Len(t, first, 30)
	assert.Equal(t, first, run())
}
