package tabata

import (
	"github.com/lowaak/tabata-timer/internal/events"
)

// Sink receives phase and tick events in strict temporal order.
// Returning an error aborts the run with OutcomeFailed.
type Sink interface {
	OnPhase(PhaseEvent) error
	OnTick(TickEvent) error
}

// Finisher is implemented by sinks that need the terminal outcome, e.g. to stop audio.
// OnFinish is called exactly once per Run.
type Finisher interface {
	OnFinish(outcome Outcome, err error)
}

// SinkFuncs adapts plain functions to Sink and Finisher. Nil fields are skipped.
type SinkFuncs struct {
	Phase  func(PhaseEvent) error
	Tick   func(TickEvent) error
	Finish func(Outcome, error)
}

func (s SinkFuncs) OnPhase(e PhaseEvent) error {
	if s.Phase == nil {
		return nil
	}
	return s.Phase(e)
}

func (s SinkFuncs) OnTick(e TickEvent) error {
	if s.Tick == nil {
		return nil
	}
	return s.Tick(e)
}

func (s SinkFuncs) OnFinish(outcome Outcome, err error) {
	if s.Finish != nil {
		s.Finish(outcome, err)
	}
}

type finishEvent struct {
	outcome Outcome
	err     error
}

// MultiSink fans events out to several sinks in the order they were added.
// The first sink error stops delivery of that event to later sinks.
type MultiSink struct {
	phases   *events.CallbackEvent[PhaseEvent]
	ticks    *events.CallbackEvent[TickEvent]
	finishes *events.CallbackEvent[finishEvent]
}

func NewMultiSink(sinks ...Sink) *MultiSink {
	m := &MultiSink{
		phases:   events.NewCallbackEvent[PhaseEvent](),
		ticks:    events.NewCallbackEvent[TickEvent](),
		finishes: events.NewCallbackEvent[finishEvent](),
	}
	for _, s := range sinks {
		m.Add(s)
	}
	return m
}

// Add appends a sink and returns a function that removes it
func (m *MultiSink) Add(s Sink) func() {
	if s == nil {
		panic("MultiSink: sink cannot be nil")
	}
	removePhase := m.phases.Listen(s.OnPhase)
	removeTick := m.ticks.Listen(s.OnTick)
	removeFinish := func() {}
	if f, ok := s.(Finisher); ok {
		removeFinish = m.finishes.Listen(func(e finishEvent) error {
			f.OnFinish(e.outcome, e.err)
			return nil
		})
	}
	return func() {
		removePhase()
		removeTick()
		removeFinish()
	}
}

func (m *MultiSink) OnPhase(e PhaseEvent) error {
	return m.phases.Notify(e)
}

func (m *MultiSink) OnTick(e TickEvent) error {
	return m.ticks.Notify(e)
}

func (m *MultiSink) OnFinish(outcome Outcome, err error) {
	_ = m.finishes.Notify(finishEvent{outcome: outcome, err: err})
}
