package tabata

import (
	"fmt"
	"iter"
	"time"
)

// SessionConfig holds the five numeric parameters of a session.
// It is a plain value: construct it once per run and never mutate it.
type SessionConfig struct {
	BlockMinutes     int // Length of each block in minutes
	NumBlocks        int // Number of blocks in the session
	WorkSeconds      int // Duration of each work phase
	RestSeconds      int // Duration of each rest phase
	BlockRestSeconds int // Duration of the rest between blocks
}

// DefaultSessionConfig is 3 blocks of 5 minutes, 20s work / 10s rest, 1 minute between blocks
var DefaultSessionConfig = SessionConfig{
	BlockMinutes:     5,
	NumBlocks:        3,
	WorkSeconds:      20,
	RestSeconds:      10,
	BlockRestSeconds: 60,
}

// DerivedPlan holds the quantities computed from a SessionConfig
type DerivedPlan struct {
	Config            SessionConfig
	BlockSeconds      int
	IntervalSeconds   int
	IntervalsPerBlock int
}

// Derive validates cfg and computes how many work/rest intervals fit in a block.
// A partial interval that does not fit is dropped from the block.
func Derive(cfg SessionConfig) (DerivedPlan, error) {
	fields := []struct {
		name  string
		value int
	}{
		{"block minutes", cfg.BlockMinutes},
		{"number of blocks", cfg.NumBlocks},
		{"work duration", cfg.WorkSeconds},
		{"rest duration", cfg.RestSeconds},
		{"block rest duration", cfg.BlockRestSeconds},
	}
	for _, f := range fields {
		if f.value <= 0 {
			return DerivedPlan{}, fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfiguration, f.name, f.value)
		}
	}

	plan := DerivedPlan{
		Config:          cfg,
		BlockSeconds:    cfg.BlockMinutes * 60,
		IntervalSeconds: cfg.WorkSeconds + cfg.RestSeconds,
	}
	if plan.IntervalSeconds <= 0 {
		return DerivedPlan{}, fmt.Errorf("%w: interval duration must be positive", ErrInvalidConfiguration)
	}
	plan.IntervalsPerBlock = plan.BlockSeconds / plan.IntervalSeconds
	if plan.IntervalsPerBlock < 1 {
		return DerivedPlan{}, fmt.Errorf("%w: work+rest (%ds) does not fit in a %d minute block",
			ErrInvalidConfiguration, plan.IntervalSeconds, cfg.BlockMinutes)
	}
	return plan, nil
}

// Phases yields every phase of the session in order, without exercise labels or tracks.
// Within a block: Work, Rest repeated IntervalsPerBlock times, then a BlockRest unless it is the last block.
func (p DerivedPlan) Phases() iter.Seq[PhaseEvent] {
	return func(yield func(PhaseEvent) bool) {
		base := PhaseEvent{
			NumBlocks:         p.Config.NumBlocks,
			IntervalsPerBlock: p.IntervalsPerBlock,
		}
		for block := 1; block <= p.Config.NumBlocks; block++ {
			for interval := 1; interval <= p.IntervalsPerBlock; interval++ {
				work := base
				work.Block, work.Interval, work.Kind = block, interval, PhaseWork
				work.Duration = seconds(p.Config.WorkSeconds)
				if !yield(work) {
					return
				}

				rest := base
				rest.Block, rest.Interval, rest.Kind = block, interval, PhaseRest
				rest.Duration = seconds(p.Config.RestSeconds)
				if !yield(rest) {
					return
				}
			}

			if block < p.Config.NumBlocks {
				blockRest := base
				blockRest.Block, blockRest.Interval, blockRest.Kind = block, NoInterval, PhaseBlockRest
				blockRest.Duration = seconds(p.Config.BlockRestSeconds)
				if !yield(blockRest) {
					return
				}
			}
		}
	}
}

// PhaseCount returns the total number of phases in the session
func (p DerivedPlan) PhaseCount() int {
	return p.Config.NumBlocks*p.IntervalsPerBlock*2 + p.BlockRests()
}

// WorkPhases returns the number of Work phases in the session
func (p DerivedPlan) WorkPhases() int {
	return p.Config.NumBlocks * p.IntervalsPerBlock
}

// BlockRests returns the number of BlockRest phases in the session
func (p DerivedPlan) BlockRests() int {
	if p.Config.NumBlocks < 1 {
		return 0
	}
	return p.Config.NumBlocks - 1
}

// TotalDuration is the sum of every phase duration, block rests included
func (p DerivedPlan) TotalDuration() time.Duration {
	total := p.WorkPhases()*p.IntervalSeconds + p.BlockRests()*p.Config.BlockRestSeconds
	return seconds(total)
}

// Plan materialises the whole phase sequence for cfg without any timing.
func Plan(cfg SessionConfig) ([]PhaseEvent, error) {
	plan, err := Derive(cfg)
	if err != nil {
		return nil, err
	}
	phases := make([]PhaseEvent, 0, plan.PhaseCount())
	for phase := range plan.Phases() {
		phases = append(phases, phase)
	}
	return phases, nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
