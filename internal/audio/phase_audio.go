package audio

import (
	"fmt"
	"log"

	"github.com/lowaak/tabata-timer/internal/tabata"
)

// PhaseAudio is a tabata.Sink that plays each phase's track.
// The previous track is always stopped before the next one starts, and the
// last one is stopped when the run finishes whatever the outcome.
type PhaseAudio struct {
	logger *log.Logger
	player Player
}

func NewPhaseAudio(logger *log.Logger, player Player) *PhaseAudio {
	if logger == nil {
		panic("PhaseAudio: logger cannot be nil")
	}
	if player == nil {
		panic("PhaseAudio: player cannot be nil")
	}
	return &PhaseAudio{logger: logger, player: player}
}

func (a *PhaseAudio) OnPhase(e tabata.PhaseEvent) error {
	if err := a.player.Stop(); err != nil {
		return fmt.Errorf("stop audio before block %d %s: %w", e.Block, e.Kind, err)
	}
	if e.Track == "" {
		return nil
	}
	if err := a.player.Start(e.Track); err != nil {
		return fmt.Errorf("play %s for block %d %s: %w", e.Track, e.Block, e.Kind, err)
	}
	return nil
}

func (a *PhaseAudio) OnTick(tabata.TickEvent) error {
	return nil
}

func (a *PhaseAudio) OnFinish(outcome tabata.Outcome, _ error) {
	if err := a.player.Stop(); err != nil {
		a.logger.Printf("PhaseAudio: failed to stop audio after %s session: %v", outcome, err)
	}
}
