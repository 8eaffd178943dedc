package trainer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lowaak/tabata-timer/internal/audio"
	"github.com/lowaak/tabata-timer/internal/go_func_utils"
	"github.com/lowaak/tabata-timer/internal/tabata"
)

var (
	ErrSessionRunning   = errors.New("a session is already running")
	ErrNoSessionLoaded  = errors.New("no session loaded")
	ErrNoSessionRunning = errors.New("no session running")
)

// sessionCommand represents commands sent to the session goroutine
type sessionCommand int

const (
	cmdStart sessionCommand = iota
	cmdStop
)

type runResult struct {
	runID   string
	outcome tabata.Outcome
	err     error
}

// SessionManager runs sessions on the schedule engine and publishes their state to the UIModel
type SessionManager struct {
	model        *UIModel
	logger       *log.Logger
	clock        tabata.Clock
	tracks       tabata.TrackSelector
	newExercises func() tabata.ExerciseSource
	player       audio.Player
	sinks        []tabata.Sink

	// Current session state (protected by mu)
	mu     sync.RWMutex
	config tabata.SessionConfig
	state  SessionState

	// Goroutine management
	cmdChan      chan sessionCommand
	runDone      chan runResult
	doneChan     chan struct{} // Closed to signal shutdown
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewSessionManagerArg holds the arguments for creating a new SessionManager
type NewSessionManagerArg struct {
	Model     *UIModel
	Logger    *log.Logger
	Clock     tabata.Clock                 // Defaults to RealClock
	Tracks    tabata.TrackSelector         // Defaults to NoTracks
	Exercises func() tabata.ExerciseSource // Called once per run, defaults to random DefaultExercises
	Player    audio.Player                 // Defaults to NopPlayer
	Sinks     []tabata.Sink                // Fed after the session state and audio, e.g. a ConsoleSink
}

func NewSessionManager(args NewSessionManagerArg) *SessionManager {
	if args.Model == nil {
		panic("SessionManager: model cannot be nil")
	}
	if args.Logger == nil {
		panic("SessionManager: logger cannot be nil")
	}

	sm := &SessionManager{
		model:        args.Model,
		logger:       args.Logger,
		clock:        args.Clock,
		tracks:       args.Tracks,
		newExercises: args.Exercises,
		player:       args.Player,
		sinks:        args.Sinks,
		state:        SessionState{Status: SessionStatusIdle, PhaseIndex: -1},
		cmdChan:      make(chan sessionCommand, 1),
		runDone:      make(chan runResult, 1),
		doneChan:     make(chan struct{}),
	}
	if sm.clock == nil {
		sm.clock = tabata.RealClock{}
	}
	if sm.tracks == nil {
		sm.tracks = tabata.NoTracks{}
	}
	if sm.newExercises == nil {
		sm.newExercises = func() tabata.ExerciseSource { return tabata.NewRandomExercises(nil, nil) }
	}
	if sm.player == nil {
		sm.player = audio.NopPlayer{}
	}

	sm.wg.Add(1)
	go_func_utils.SafeGo(sm.logger, "SessionManager.runSessionLoop", func() { sm.runSessionLoop() })

	return sm
}

// Load validates cfg and makes it the session to run next
func (sm *SessionManager) Load(presetName string, cfg tabata.SessionConfig) error {
	plan, err := tabata.Derive(cfg)
	if err != nil {
		sm.logger.Printf("SessionManager: Rejected %s session: %v", presetName, err)
		return err
	}

	sm.mu.Lock()
	if sm.state.Status == SessionStatusRunning {
		sm.mu.Unlock()
		sm.logger.Printf("SessionManager: Cannot load a session while one is running")
		return ErrSessionRunning
	}
	sm.config = cfg
	sm.state = SessionState{
		Status:     SessionStatusReady,
		PresetName: presetName,
		Plan:       plan,
		Schedule:   slices.Collect(plan.Phases()),
		PhaseIndex: -1,
		Remaining:  0,
	}
	state := sm.state.clone()
	sm.mu.Unlock()

	sm.logger.Printf("SessionManager: Session '%s' loaded (%d blocks x %d intervals, duration: %v)",
		presetName, cfg.NumBlocks, plan.IntervalsPerBlock, plan.TotalDuration())
	sm.model.SetSessionState(state)
	return nil
}

// Start runs the loaded session. A finished session can be started again.
func (sm *SessionManager) Start() error {
	sm.mu.RLock()
	status := sm.state.Status
	sm.mu.RUnlock()

	switch {
	case status == SessionStatusIdle:
		sm.logger.Printf("SessionManager: No session loaded")
		return ErrNoSessionLoaded
	case status == SessionStatusRunning:
		sm.logger.Printf("SessionManager: Session already running")
		return ErrSessionRunning
	}

	sm.logger.Printf("SessionManager: Starting session")
	sm.cmdChan <- cmdStart
	return nil
}

// Stop cancels the running session. The engine observes it within one tick.
func (sm *SessionManager) Stop() error {
	sm.mu.RLock()
	status := sm.state.Status
	sm.mu.RUnlock()

	if status != SessionStatusRunning {
		sm.logger.Printf("SessionManager: No session to stop")
		return ErrNoSessionRunning
	}

	sm.logger.Printf("SessionManager: Stopping session")
	sm.cmdChan <- cmdStop
	return nil
}

// GetState returns a snapshot of the current session state
func (sm *SessionManager) GetState() SessionState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.state.clone()
}

// Shutdown cancels any running session, waits for it to finish and stops the manager
// Safe to call multiple times - only the first call has effect
func (sm *SessionManager) Shutdown() {
	sm.shutdownOnce.Do(func() {
		sm.logger.Printf("SessionManager: Shutting down")
		close(sm.doneChan)
		sm.wg.Wait()
		sm.logger.Printf("SessionManager: Shutdown complete")
	})
}

// --- Private Methods ---

// beginRun builds a fresh engine for the loaded config and marks the session running
func (sm *SessionManager) beginRun() (*tabata.Engine, string, error) {
	sm.mu.Lock()
	if sm.state.Status == SessionStatusIdle {
		sm.mu.Unlock()
		return nil, "", ErrNoSessionLoaded
	}
	cfg := sm.config
	sm.mu.Unlock()

	runID := uuid.NewString()
	sink := tabata.NewMultiSink(
		&sessionStateSink{sm: sm, runID: runID},
		audio.NewPhaseAudio(sm.logger, sm.player),
	)
	for _, s := range sm.sinks {
		sink.Add(s)
	}

	engine, err := tabata.NewEngine(tabata.NewEngineArg{
		Config:    cfg,
		Sink:      sink,
		Clock:     sm.clock,
		Exercises: sm.newExercises(),
		Tracks:    sm.tracks,
	})
	if err != nil {
		return nil, "", fmt.Errorf("create engine: %w", err)
	}

	sm.mu.Lock()
	sm.state.Status = SessionStatusRunning
	sm.state.RunID = runID
	sm.state.PhaseIndex = -1
	sm.state.Phase = tabata.PhaseEvent{}
	sm.state.Remaining = 0
	sm.state.Elapsed = 0
	sm.state.History = nil
	sm.state.Err = nil
	state := sm.state.clone()
	sm.mu.Unlock()

	sm.model.SetSessionState(state)
	return engine, runID, nil
}

// finish records the outcome of a run and publishes the terminal state
func (sm *SessionManager) finish(res runResult) {
	sm.mu.Lock()
	if sm.state.RunID != res.runID {
		sm.mu.Unlock()
		return
	}
	sm.state.Status = statusForOutcome(res.outcome)
	sm.state.Err = res.err
	if res.outcome == tabata.OutcomeCompleted {
		sm.state.Remaining = 0
		sm.state.Elapsed = sm.state.Total()
	}
	state := sm.state.clone()
	cfg := sm.config
	sm.mu.Unlock()

	switch res.outcome {
	case tabata.OutcomeCompleted:
		sm.logger.Printf("SessionManager: Tabata session complete! Amazing effort!")
	case tabata.OutcomeCancelled:
		sm.logger.Printf("SessionManager: Session stopped by user after %v", state.Elapsed)
	default:
		sm.logger.Printf("SessionManager: Session failed: %v", res.err)
	}

	record := LastSession{
		RunID:            res.runID,
		Preset:           state.PresetName,
		BlockMinutes:     cfg.BlockMinutes,
		NumBlocks:        cfg.NumBlocks,
		WorkSeconds:      cfg.WorkSeconds,
		RestSeconds:      cfg.RestSeconds,
		BlockRestSeconds: cfg.BlockRestSeconds,
		Outcome:          res.outcome.String(),
		ElapsedSeconds:   int(state.Elapsed / time.Second),
		FinishedAt:       time.Now(),
	}
	if res.err != nil {
		record.Error = res.err.Error()
	}
	sm.model.RecordSession(record)
	sm.model.SetSessionState(state)
}

// runSessionLoop is the main goroutine that owns the running engine and its cancel func.
func (sm *SessionManager) runSessionLoop() {
	defer sm.wg.Done()

	var cancelRun context.CancelFunc

	for {
		select {
		case <-sm.doneChan:
			if cancelRun != nil {
				cancelRun()
				sm.finish(<-sm.runDone)
			}
			sm.logger.Printf("SessionManager: Goroutine exiting")
			return

		case cmd := <-sm.cmdChan:
			switch cmd {
			case cmdStart:
				if cancelRun != nil {
					sm.logger.Printf("SessionManager: Session already running")
					continue
				}
				engine, runID, err := sm.beginRun()
				if err != nil {
					sm.logger.Printf("SessionManager: Cannot start session: %v", err)
					continue
				}
				ctx, cancel := context.WithCancel(context.Background())
				cancelRun = cancel
				go_func_utils.SafeGo(sm.logger, "SessionManager.engine", func() {
					outcome, err := engine.Run(ctx)
					sm.runDone <- runResult{runID: runID, outcome: outcome, err: err}
				})
				sm.logger.Printf("SessionManager: Session %s started", runID)

			case cmdStop:
				if cancelRun == nil {
					sm.logger.Printf("SessionManager: No session to stop")
					continue
				}
				cancelRun()
			}

		case res := <-sm.runDone:
			cancelRun()
			cancelRun = nil
			sm.finish(res)
		}
	}
}

// sessionStateSink mirrors engine events into the manager state and the UIModel.
// It runs on the engine goroutine.
type sessionStateSink struct {
	sm    *SessionManager
	runID string
}

func (s *sessionStateSink) OnPhase(e tabata.PhaseEvent) error {
	s.sm.mu.Lock()
	if s.sm.state.RunID != s.runID {
		s.sm.mu.Unlock()
		return nil
	}
	s.sm.state.PhaseIndex++
	s.sm.state.Phase = e
	s.sm.state.Remaining = e.Seconds()
	s.sm.state.History = append(s.sm.state.History, e)
	state := s.sm.state.clone()
	s.sm.mu.Unlock()

	if e.Kind == tabata.PhaseWork {
		s.sm.logger.Printf("SessionManager: Block %d/%d interval %s: %s", e.Block, e.NumBlocks, e.IntervalText(), e.Exercise)
	} else if e.Kind == tabata.PhaseBlockRest {
		s.sm.logger.Printf("SessionManager: Rest between blocks (%ds)", e.Seconds())
	}
	s.sm.model.SetSessionState(state)
	return nil
}

func (s *sessionStateSink) OnTick(t tabata.TickEvent) error {
	s.sm.mu.Lock()
	if s.sm.state.RunID != s.runID {
		s.sm.mu.Unlock()
		return nil
	}
	s.sm.state.Remaining = t.Remaining
	s.sm.state.Elapsed = time.Duration(t.Elapsed) * time.Second
	state := s.sm.state.clone()
	s.sm.mu.Unlock()

	s.sm.model.SetSessionState(state)
	return nil
}
