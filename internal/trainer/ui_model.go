package trainer

import (
	"context"
	"log"
	"sync"

	"github.com/lowaak/tabata-timer/internal/events"
	"github.com/lowaak/tabata-timer/internal/go_func_utils"
)

// UIState holds the current state of the UI that views need to render
type UIState struct {
	Mode UIMode
}

type UIModel struct {
	logEvent              *events.ChannelEvent[string]
	closeApplicationEvent *events.ChannelEvent[struct{}]
	uiStateEvent          *events.ChannelEvent[UIState]
	uiState               UIState
	sessionStateEvent     *events.ChannelEvent[SessionState]
	sessionState          SessionState
	persistence           *uiModelPersistence
	logLines              []string
	logMu                 sync.RWMutex
	mu                    sync.RWMutex
	ctx                   context.Context
	cancel                context.CancelFunc
	wg                    sync.WaitGroup
	logger                *log.Logger
}

const maxLogLines = 1000

// NewUIModelArg holds the arguments for creating a new UIModel
type NewUIModelArg struct {
	Logger    *log.Logger
	UILogChan <-chan string // Lines written to the logger, for the log pane
	StateDir  string        // Where the last session is persisted, defaults to ~/.tabata
}

func NewUIModel(args NewUIModelArg) *UIModel {
	if args.Logger == nil {
		panic("UIModel: logger cannot be nil")
	}
	if args.UILogChan == nil {
		panic("UIModel: uiLogChan cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	model := &UIModel{
		logEvent:              events.NewChannelEvent[string](false),
		closeApplicationEvent: events.NewChannelEvent[struct{}](true),
		uiStateEvent:          events.NewChannelEvent[UIState](true),
		uiState:               UIState{Mode: UIModeSetup},
		sessionStateEvent:     events.NewChannelEvent[SessionState](true),
		sessionState:          SessionState{Status: SessionStatusIdle, PhaseIndex: -1},
		persistence:           newUIModelPersistence(args.Logger, args.StateDir),
		logLines:              make([]string, 0, maxLogLines),
		ctx:                   ctx,
		cancel:                cancel,
		logger:                args.Logger,
	}

	// Read from the UI log channel and populate logLines
	model.wg.Add(1)
	go_func_utils.SafeGo(model.logger, "UIModel.readFromLogChannel", func() { model.readFromLogChannel(ctx, args.UILogChan) })

	return model
}

// Shutdown stops all goroutines and waits for them to finish
func (m *UIModel) Shutdown() {
	m.logger.Println("UIModel: Shutting down")
	m.cancel()
	m.wg.Wait()
	m.logger.Println("UIModel: Shutdown complete")
}

// ListenToLog registers a channel to receive log messages
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToLog(ch chan string) func() {
	return m.logEvent.Listen(ch)
}

// ListenToCloseApplication registers a channel to receive close application signals
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToCloseApplication(ch chan struct{}) func() {
	return m.closeApplicationEvent.Listen(ch)
}

// RequestCloseApplication signals that the application should close
func (m *UIModel) RequestCloseApplication() {
	m.closeApplicationEvent.Notify(struct{}{})
}

// ListenToUIState registers a channel to receive UI state changes
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToUIState(ch chan UIState) func() {
	return m.uiStateEvent.Listen(ch)
}

// GetUIState returns the current UI state
func (m *UIModel) GetUIState() UIState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uiState
}

// SetMode updates the current UI mode and notifies listeners
func (m *UIModel) SetMode(mode UIMode) {
	m.mu.Lock()
	if m.uiState.Mode == mode {
		m.mu.Unlock()
		return
	}
	m.uiState.Mode = mode
	state := m.uiState
	m.mu.Unlock()

	m.uiStateEvent.Notify(state)
}

// ListenToSessionState registers a channel to receive session state updates.
// A slow listener only ever sees the latest state.
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToSessionState(ch chan SessionState) func() {
	return m.sessionStateEvent.Listen(ch)
}

// GetSessionState returns the current session state
func (m *UIModel) GetSessionState() SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionState.clone()
}

// SetSessionState updates the session state and notifies listeners
func (m *UIModel) SetSessionState(state SessionState) {
	m.mu.Lock()
	m.sessionState = state.clone()
	stateCopy := m.sessionState.clone()
	m.mu.Unlock()

	m.sessionStateEvent.Notify(stateCopy)
}

// GetLastSession returns the persisted record of the previous run
func (m *UIModel) GetLastSession() (LastSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.persistence.getLastSession()
}

// GetCompletedSessions returns how many runs have finished every phase
func (m *UIModel) GetCompletedSessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.persistence.getCompletedSessions()
}

// RecordSession persists the result of a finished run
func (m *UIModel) RecordSession(session LastSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persistence.recordSession(session)
}

// readFromLogChannel reads log lines from the channel and populates logLines
func (m *UIModel) readFromLogChannel(ctx context.Context, logChan <-chan string) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-logChan:
			if !ok {
				return
			}

			m.logMu.Lock()
			m.logLines = append(m.logLines, line)
			if len(m.logLines) > maxLogLines {
				m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
			}
			m.logMu.Unlock()

			m.logEvent.Notify(line)
		}
	}
}

// GetLogTail returns the last n lines of logs
func (m *UIModel) GetLogTail(n int) []string {
	m.logMu.RLock()
	defer m.logMu.RUnlock()

	if n <= 0 {
		return []string{}
	}
	if n > len(m.logLines) {
		n = len(m.logLines)
	}
	result := make([]string, n)
	copy(result, m.logLines[len(m.logLines)-n:])
	return result
}
