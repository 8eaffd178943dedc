package trainer

import (
	"fmt"
	"time"

	"github.com/lowaak/tabata-timer/internal/tabata"
)

// UIMode represents the current UI mode/screen
type UIMode int

const (
	UIModeSetup   UIMode = iota // Preset selection and session details
	UIModeSession               // Live countdown, phase table and upcoming phases
)

// UIModeInfo contains display information for a UI mode
type UIModeInfo struct {
	Mode        UIMode
	DisplayName string
	KeyBinding  rune // The number key to activate this mode (1-9)
}

// AllUIModes defines all available UI modes in order
var AllUIModes = []UIModeInfo{
	{Mode: UIModeSetup, DisplayName: "Session Setup", KeyBinding: '1'},
	{Mode: UIModeSession, DisplayName: "Session", KeyBinding: '2'},
}

// GetUIModeByKey returns the mode for a given key binding
func GetUIModeByKey(key rune) (UIMode, bool) {
	for _, info := range AllUIModes {
		if info.KeyBinding == key {
			return info.Mode, true
		}
	}
	return 0, false
}

// GetUIModeInfo returns the info for a given mode
func GetUIModeInfo(mode UIMode) (UIModeInfo, bool) {
	for _, info := range AllUIModes {
		if info.Mode == mode {
			return info, true
		}
	}
	return UIModeInfo{}, false
}

// Preset is a named session configuration
type Preset struct {
	Name        string
	Description string
	Config      tabata.SessionConfig
}

// CustomPresetName labels sessions loaded from flags or the config file
const CustomPresetName = "Custom"

// AllPresets defines the selectable sessions
var AllPresets = []Preset{
	{
		Name:        "Tabata x3",
		Description: "Three 5 minute blocks of 20s on / 10s off, 1 minute between blocks",
		Config:      tabata.DefaultSessionConfig,
	},
	{
		Name:        "Classic Tabata",
		Description: "A single 4 minute block: eight rounds of 20s on / 10s off",
		Config:      tabata.SessionConfig{BlockMinutes: 4, NumBlocks: 1, WorkSeconds: 20, RestSeconds: 10, BlockRestSeconds: 60},
	},
	{
		Name:        "Beginner 30/30",
		Description: "Two 5 minute blocks with equal work and rest",
		Config:      tabata.SessionConfig{BlockMinutes: 5, NumBlocks: 2, WorkSeconds: 30, RestSeconds: 30, BlockRestSeconds: 90},
	},
	{
		Name:        "Sprint 10/20",
		Description: "Short bursts with double rest, three 3 minute blocks",
		Config:      tabata.SessionConfig{BlockMinutes: 3, NumBlocks: 3, WorkSeconds: 10, RestSeconds: 20, BlockRestSeconds: 60},
	},
	{
		Name:        "Strength 40/20",
		Description: "Two 10 minute kettlebell blocks, 2 minutes between blocks",
		Config:      tabata.SessionConfig{BlockMinutes: 10, NumBlocks: 2, WorkSeconds: 40, RestSeconds: 20, BlockRestSeconds: 120},
	},
	{
		Name:        "Long Burner",
		Description: "Four 8 minute blocks of 45s on / 15s off",
		Config:      tabata.SessionConfig{BlockMinutes: 8, NumBlocks: 4, WorkSeconds: 45, RestSeconds: 15, BlockRestSeconds: 90},
	},
}

// GetPresetByName returns the preset with the given name
func GetPresetByName(name string) (Preset, bool) {
	for _, p := range AllPresets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// SessionStatus represents the current status of a session
type SessionStatus int

const (
	SessionStatusIdle      SessionStatus = iota // No session loaded
	SessionStatusReady                          // Session loaded but not started
	SessionStatusRunning                        // Session in progress
	SessionStatusCompleted                      // Last run finished every phase
	SessionStatusCancelled                      // Last run was stopped by the user
	SessionStatusFailed                         // Last run aborted on an audio or sink error
)

func (s SessionStatus) String() string {
	switch s {
	case SessionStatusIdle:
		return "Idle"
	case SessionStatusReady:
		return "Ready"
	case SessionStatusRunning:
		return "Running"
	case SessionStatusCompleted:
		return "Completed"
	case SessionStatusCancelled:
		return "Cancelled"
	case SessionStatusFailed:
		return "Failed"
	default:
		return fmt.Sprintf("SessionStatus(%d)", int(s))
	}
}

// Finished reports whether the status is a terminal run outcome
func (s SessionStatus) Finished() bool {
	return s == SessionStatusCompleted || s == SessionStatusCancelled || s == SessionStatusFailed
}

func statusForOutcome(outcome tabata.Outcome) SessionStatus {
	switch outcome {
	case tabata.OutcomeCompleted:
		return SessionStatusCompleted
	case tabata.OutcomeCancelled:
		return SessionStatusCancelled
	default:
		return SessionStatusFailed
	}
}

// SessionState holds the current state of a session execution
type SessionState struct {
	Status     SessionStatus
	PresetName string
	RunID      string
	Plan       tabata.DerivedPlan // Zero when no session is loaded
	Schedule   []tabata.PhaseEvent // Every phase of the plan, without labels
	PhaseIndex int                 // Index into Schedule of the current phase, -1 before the first
	Phase      tabata.PhaseEvent   // Current phase as emitted, with exercise and track
	Remaining  int                 // Seconds left in the current phase
	Elapsed    time.Duration       // Time elapsed in the session
	History    []tabata.PhaseEvent // Phases started so far in this run
	Err        error               // Set when Status is SessionStatusFailed
}

// Total returns the full session duration
func (s SessionState) Total() time.Duration {
	return s.Plan.TotalDuration()
}

// RemainingTotal returns the time left in the session
func (s SessionState) RemainingTotal() time.Duration {
	if s.Elapsed >= s.Total() {
		return 0
	}
	return s.Total() - s.Elapsed
}

// Upcoming returns up to n phases after the current one
func (s SessionState) Upcoming(n int) []tabata.PhaseEvent {
	start := s.PhaseIndex + 1
	if start < 0 || start >= len(s.Schedule) || n <= 0 {
		return nil
	}
	end := min(start+n, len(s.Schedule))
	return s.Schedule[start:end]
}

// clone copies the slices so a published snapshot never aliases manager state
func (s SessionState) clone() SessionState {
	s.History = append([]tabata.PhaseEvent(nil), s.History...)
	return s
}
