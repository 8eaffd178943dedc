package trainer

import (
	"errors"
	"log"
)

// UIController handles UI events and coordinates with the UIModel
type UIController struct {
	model          *UIModel
	sessionManager *SessionManager
	logger         *log.Logger
}

// NewUIController creates a new UIController with the given dependencies
func NewUIController(model *UIModel, sessionManager *SessionManager, logger *log.Logger) *UIController {
	if model == nil {
		panic("UIController: model cannot be nil")
	}
	if sessionManager == nil {
		panic("UIController: sessionManager cannot be nil")
	}
	if logger == nil {
		panic("UIController: logger cannot be nil")
	}

	return &UIController{
		model:          model,
		sessionManager: sessionManager,
		logger:         logger,
	}
}

// RestoreLastSession loads the settings of the previous run, falling back to the first preset
func (c *UIController) RestoreLastSession() {
	if last, ok := c.model.GetLastSession(); ok {
		c.logger.Printf("Restoring last session '%s' (%s %s)", last.Preset, last.RunID, last.Outcome)
		if err := c.sessionManager.Load(last.Preset, last.Config()); err == nil {
			return
		}
	}
	c.OnPresetSelected(0)
}

// OnEscapeKey handles when the Escape key is pressed
func (c *UIController) OnEscapeKey() {
	c.model.RequestCloseApplication()
}

// OnModeChange handles when the user requests a mode change
func (c *UIController) OnModeChange(mode UIMode) {
	if info, ok := GetUIModeInfo(mode); ok {
		c.logger.Printf("Switching to %s mode", info.DisplayName)
	}
	c.model.SetMode(mode)
}

// --- Session Methods ---

// OnPresetSelected loads the preset at index and switches to the session screen
func (c *UIController) OnPresetSelected(index int) {
	if index < 0 || index >= len(AllPresets) {
		c.logger.Printf("Invalid preset index: %d", index)
		return
	}

	preset := AllPresets[index]
	c.logger.Printf("Preset selected: %s", preset.Name)
	if err := c.sessionManager.Load(preset.Name, preset.Config); err != nil {
		c.logger.Printf("Cannot load preset %s: %v", preset.Name, err)
		return
	}
	c.model.SetMode(UIModeSession)
}

// StartSession starts the loaded session
func (c *UIController) StartSession() {
	if err := c.sessionManager.Start(); err != nil && errors.Is(err, ErrNoSessionLoaded) {
		c.logger.Printf("No session loaded - select one in Session Setup mode (press 1)")
	}
}

// StopSession cancels the running session
func (c *UIController) StopSession() {
	_ = c.sessionManager.Stop()
}

// ToggleSession starts or stops the session based on current state
func (c *UIController) ToggleSession() {
	state := c.model.GetSessionState()
	switch {
	case state.Status == SessionStatusRunning:
		c.StopSession()
	case state.Status == SessionStatusReady || state.Status.Finished():
		c.StartSession()
	default:
		c.logger.Printf("No session loaded - select one in Session Setup mode (press 1)")
	}
}

// Shutdown stops the session manager and cleans up resources
func (c *UIController) Shutdown() {
	c.sessionManager.Shutdown()
}
