package trainer

import (
	"fmt"
	"log"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lowaak/tabata-timer/internal/tabata"
)

// Page names for tview.Pages
const (
	pageSetup   = "setup"
	pageSession = "session"
)

const upcomingPhaseCount = 6

var phaseTableHeaders = []string{"Block", "Interval", "Phase", "Time Remaining", "Exercise"}

// CursesUIViewImpl implements UIViewImpl using tview (curses-based terminal UI)
type CursesUIViewImpl struct {
	logger      *log.Logger
	app         *tview.Application
	model       *UIModel
	currentMode UIMode

	// Root container that holds all pages
	pages *tview.Pages

	// Shared components (visible in all modes)
	logView  *tview.TextView
	mainFlex *tview.Flex // Main layout: mode content on left, logs on right

	// Session Setup mode components
	setupFlex          *tview.Flex
	setupTabWidgets    []*tview.Box
	presetList         *tview.List
	presetDetailsPanel *tview.TextView
	presets            []Preset

	// Session mode components
	sessionFlex       *tview.Flex
	sessionTabWidgets []*tview.Box
	countdownPanel    *tview.TextView
	phaseTable        *tview.Table
	upcomingPanel     *tview.TextView
}

func NewCursesUIView(logger *log.Logger, app *tview.Application, model *UIModel) *CursesUIViewImpl {
	if logger == nil {
		panic("CursesUIViewImpl: logger cannot be nil")
	}
	return &CursesUIViewImpl{
		logger:      logger,
		app:         app,
		model:       model,
		currentMode: UIModeSetup,
	}
}

// Initialize sets up the tview widgets
func (ui *CursesUIViewImpl) Initialize(controller *UIController) {
	// Don't use SetChangedFunc with app.Draw() - it can hang during shutdown
	// when the app has been stopped but log lines are still being written.
	ui.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	ui.logView.SetBorder(true).SetTitle(" Logs ")

	ui.pages = tview.NewPages()

	ui.initSetupMode(controller)
	ui.initSessionMode(controller)

	ui.pages.AddPage(pageSetup, ui.setupFlex, true, true)
	ui.pages.AddPage(pageSession, ui.sessionFlex, true, false)

	// Session content gets more room than the logs
	ui.mainFlex = tview.NewFlex().
		AddItem(ui.pages, 0, 2, true).
		AddItem(ui.logView, 0, 1, false)

	ui.setFocusForCurrentMode()
}

func newInstructions(text string) *tview.TextView {
	instructions := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	instructions.SetText(text)
	return instructions
}

// initSetupMode sets up the Session Setup mode UI
func (ui *CursesUIViewImpl) initSetupMode(controller *UIController) {
	instructions := newInstructions("[yellow]Enter[white] Load Preset  |  [yellow]Tab[white] Cycle Panels  |  [yellow]Esc[white] Quit\n[yellow]1[white] Setup  |  [yellow]2[white] Session")

	ui.presetList = tview.NewList().
		ShowSecondaryText(true).
		SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			ui.logger.Printf("UI: Preset selected: index=%d, name=%s", index, mainText)
			controller.OnPresetSelected(index)
		}).
		SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			ui.updatePresetDetailsDisplay(index)
		})
	ui.presetList.SetBorder(true).SetTitle(" Presets ")

	ui.presetDetailsPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.presetDetailsPanel.SetBorder(true).SetTitle(" Preset Details ")
	ui.updatePresetDetailsDisplay(-1)

	ui.setupTabWidgets = append(ui.setupTabWidgets, ui.presetList.Box, ui.presetDetailsPanel.Box)

	columns := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(ui.presetList, 0, 1, true).
		AddItem(ui.presetDetailsPanel, 0, 1, false)

	ui.setupFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(instructions, 2, 0, false).
		AddItem(columns, 0, 1, true)
}

// initSessionMode sets up the Session mode UI
func (ui *CursesUIViewImpl) initSessionMode(controller *UIController) {
	instructions := newInstructions("[yellow]Space[white] Start/Stop  |  [yellow]Q[white]/[yellow]X[white] Stop  |  [yellow]Esc[white] Quit\n[yellow]1[white] Setup  |  [yellow]2[white] Session")

	ui.countdownPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.countdownPanel.SetBorder(true).SetTitle(" Countdown ")

	ui.phaseTable = tview.NewTable().
		SetBorders(false).
		SetFixed(1, 0).
		SetSelectable(true, false)
	ui.phaseTable.SetBorder(true).SetTitle(" Phases ")

	ui.upcomingPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.upcomingPanel.SetBorder(true).SetTitle(" Up Next ")

	ui.updateSessionDisplay(SessionState{Status: SessionStatusIdle, PhaseIndex: -1})

	ui.sessionTabWidgets = append(ui.sessionTabWidgets, ui.phaseTable.Box, ui.countdownPanel.Box, ui.upcomingPanel.Box)

	rightColumn := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.countdownPanel, 0, 1, false).
		AddItem(ui.upcomingPanel, 0, 1, false)

	columns := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(ui.phaseTable, 0, 3, true).
		AddItem(rightColumn, 0, 2, false)

	ui.sessionFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(instructions, 2, 0, false).
		AddItem(columns, 0, 1, true)
}

// SetPresetList populates the preset selection list
func (ui *CursesUIViewImpl) SetPresetList(presets []Preset) {
	ui.presets = presets
	ui.presetList.Clear()

	for _, preset := range presets {
		ui.presetList.AddItem(preset.Name, presetSummary(preset.Config), 0, nil)
	}

	if len(presets) > 0 {
		ui.updatePresetDetailsDisplay(0)
	}
}

func presetSummary(cfg tabata.SessionConfig) string {
	plan, err := tabata.Derive(cfg)
	if err != nil {
		return err.Error()
	}
	return fmt.Sprintf("%d x %d min, %ds/%ds - %s", cfg.NumBlocks, cfg.BlockMinutes, cfg.WorkSeconds, cfg.RestSeconds, formatDuration(plan.TotalDuration()))
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	if minutes >= 60 {
		return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
	}
	if seconds > 0 {
		return fmt.Sprintf("%d min %ds", minutes, seconds)
	}
	return fmt.Sprintf("%d min", minutes)
}

// formatDurationMMSS formats a duration as MM:SS
func formatDurationMMSS(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", totalSeconds/60, totalSeconds%60)
}

// updatePresetDetailsDisplay formats and displays the preset details
func (ui *CursesUIViewImpl) updatePresetDetailsDisplay(index int) {
	if ui.presetDetailsPanel == nil {
		return
	}

	if index < 0 || index >= len(ui.presets) {
		text := "\n\n  [yellow]Session Setup[white]\n\n"
		text += "  Select a preset from the list to view details.\n"
		ui.presetDetailsPanel.SetText(text)
		return
	}

	preset := ui.presets[index]
	cfg := preset.Config
	text := "\n"
	text += fmt.Sprintf("  [yellow]%s[white]\n", preset.Name)
	text += fmt.Sprintf("  [gray]%s[white]\n\n", preset.Description)
	text += fmt.Sprintf("  [gray]Blocks:[white]      %d x %d min\n", cfg.NumBlocks, cfg.BlockMinutes)
	text += fmt.Sprintf("  [gray]Work / Rest:[white] %ds / %ds\n", cfg.WorkSeconds, cfg.RestSeconds)
	text += fmt.Sprintf("  [gray]Block Rest:[white]  %ds\n\n", cfg.BlockRestSeconds)

	plan, err := tabata.Derive(cfg)
	if err != nil {
		text += fmt.Sprintf("  [red]%v[white]\n", err)
	} else {
		text += fmt.Sprintf("  [gray]Intervals per block:[white] %d\n", plan.IntervalsPerBlock)
		text += fmt.Sprintf("  [gray]Work phases:[white]         %d\n", plan.WorkPhases())
		text += fmt.Sprintf("  [gray]Total duration:[white]      %s\n", formatDuration(plan.TotalDuration()))
		if dropped := plan.BlockSeconds - plan.IntervalsPerBlock*plan.IntervalSeconds; dropped > 0 {
			text += fmt.Sprintf("  [gray](%ds of each block does not fit an interval and is skipped)[white]\n", dropped)
		}
	}
	text += "\n  [green]Press Enter to load this preset[white]\n"

	ui.presetDetailsPanel.SetText(text)
}

// SetMode switches the UI to the specified mode
func (ui *CursesUIViewImpl) SetMode(mode UIMode) {
	if ui.currentMode == mode {
		return
	}

	ui.currentMode = mode

	switch mode {
	case UIModeSetup:
		ui.pages.SwitchToPage(pageSetup)
	case UIModeSession:
		ui.pages.SwitchToPage(pageSession)
	}

	ui.setFocusForCurrentMode()
}

// GetCurrentMode returns the currently active UI mode
func (ui *CursesUIViewImpl) GetCurrentMode() UIMode {
	return ui.currentMode
}

// setFocusForCurrentMode sets focus to the first widget in the current mode
func (ui *CursesUIViewImpl) setFocusForCurrentMode() {
	if widgets := ui.getTabWidgetsForCurrentMode(); len(widgets) > 0 {
		ui.app.SetFocus(widgets[0])
	}
}

// getTabWidgetsForCurrentMode returns the tab widgets for the current mode
func (ui *CursesUIViewImpl) getTabWidgetsForCurrentMode() []*tview.Box {
	switch ui.currentMode {
	case UIModeSetup:
		return ui.setupTabWidgets
	case UIModeSession:
		return ui.sessionTabWidgets
	default:
		return nil
	}
}

// SetupKeyboardHandlers sets up keyboard event handlers
func (ui *CursesUIViewImpl) SetupKeyboardHandlers(controller *UIController) {
	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// Number keys for mode switching
		if event.Key() == tcell.KeyRune {
			if mode, ok := GetUIModeByKey(event.Rune()); ok {
				controller.OnModeChange(mode)
				return nil
			}
		}

		// Tab to switch focus between widgets in current mode
		if event.Key() == tcell.KeyTab {
			widgets := ui.getTabWidgetsForCurrentMode()
			for i, w := range widgets {
				if w.HasFocus() {
					ui.app.SetFocus(widgets[(i+1)%len(widgets)])
					break
				}
			}
			return nil
		}

		if event.Key() == tcell.KeyEscape {
			controller.OnEscapeKey()
			return nil
		}

		if ui.currentMode == UIModeSession && event.Key() == tcell.KeyRune {
			switch event.Rune() {
			case ' ':
				controller.ToggleSession()
				return nil
			case 'q', 'x':
				controller.StopSession()
				return nil
			}
		}

		return event
	})
}

// GetLogViewHeight returns the visible height of the log view
func (ui *CursesUIViewImpl) GetLogViewHeight() int {
	_, _, _, height := ui.logView.GetInnerRect()
	return height
}

// ClearLogView clears the log view
func (ui *CursesUIViewImpl) ClearLogView() {
	ui.logView.Clear()
}

// WriteLogLine writes a line to the log view
func (ui *CursesUIViewImpl) WriteLogLine(line string) error {
	_, err := fmt.Fprint(ui.logView, tview.Escape(line))
	return err
}

// Draw refreshes/redraws the UI
func (ui *CursesUIViewImpl) Draw() error {
	ui.app.Draw()
	return nil
}

// Run starts the UI and blocks until it exits
func (ui *CursesUIViewImpl) Run() error {
	// SetRoot must be called before setting focus, otherwise focus may be reset
	ui.app.SetRoot(ui.mainFlex, true)
	ui.setFocusForCurrentMode()
	return ui.app.Run()
}

// Stop stops the UI framework
func (ui *CursesUIViewImpl) Stop() {
	ui.app.Stop()
}

// UpdateSessionState updates the session mode panels
func (ui *CursesUIViewImpl) UpdateSessionState(state SessionState) {
	ui.updateSessionDisplay(state)
}

func (ui *CursesUIViewImpl) updateSessionDisplay(state SessionState) {
	ui.countdownPanel.SetText(formatCountdown(state))
	ui.updatePhaseTable(state)
	ui.upcomingPanel.SetText(formatUpcoming(state))
}

func phaseColor(kind tabata.PhaseKind) tcell.Color {
	switch kind {
	case tabata.PhaseWork:
		return tcell.ColorOrangeRed
	case tabata.PhaseRest:
		return tcell.ColorLightGreen
	default:
		return tcell.ColorDeepSkyBlue
	}
}

// updatePhaseTable lists the phases of the run, newest first
func (ui *CursesUIViewImpl) updatePhaseTable(state SessionState) {
	ui.phaseTable.Clear()
	for col, header := range phaseTableHeaders {
		ui.phaseTable.SetCell(0, col, tview.NewTableCell(header).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false).
			SetExpansion(1))
	}

	last := len(state.History) - 1
	for i := last; i >= 0; i-- {
		phase := state.History[i]
		remaining := "done"
		if i == last {
			switch state.Status {
			case SessionStatusRunning:
				remaining = fmt.Sprintf("%ds", state.Remaining)
			case SessionStatusCompleted:
				remaining = "done"
			default:
				remaining = state.Status.String()
			}
		}
		row := last - i + 1
		cells := []string{
			fmt.Sprintf("%d/%d", phase.Block, phase.NumBlocks),
			phase.IntervalText(),
			phase.Kind.String(),
			remaining,
			phase.Label(),
		}
		for col, text := range cells {
			cell := tview.NewTableCell(text).SetExpansion(1)
			if col == 2 {
				cell.SetTextColor(phaseColor(phase.Kind))
			}
			ui.phaseTable.SetCell(row, col, cell)
		}
	}
	ui.phaseTable.ScrollToBeginning()
}

func formatCountdown(state SessionState) string {
	switch state.Status {
	case SessionStatusIdle:
		return "\n  [gray]No session loaded[white]\n\n  Go to Session Setup (press 1) to pick a preset.\n"
	case SessionStatusReady:
		text := fmt.Sprintf("\n  [yellow]%s[white]\n\n", state.PresetName)
		text += fmt.Sprintf("  [gray]Duration:[white] %s\n\n", formatDuration(state.Total()))
		text += "  [green]Ready to start[white]\n\n"
		text += "  [gray]Press[white] [yellow]Space[white] [gray]to start[white]\n"
		return text
	}

	text := fmt.Sprintf("\n  [yellow]%s[white] [gray](%s)[white]\n\n", state.PresetName, state.Status)
	if state.PhaseIndex >= 0 {
		phase := state.Phase
		text += fmt.Sprintf("  Block %d/%d   Interval %s\n\n", phase.Block, phase.NumBlocks, phase.IntervalText())
		text += fmt.Sprintf("  [::b]%s[::-]  %s\n", phase.Kind, phase.Label())
		if state.Status == SessionStatusRunning {
			text += fmt.Sprintf("  [::b]%ds[::-] left\n", state.Remaining)
		}
	}
	text += fmt.Sprintf("\n  [gray]Elapsed:[white]   %s\n", formatDurationMMSS(state.Elapsed))
	text += fmt.Sprintf("  [gray]Remaining:[white] %s\n", formatDurationMMSS(state.RemainingTotal()))

	switch state.Status {
	case SessionStatusCompleted:
		text += "\n  [green]Tabata session complete! Amazing effort![white]\n"
	case SessionStatusCancelled:
		text += "\n  [gray]Timer stopped. Press Space to run it again.[white]\n"
	case SessionStatusFailed:
		text += fmt.Sprintf("\n  [red]%v[white]\n", state.Err)
	}
	return text
}

func formatUpcoming(state SessionState) string {
	upcoming := state.Upcoming(upcomingPhaseCount)
	if len(upcoming) == 0 {
		if state.Status == SessionStatusRunning {
			return "\n  [green]Finish![white]\n"
		}
		return ""
	}
	text := "\n"
	for _, phase := range upcoming {
		label := ""
		if phase.Kind != tabata.PhaseWork {
			label = tabata.RestLabel
		}
		text += fmt.Sprintf("  [gray]B%d %-5s[white] %-10s %3ds %s\n", phase.Block, phase.IntervalText(), phase.Kind, phase.Seconds(), label)
	}
	return text
}
