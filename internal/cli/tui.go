package cli

import (
	"github.com/rivo/tview"

	"github.com/lowaak/tabata-timer/internal/config"
	"github.com/lowaak/tabata-timer/internal/trainer"
)

// tuiStart is the session the UI opens on, nil restores the last one
type tuiStart struct {
	presetName string
	autoStart  bool
}

func runTUI(s config.Settings, start *tuiStart) error {
	a, err := newApp(s)
	if err != nil {
		return err
	}
	defer a.Close()

	tviewApp := tview.NewApplication()
	view := trainer.NewCursesUIView(a.logger, tviewApp, a.model)
	controller := trainer.NewUIController(a.model, a.manager, a.logger)
	defer controller.Shutdown()

	base := trainer.NewBaseUIView(trainer.NewBaseUIViewArg{
		UIViewImpl:   view,
		UIModel:      a.model,
		UIController: controller,
		Logger:       a.logger,
	})
	defer base.Shutdown()

	if start == nil {
		controller.RestoreLastSession()
	} else {
		if err := a.manager.Load(start.presetName, s.Session); err != nil {
			return err
		}
		controller.OnModeChange(trainer.UIModeSession)
		if start.autoStart {
			controller.StartSession()
		}
	}

	a.logger.Println("Terminal UI started")
	return base.Run()
}
