package cli

import (
	"fmt"
	"log"
	"math/rand/v2"
	"os"

	"github.com/spf13/pflag"

	"github.com/lowaak/tabata-timer/internal/audio"
	"github.com/lowaak/tabata-timer/internal/config"
	"github.com/lowaak/tabata-timer/internal/logging"
	"github.com/lowaak/tabata-timer/internal/tabata"
	"github.com/lowaak/tabata-timer/internal/trainer"
)

// newClock is swapped for an instant clock in tests
var newClock = func() tabata.Clock { return tabata.RealClock{} }

// Random streams, so exercises and tracks drawn from one seed stay independent
const (
	exerciseStream uint64 = iota + 1
	trackStream
)

// app holds the collaborators shared by the terminal UI and the console runner
type app struct {
	output  *logging.Output
	logger  *log.Logger
	model   *trainer.UIModel
	manager *trainer.SessionManager
}

func newApp(s config.Settings, sinks ...tabata.Sink) (*app, error) {
	output, err := logging.NewOutput(logging.NewOutputArg{FilePath: s.LogFile})
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logger := logging.New(output)
	if s.ConfigFile != "" {
		logger.Printf("Config: read %s", s.ConfigFile)
	}

	model := trainer.NewUIModel(trainer.NewUIModelArg{
		Logger:    logger,
		UILogChan: output.Lines(),
		StateDir:  s.StateDir,
	})
	manager := trainer.NewSessionManager(trainer.NewSessionManagerArg{
		Model:     model,
		Logger:    logger,
		Clock:     newClock(),
		Tracks:    buildTracks(s),
		Exercises: exerciseFactory(s),
		Player:    buildPlayer(s, logger),
		Sinks:     sinks,
	})

	return &app{output: output, logger: logger, model: model, manager: manager}, nil
}

// Close stops the session, then the model, then flushes the log
func (a *app) Close() {
	a.manager.Shutdown()
	a.model.Shutdown()
	if err := a.output.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error closing log: %v\n", err)
	}
}

func seededRand(seed, stream uint64) *rand.Rand {
	if seed == 0 {
		return nil
	}
	return rand.New(rand.NewPCG(seed, stream))
}

func buildTracks(s config.Settings) tabata.TrackSelector {
	r := seededRand(s.Seed, trackStream)
	switch {
	case s.NoAudio:
		return tabata.NoTracks{}
	case s.Remote:
		return audio.NewListSelector(s.RemoteBaseURL, s.WorkFiles, s.RestFiles, r)
	default:
		return audio.NewDirSelector(s.WorkDir, s.RestDir, r)
	}
}

func buildPlayer(s config.Settings, logger *log.Logger) audio.Player {
	if s.NoAudio {
		return audio.NopPlayer{}
	}
	return audio.NewExecPlayer(logger, s.Player)
}

// exerciseFactory returns a fresh source per run, so a seeded session repeats the same exercises every time
func exerciseFactory(s config.Settings) func() tabata.ExerciseSource {
	exercises := s.Exercises
	return func() tabata.ExerciseSource {
		switch {
		case s.ExerciseOrder == config.OrderCycle:
			return tabata.NewCyclicExercises(exercises)
		case s.Seed != 0:
			return tabata.NewRandomExercises(exercises, seededRand(s.Seed, exerciseStream))
		default:
			return tabata.NewRandomExercises(exercises, nil)
		}
	}
}

// resolveSession picks the session to run: the last one, a named preset, or the configured settings
func resolveSession(fs *pflag.FlagSet, s config.Settings, presetName string, last bool) (string, tabata.SessionConfig, error) {
	if last {
		record, err := trainer.ReadLastSession(s.StateDir)
		if err != nil {
			return "", tabata.SessionConfig{}, fmt.Errorf("no last session in %s: %w", s.StateDir, err)
		}
		return record.Preset, record.Config(), nil
	}
	if presetName != "" {
		preset, ok := trainer.GetPresetByName(presetName)
		if !ok {
			return "", tabata.SessionConfig{}, fmt.Errorf("unknown preset %q (see 'tabata presets')", presetName)
		}
		return preset.Name, preset.Config, nil
	}
	if !sessionFlagsChanged(fs) {
		for _, preset := range trainer.AllPresets {
			if preset.Config == s.Session {
				return preset.Name, preset.Config, nil
			}
		}
	}
	return trainer.CustomPresetName, s.Session, nil
}

func sessionFlagsChanged(fs *pflag.FlagSet) bool {
	for _, key := range []string{config.KeyBlockMinutes, config.KeyBlocks, config.KeyWork, config.KeyRest, config.KeyBlockRest} {
		if fs.Changed(key) {
			return true
		}
	}
	return false
}
