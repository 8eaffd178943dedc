// Package config resolves session and audio settings from defaults, the
// config file, TABATA_* environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lowaak/tabata-timer/internal/audio"
	"github.com/lowaak/tabata-timer/internal/tabata"
	"github.com/lowaak/tabata-timer/internal/trainer"
)

const (
	KeyBlockMinutes  = "block-minutes"
	KeyBlocks        = "blocks"
	KeyWork          = "work"
	KeyRest          = "rest"
	KeyBlockRest     = "block-rest"
	KeyWorkDir       = "work-dir"
	KeyRestDir       = "rest-dir"
	KeyRemote        = "remote"
	KeyRemoteBaseURL = "remote-base-url"
	KeyWorkFiles     = "work-files"
	KeyRestFiles     = "rest-files"
	KeyPlayer        = "player"
	KeyNoAudio       = "no-audio"
	KeyStateDir      = "state-dir"
	KeyLogFile       = "log-file"
	KeySeed          = "seed"
	KeyStrict        = "strict"
	KeyExercises     = "exercises"
	KeyExerciseOrder = "exercise-order"
)

// Exercise orders
const (
	OrderRandom = "random"
	OrderCycle  = "cycle"
)

const envPrefix = "TABATA"

// Settings is everything a run needs besides the clock
type Settings struct {
	Session       tabata.SessionConfig
	WorkDir       string
	RestDir       string
	Remote        bool
	RemoteBaseURL string
	WorkFiles     []string
	RestFiles     []string
	Player        []string // Command line, with audio.TrackPlaceholder for the track
	NoAudio       bool
	StateDir      string
	LogFile       string
	Seed          uint64 // Zero picks a random seed
	Strict        bool
	Exercises     []string
	ExerciseOrder string
	ConfigFile    string // The file that was read, empty when none
}

// bound is an inclusive range a session field must fall in when Strict is set
type bound struct {
	name     string
	min, max int
}

var (
	blockMinutesBound = bound{"block minutes", 1, 60}
	blocksBound       = bound{"number of blocks", 1, 10}
	workBound         = bound{"work duration", 10, 300}
	restBound         = bound{"rest duration", 5, 300}
	blockRestBound    = bound{"block rest duration", 10, 300}
)

func (b bound) check(value int) error {
	if value < b.min || value > b.max {
		return fmt.Errorf("%w: %s must be between %d and %d, got %d", tabata.ErrInvalidConfiguration, b.name, b.min, b.max, value)
	}
	return nil
}

// AddFlags registers every setting on fs
func AddFlags(fs *pflag.FlagSet) {
	d := tabata.DefaultSessionConfig
	fs.Int(KeyBlockMinutes, d.BlockMinutes, "length of each block in minutes")
	fs.Int(KeyBlocks, d.NumBlocks, "number of blocks")
	fs.Int(KeyWork, d.WorkSeconds, "work duration in seconds")
	fs.Int(KeyRest, d.RestSeconds, "rest duration in seconds")
	fs.Int(KeyBlockRest, d.BlockRestSeconds, "rest between blocks in seconds")
	fs.String(KeyWorkDir, "active", "directory of mp3 tracks for work phases")
	fs.String(KeyRestDir, "rest", "directory of mp3 tracks for rest phases")
	fs.Bool(KeyRemote, false, "stream tracks from the remote track list instead of local directories")
	fs.String(KeyRemoteBaseURL, audio.DefaultRemoteBaseURL, "base URL of the remote track list")
	fs.StringSlice(KeyWorkFiles, audio.DefaultRemoteWorkFiles, "remote work track files")
	fs.StringSlice(KeyRestFiles, audio.DefaultRemoteRestFiles, "remote rest track files")
	fs.String(KeyPlayer, strings.Join(audio.DefaultPlayerCommand, " "), "audio player command, "+audio.TrackPlaceholder+" is replaced by the track")
	fs.Bool(KeyNoAudio, false, "run without music")
	fs.String(KeyStateDir, trainer.DefaultStateDir(), "directory for the last session record and logs")
	fs.String(KeyLogFile, "", "log file path (default <state-dir>/tabata.log)")
	fs.Uint64(KeySeed, 0, "random seed for exercises and tracks, 0 for a random one")
	fs.Bool(KeyStrict, true, "enforce the recommended bounds on session settings")
	fs.StringSlice(KeyExercises, tabata.DefaultExercises, "exercise names drawn for work phases")
	fs.String(KeyExerciseOrder, OrderRandom, "exercise order: random or cycle")
}

// Load resolves settings with precedence flags > env > config file > defaults.
// An empty configFile looks for config.yaml in the state directory; a missing one is not an error.
func Load(fs *pflag.FlagSet, configFile string) (Settings, error) {
	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return Settings{}, fmt.Errorf("bind flags: %w", err)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(v.GetString(KeyStateDir))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	s := Settings{
		Session: tabata.SessionConfig{
			BlockMinutes:     v.GetInt(KeyBlockMinutes),
			NumBlocks:        v.GetInt(KeyBlocks),
			WorkSeconds:      v.GetInt(KeyWork),
			RestSeconds:      v.GetInt(KeyRest),
			BlockRestSeconds: v.GetInt(KeyBlockRest),
		},
		WorkDir:       v.GetString(KeyWorkDir),
		RestDir:       v.GetString(KeyRestDir),
		Remote:        v.GetBool(KeyRemote),
		RemoteBaseURL: v.GetString(KeyRemoteBaseURL),
		WorkFiles:     v.GetStringSlice(KeyWorkFiles),
		RestFiles:     v.GetStringSlice(KeyRestFiles),
		Player:        strings.Fields(v.GetString(KeyPlayer)),
		NoAudio:       v.GetBool(KeyNoAudio),
		StateDir:      v.GetString(KeyStateDir),
		LogFile:       v.GetString(KeyLogFile),
		Seed:          v.GetUint64(KeySeed),
		Strict:        v.GetBool(KeyStrict),
		Exercises:     v.GetStringSlice(KeyExercises),
		ExerciseOrder: strings.ToLower(v.GetString(KeyExerciseOrder)),
		ConfigFile:    v.ConfigFileUsed(),
	}
	if s.LogFile == "" {
		s.LogFile = filepath.Join(s.StateDir, "tabata.log")
	}
	return s, nil
}

// Validate checks the session can be planned and, in strict mode, that it stays within the recommended bounds
func (s Settings) Validate() error {
	if _, err := tabata.Derive(s.Session); err != nil {
		return err
	}
	if s.Strict {
		checks := []struct {
			b     bound
			value int
		}{
			{blockMinutesBound, s.Session.BlockMinutes},
			{blocksBound, s.Session.NumBlocks},
			{workBound, s.Session.WorkSeconds},
			{restBound, s.Session.RestSeconds},
			{blockRestBound, s.Session.BlockRestSeconds},
		}
		for _, c := range checks {
			if err := c.b.check(c.value); err != nil {
				return err
			}
		}
	}
	if !slices.Contains([]string{OrderRandom, OrderCycle}, s.ExerciseOrder) {
		return fmt.Errorf("%w: unknown exercise order %q", tabata.ErrInvalidConfiguration, s.ExerciseOrder)
	}
	if len(s.Exercises) == 0 {
		return fmt.Errorf("%w: exercise list is empty", tabata.ErrInvalidConfiguration)
	}
	if !s.NoAudio && len(s.Player) == 0 {
		return fmt.Errorf("%w: player command is empty", tabata.ErrInvalidConfiguration)
	}
	return nil
}
