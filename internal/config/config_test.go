package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/tabata-timer/internal/audio"
	"github.com/lowaak/tabata-timer/internal/tabata"
)

func loadWith(t *testing.T, configFile string, args ...string) Settings {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(fs)
	require.NoError(t, fs.Parse(args))
	s, err := Load(fs, configFile)
	require.NoError(t, err)
	return s
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	s := loadWith(t, "", "--state-dir", dir)

	assert.Equal(t, tabata.DefaultSessionConfig, s.Session)
	assert.Equal(t, "active", s.WorkDir)
	assert.Equal(t, "rest", s.RestDir)
	assert.False(t, s.Remote)
	assert.Equal(t, audio.DefaultRemoteBaseURL, s.RemoteBaseURL)
	assert.Equal(t, audio.DefaultRemoteWorkFiles, s.WorkFiles)
	assert.Equal(t, audio.DefaultPlayerCommand, s.Player)
	assert.Equal(t, filepath.Join(dir, "tabata.log"), s.LogFile)
	assert.Equal(t, uint64(0), s.Seed)
	assert.True(t, s.Strict)
	assert.Equal(t, tabata.DefaultExercises, s.Exercises)
	assert.Equal(t, OrderRandom, s.ExerciseOrder)
	assert.Empty(t, s.ConfigFile)
	assert.NoError(t, s.Validate())
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
block-minutes: 4
blocks: 2
work: 30
exercises: [Squats, Lunges]
`), 0o644))
	t.Setenv("TABATA_BLOCKS", "5")
	t.Setenv("TABATA_EXERCISE_ORDER", "CYCLE")

	s := loadWith(t, "", "--state-dir", dir, "--work", "40")

	assert.Equal(t, filepath.Join(dir, "config.yaml"), s.ConfigFile)
	assert.Equal(t, 4, s.Session.BlockMinutes, "config file")
	assert.Equal(t, 5, s.Session.NumBlocks, "env beats config file")
	assert.Equal(t, 40, s.Session.WorkSeconds, "flag beats config file")
	assert.Equal(t, 10, s.Session.RestSeconds, "default")
	assert.Equal(t, []string{"Squats", "Lunges"}, s.Exercises)
	assert.Equal(t, OrderCycle, s.ExerciseOrder)
}

func TestLoad_ExplicitConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("player: afplay {track}\nseed: 42\n"), 0o644))

	s := loadWith(t, path, "--state-dir", t.TempDir())
	assert.Equal(t, []string{"afplay", audio.TrackPlaceholder}, s.Player)
	assert.Equal(t, uint64(42), s.Seed)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(fs)
	_, err := Load(fs, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := loadWith(t, "", "--state-dir", t.TempDir())

	cases := []struct {
		name   string
		modify func(*Settings)
		ok     bool
	}{
		{"defaults", func(*Settings) {}, true},
		{"work below strict bound", func(s *Settings) { s.Session.WorkSeconds = 5 }, false},
		{"work below bound without strict", func(s *Settings) { s.Session.WorkSeconds = 5; s.Strict = false }, true},
		{"too many blocks", func(s *Settings) { s.Session.NumBlocks = 11 }, false},
		{"block rest too long", func(s *Settings) { s.Session.BlockRestSeconds = 301 }, false},
		{"interval longer than block", func(s *Settings) {
			s.Strict = false
			s.Session = tabata.SessionConfig{BlockMinutes: 1, NumBlocks: 1, WorkSeconds: 50, RestSeconds: 20, BlockRestSeconds: 10}
		}, false},
		{"zero rest", func(s *Settings) { s.Strict = false; s.Session.RestSeconds = 0 }, false},
		{"unknown order", func(s *Settings) { s.ExerciseOrder = "alphabetical" }, false},
		{"no exercises", func(s *Settings) { s.Exercises = nil }, false},
		{"no player", func(s *Settings) { s.Player = nil }, false},
		{"no player without audio", func(s *Settings) { s.Player = nil; s.NoAudio = true }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := valid
			tc.modify(&s)
			err := s.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tabata.ErrInvalidConfiguration)
			}
		})
	}
}
