package audio

import (
	"context"
	"errors"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/tabata-timer/internal/tabata"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
}

func TestDirSelector_PicksMP3PerKind(t *testing.T) {
	root := t.TempDir()
	active := filepath.Join(root, "active")
	rest := filepath.Join(root, "rest")
	writeFiles(t, active, "a.mp3", "b.MP3", "notes.txt")
	writeFiles(t, rest, "calm.mp3")
	require.NoError(t, os.Mkdir(filepath.Join(active, "sub.mp3"), 0o755))

	s := NewDirSelector(active, rest, rand.New(rand.NewPCG(3, 4)))

	seen := map[tabata.TrackRef]bool{}
	for block := 1; block <= 50; block++ {
		ref, err := s.SelectTrack(tabata.PhaseWork, block)
		require.NoError(t, err)
		seen[ref] = true
	}
	assert.Equal(t, map[tabata.TrackRef]bool{
		tabata.TrackRef(filepath.Join(active, "a.mp3")): true,
		tabata.TrackRef(filepath.Join(active, "b.MP3")): true,
	}, seen)

	ref, err := s.SelectTrack(tabata.PhaseRest, 1)
	require.NoError(t, err)
	assert.Equal(t, tabata.TrackRef(filepath.Join(rest, "calm.mp3")), ref)

	ref, err = s.SelectTrack(tabata.PhaseBlockRest, 1)
	require.NoError(t, err)
	assert.Equal(t, tabata.TrackRef(filepath.Join(rest, "calm.mp3")), ref)
}

func TestDirSelector_NoTracks(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, filepath.Join(root, "rest"), "readme.txt")

	s := NewDirSelector(filepath.Join(root, "missing"), filepath.Join(root, "rest"), nil)

	_, err := s.SelectTrack(tabata.PhaseWork, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = s.SelectTrack(tabata.PhaseRest, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no mp3 files found")
}

func TestDirSelector_FailureAbortsEngine(t *testing.T) {
	s := NewDirSelector(t.TempDir(), t.TempDir(), nil)
	engine, err := tabata.NewEngine(tabata.NewEngineArg{
		Config: tabata.DefaultSessionConfig,
		Sink:   tabata.SinkFuncs{},
		Clock:  &tabata.InstantClock{},
		Tracks: s,
	})
	require.NoError(t, err)

	outcome, err := engine.Run(context.Background())
	assert.Equal(t, tabata.OutcomeFailed, outcome)
	assert.ErrorIs(t, err, tabata.ErrResourceUnavailable)
}

func TestListSelector(t *testing.T) {
	s := NewListSelector(DefaultRemoteBaseURL, []string{"round1.mp3"}, []string{"rest1.mp3"}, nil)

	work, err := s.SelectTrack(tabata.PhaseWork, 1)
	require.NoError(t, err)
	assert.Equal(t, tabata.TrackRef("https://raw.githubusercontent.com/tomh1988-8/tabata/main/active/round1.mp3"), work)

	rest, err := s.SelectTrack(tabata.PhaseRest, 1)
	require.NoError(t, err)
	assert.Equal(t, tabata.TrackRef("https://raw.githubusercontent.com/tomh1988-8/tabata/main/rest/rest1.mp3"), rest)

	empty := NewListSelector("https://example.com", nil, nil, nil)
	_, err = empty.SelectTrack(tabata.PhaseWork, 1)
	assert.Error(t, err)
}

func TestListSelector_DefaultFilesAreUsed(t *testing.T) {
	s := NewListSelector(DefaultRemoteBaseURL, DefaultRemoteWorkFiles, DefaultRemoteRestFiles, rand.New(rand.NewPCG(1, 1)))
	for block := 1; block <= 20; block++ {
		ref, err := s.SelectTrack(tabata.PhaseWork, block)
		require.NoError(t, err)
		name := strings.TrimPrefix(string(ref), DefaultRemoteBaseURL+"active/")
		assert.Contains(t, DefaultRemoteWorkFiles, name)
	}
}

// fakePlayer records calls and enforces that at most one track plays at a time
type fakePlayer struct {
	calls    []string
	playing  bool
	startErr error
}

func (p *fakePlayer) Start(track tabata.TrackRef) error {
	if p.startErr != nil {
		return p.startErr
	}
	if p.playing {
		return ErrAlreadyPlaying
	}
	p.playing = true
	p.calls = append(p.calls, "start:"+string(track))
	return nil
}

func (p *fakePlayer) Stop() error {
	p.playing = false
	p.calls = append(p.calls, "stop")
	return nil
}

func TestPhaseAudio_StopPrecedesEachStart(t *testing.T) {
	player := &fakePlayer{}
	tracks := tabata.TrackSelectorFunc(func(kind tabata.PhaseKind, block int) (tabata.TrackRef, error) {
		if kind == tabata.PhaseWork {
			return "work.mp3", nil
		}
		return "rest.mp3", nil
	})

	engine, err := tabata.NewEngine(tabata.NewEngineArg{
		Config: tabata.SessionConfig{BlockMinutes: 1, NumBlocks: 2, WorkSeconds: 20, RestSeconds: 10, BlockRestSeconds: 30},
		Sink:   NewPhaseAudio(testLogger(), player),
		Clock:  &tabata.InstantClock{},
		Tracks: tracks,
	})
	require.NoError(t, err)

	outcome, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tabata.OutcomeCompleted, outcome)

	require.NotEmpty(t, player.calls)
	for i, call := range player.calls {
		if strings.HasPrefix(call, "start:") {
			require.Greater(t, i, 0)
			assert.Equal(t, "stop", player.calls[i-1])
		}
	}
	assert.Equal(t, "stop", player.calls[len(player.calls)-1])
	assert.False(t, player.playing)
	assert.Equal(t, []string{"stop", "start:work.mp3", "stop", "start:rest.mp3", "stop", "start:work.mp3"}, player.calls[:6])
}

func TestPhaseAudio_StartErrorFailsRun(t *testing.T) {
	noDevice := errors.New("no audio device")
	player := &fakePlayer{startErr: noDevice}

	engine, err := tabata.NewEngine(tabata.NewEngineArg{
		Config: tabata.DefaultSessionConfig,
		Sink:   NewPhaseAudio(testLogger(), player),
		Clock:  &tabata.InstantClock{},
		Tracks: tabata.TrackSelectorFunc(func(tabata.PhaseKind, int) (tabata.TrackRef, error) { return "x.mp3", nil }),
	})
	require.NoError(t, err)

	outcome, err := engine.Run(context.Background())
	assert.Equal(t, tabata.OutcomeFailed, outcome)
	assert.ErrorIs(t, err, tabata.ErrResourceUnavailable)
	assert.ErrorIs(t, err, noDevice)
}

func TestPhaseAudio_EmptyTrackOnlyStops(t *testing.T) {
	player := &fakePlayer{}
	a := NewPhaseAudio(testLogger(), player)

	require.NoError(t, a.OnPhase(tabata.PhaseEvent{Kind: tabata.PhaseWork}))
	assert.Equal(t, []string{"stop"}, player.calls)

	assert.Panics(t, func() { NewPhaseAudio(nil, player) })
	assert.Panics(t, func() { NewPhaseAudio(testLogger(), nil) })
}

func TestExecPlayer_Args(t *testing.T) {
	p := NewExecPlayer(testLogger(), []string{"mpv", "--no-video", "--loop=inf", TrackPlaceholder})
	assert.Equal(t, []string{"mpv", "--no-video", "--loop=inf", "song.mp3"}, p.args("song.mp3"))

	p = NewExecPlayer(testLogger(), []string{"afplay"})
	assert.Equal(t, []string{"afplay", "song.mp3"}, p.args("song.mp3"))

	p = NewExecPlayer(testLogger(), nil)
	assert.Equal(t, "mpg123", p.args("song.mp3")[0])
}

func TestExecPlayer_StartStop(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sleep")
	}
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}

	p := NewExecPlayer(testLogger(), []string{"sleep", TrackPlaceholder})
	require.NoError(t, p.Start("30"))
	assert.True(t, p.Playing())
	assert.ErrorIs(t, p.Start("30"), ErrAlreadyPlaying)

	start := time.Now()
	require.NoError(t, p.Stop())
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.False(t, p.Playing())

	// Stopping twice and starting an empty track are both no-ops
	require.NoError(t, p.Stop())
	require.NoError(t, p.Start(""))
	assert.False(t, p.Playing())
}

func TestExecPlayer_MissingBinary(t *testing.T) {
	p := NewExecPlayer(testLogger(), []string{"definitely-not-a-real-player-binary"})
	err := p.Start("song.mp3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start player")
	assert.False(t, p.Playing())
}
