package audio

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/lowaak/tabata-timer/internal/go_func_utils"
	"github.com/lowaak/tabata-timer/internal/tabata"
)

// TrackPlaceholder in a player command is replaced by the track reference.
// Without it the track is appended as the last argument.
const TrackPlaceholder = "{track}"

// DefaultPlayerCommand loops the track until it is stopped
var DefaultPlayerCommand = []string{"mpg123", "-q", "--loop", "-1", TrackPlaceholder}

// Player plays at most one track at a time
type Player interface {
	Start(track tabata.TrackRef) error
	Stop() error
}

// NopPlayer accepts every track and plays nothing
type NopPlayer struct{}

func (NopPlayer) Start(tabata.TrackRef) error { return nil }
func (NopPlayer) Stop() error                 { return nil }

var ErrAlreadyPlaying = errors.New("a track is already playing")

type playback struct {
	cmd     *exec.Cmd
	done    <-chan struct{}
	stopped atomic.Bool
}

// ExecPlayer plays tracks by running an external command per track
type ExecPlayer struct {
	logger  *log.Logger
	command []string

	mu      sync.Mutex
	current *playback
}

func NewExecPlayer(logger *log.Logger, command []string) *ExecPlayer {
	if logger == nil {
		panic("ExecPlayer: logger cannot be nil")
	}
	if len(command) == 0 {
		command = DefaultPlayerCommand
	}
	return &ExecPlayer{
		logger:  logger,
		command: command,
	}
}

func (p *ExecPlayer) args(track tabata.TrackRef) []string {
	args := make([]string, 0, len(p.command)+1)
	substituted := false
	for _, a := range p.command {
		if strings.Contains(a, TrackPlaceholder) {
			a = strings.ReplaceAll(a, TrackPlaceholder, string(track))
			substituted = true
		}
		args = append(args, a)
	}
	if !substituted {
		args = append(args, string(track))
	}
	return args
}

// Start launches the player command for track. An empty track is a no-op.
func (p *ExecPlayer) Start(track tabata.TrackRef) error {
	if track == "" {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		return ErrAlreadyPlaying
	}

	args := p.args(track)
	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start player %s: %w", args[0], err)
	}

	pb := &playback{cmd: cmd}
	pb.done = go_func_utils.SafeGoDone(p.logger, "ExecPlayer.wait", func() {
		err := cmd.Wait()
		if err != nil && !pb.stopped.Load() {
			p.logger.Printf("ExecPlayer: %s exited: %v", args[0], err)
		}
	})
	p.current = pb
	p.logger.Printf("ExecPlayer: playing %s", track)
	return nil
}

// Stop kills the current track, if any, and waits for the process to exit
func (p *ExecPlayer) Stop() error {
	p.mu.Lock()
	pb := p.current
	p.current = nil
	p.mu.Unlock()

	if pb == nil {
		return nil
	}
	pb.stopped.Store(true)

	select {
	case <-pb.done:
		return nil
	default:
	}
	if err := pb.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("stop player: %w", err)
	}
	<-pb.done
	return nil
}

// Playing reports whether a track has been started and not stopped
func (p *ExecPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}
