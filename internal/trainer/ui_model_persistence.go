package trainer

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lowaak/tabata-timer/internal/tabata"
)

const lastSessionFileName = "last_session.yaml"

// LastSession is the record of the most recent finished run
type LastSession struct {
	RunID            string    `yaml:"run_id"`
	Preset           string    `yaml:"preset"`
	BlockMinutes     int       `yaml:"block_minutes"`
	NumBlocks        int       `yaml:"num_blocks"`
	WorkSeconds      int       `yaml:"work_seconds"`
	RestSeconds      int       `yaml:"rest_seconds"`
	BlockRestSeconds int       `yaml:"block_rest_seconds"`
	Outcome          string    `yaml:"outcome"`
	Error            string    `yaml:"error,omitempty"`
	ElapsedSeconds   int       `yaml:"elapsed_seconds"`
	FinishedAt       time.Time `yaml:"finished_at"`
}

// Config returns the session configuration the run used
func (l LastSession) Config() tabata.SessionConfig {
	return tabata.SessionConfig{
		BlockMinutes:     l.BlockMinutes,
		NumBlocks:        l.NumBlocks,
		WorkSeconds:      l.WorkSeconds,
		RestSeconds:      l.RestSeconds,
		BlockRestSeconds: l.BlockRestSeconds,
	}
}

type uiModelPersistenceData struct {
	Last              *LastSession `yaml:"last,omitempty"`
	CompletedSessions int          `yaml:"completed_sessions"`
}

type uiModelPersistence struct {
	filePath string
	data     uiModelPersistenceData
	logger   *log.Logger
}

// DefaultStateDir returns ~/.tabata, or .tabata when there is no home directory
func DefaultStateDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".tabata")
}

// LastSessionPath returns the file the last session is stored in
func LastSessionPath(stateDir string) string {
	if stateDir == "" {
		stateDir = DefaultStateDir()
	}
	return filepath.Join(stateDir, lastSessionFileName)
}

func newUIModelPersistence(logger *log.Logger, stateDir string) *uiModelPersistence {
	p := &uiModelPersistence{
		filePath: LastSessionPath(stateDir),
		logger:   logger,
	}
	p.load()
	return p
}

// ReadLastSession loads the last session record without a UIModel, for the plain console commands
func ReadLastSession(stateDir string) (LastSession, error) {
	path := LastSessionPath(stateDir)
	raw, err := os.ReadFile(path)
	if err != nil {
		return LastSession{}, err
	}
	var data uiModelPersistenceData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return LastSession{}, err
	}
	if data.Last == nil {
		return LastSession{}, os.ErrNotExist
	}
	return *data.Last, nil
}

func (p *uiModelPersistence) getLastSession() (LastSession, bool) {
	if p.data.Last == nil {
		return LastSession{}, false
	}
	return *p.data.Last, true
}

func (p *uiModelPersistence) getCompletedSessions() int {
	return p.data.CompletedSessions
}

func (p *uiModelPersistence) recordSession(session LastSession) {
	p.logger.Printf("UIModelPersistence: recordSession %s (%s) -> %s", session.RunID, session.Preset, session.Outcome)
	p.data.Last = &session
	if session.Outcome == tabata.OutcomeCompleted.String() {
		p.data.CompletedSessions++
	}
	p.save()
}

func (p *uiModelPersistence) load() {
	p.data = uiModelPersistenceData{}
	raw, err := os.ReadFile(p.filePath)
	if errors.Is(err, os.ErrNotExist) {
		p.logger.Printf("UIModelPersistence: load %s (no existing file)", p.filePath)
		return
	}
	if err != nil {
		p.logger.Printf("UIModelPersistence: load %s failed: %v", p.filePath, err)
		return
	}
	if err := yaml.Unmarshal(raw, &p.data); err != nil {
		p.logger.Printf("UIModelPersistence: load %s failed to parse: %v", p.filePath, err)
		p.data = uiModelPersistenceData{}
		return
	}
	p.logger.Printf("UIModelPersistence: load %s -> %d completed sessions", p.filePath, p.data.CompletedSessions)
}

func (p *uiModelPersistence) save() {
	if err := os.MkdirAll(filepath.Dir(p.filePath), 0755); err != nil {
		p.logger.Printf("UIModelPersistence: save mkdir failed: %v", err)
		return
	}
	raw, err := yaml.Marshal(p.data)
	if err != nil {
		p.logger.Printf("UIModelPersistence: save marshal failed: %v", err)
		return
	}
	if err := os.WriteFile(p.filePath, raw, 0644); err != nil {
		p.logger.Printf("UIModelPersistence: save %s failed: %v", p.filePath, err)
		return
	}
	p.logger.Printf("UIModelPersistence: save %s", p.filePath)
}
