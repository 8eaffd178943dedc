package audio

import (
	"fmt"
	"math/rand/v2"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lowaak/tabata-timer/internal/tabata"
)

// DefaultRemoteBaseURL hosts the active/ and rest/ track folders
const DefaultRemoteBaseURL = "https://raw.githubusercontent.com/tomh1988-8/tabata/main/"

var DefaultRemoteWorkFiles = []string{
	"80s-style-thrash-metal-track-short-version-261517.mp3",
	"80s-thrash-metal-track-retro-heavy-metal-energy-263548.mp3",
	"a-hero-of-the-80s-126684.mp3",
	"fibonacci-heavy-thrash-metal-instrumental-262792.mp3",
	"intense-nu-metal-thrash-fusion-battle-of-lepanto-258047.mp3",
	"lady-of-the-80x27s-128379.mp3",
	"round1.mp3",
	"round2.mp3",
	"round3.mp3",
	"short-thrash-metal-instrumental-265084.mp3",
	"very-heavy-melodic-metal-instrumental-236531.mp3",
}

var DefaultRemoteRestFiles = []string{
	"rest1.mp3",
}

// picker is a mutex-guarded random index source; a nil rand uses the global source
type picker struct {
	mu   sync.Mutex
	rand *rand.Rand
}

func (p *picker) pick(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rand == nil {
		return rand.IntN(n)
	}
	return p.rand.IntN(n)
}

// DirSelector picks a random .mp3 from a local directory per phase kind.
// Work phases use workDir, Rest and Block Rest phases use restDir.
type DirSelector struct {
	workDir string
	restDir string
	picker  picker
}

func NewDirSelector(workDir, restDir string, r *rand.Rand) *DirSelector {
	return &DirSelector{
		workDir: workDir,
		restDir: restDir,
		picker:  picker{rand: r},
	}
}

func (s *DirSelector) SelectTrack(kind tabata.PhaseKind, block int) (tabata.TrackRef, error) {
	dir := s.restDir
	if kind == tabata.PhaseWork {
		dir = s.workDir
	}
	tracks, err := ListTracks(dir)
	if err != nil {
		return "", err
	}
	return tabata.TrackRef(tracks[s.picker.pick(len(tracks))]), nil
}

// ListTracks returns the full paths of the .mp3 files in dir, sorted by name.
// A directory without any is an error.
func ListTracks(dir string) ([]string, error) {
	if dir == "" {
		return nil, fmt.Errorf("no track directory configured")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list tracks in %s: %w", dir, err)
	}

	var tracks []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".mp3") {
			continue
		}
		tracks = append(tracks, filepath.Join(dir, entry.Name()))
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("no mp3 files found in directory: %s", dir)
	}
	return tracks, nil
}

// ListSelector builds track URLs from a base URL and fixed file lists.
// It never fetches anything; the player is handed the URL.
type ListSelector struct {
	baseURL   string
	workFiles []string
	restFiles []string
	picker    picker
}

func NewListSelector(baseURL string, workFiles, restFiles []string, r *rand.Rand) *ListSelector {
	return &ListSelector{
		baseURL:   baseURL,
		workFiles: workFiles,
		restFiles: restFiles,
		picker:    picker{rand: r},
	}
}

func (s *ListSelector) SelectTrack(kind tabata.PhaseKind, block int) (tabata.TrackRef, error) {
	folder, files := "rest", s.restFiles
	if kind == tabata.PhaseWork {
		folder, files = "active", s.workFiles
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no %s tracks configured", folder)
	}
	ref, err := url.JoinPath(s.baseURL, folder, files[s.picker.pick(len(files))])
	if err != nil {
		return "", fmt.Errorf("build %s track url from %q: %w", folder, s.baseURL, err)
	}
	return tabata.TrackRef(ref), nil
}
