package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutput_WritesFileAndLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tabata.log")
	out, err := NewOutput(NewOutputArg{FilePath: path})
	require.NoError(t, err)

	logger := New(out)
	logger.Println("SessionManager: Loaded session")
	logger.Println("PhaseAudio: stop")

	first := <-out.Lines()
	second := <-out.Lines()
	assert.True(t, strings.HasSuffix(first, "SessionManager: Loaded session\n"))
	assert.True(t, strings.HasSuffix(second, "PhaseAudio: stop\n"))

	require.NoError(t, out.Close())
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "SessionManager: Loaded session")

	// Lines channel is closed and later writes are dropped
	_, ok := <-out.Lines()
	assert.False(t, ok)
	logger.Println("after close")
	require.NoError(t, out.Close())
}

func TestOutput_ConsoleAndFullBuffer(t *testing.T) {
	var console strings.Builder
	out, err := NewOutput(NewOutputArg{Console: &console})
	require.NoError(t, err)
	defer out.Close()

	logger := New(out)
	for range lineBufferSize + 10 {
		logger.Println("tick")
	}

	assert.Equal(t, lineBufferSize+10, strings.Count(console.String(), "tick\n"))
	assert.Len(t, out.Lines(), lineBufferSize)
}
