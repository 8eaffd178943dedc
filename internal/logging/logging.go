// Package logging builds the process logger: a rotating log file plus a
// line channel the terminal UI tails into its log pane.
package logging

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultMaxSizeMB  = 5
	defaultMaxBackups = 3
	lineBufferSize    = 256
)

// Output is the writer behind the process logger
type Output struct {
	mu     sync.Mutex
	file   io.WriteCloser
	lines  chan string
	closed bool
}

// NewOutputArg holds the arguments for creating a new Output
type NewOutputArg struct {
	FilePath   string // Empty disables the log file
	MaxSizeMB  int
	MaxBackups int
	Console    io.Writer // Optional extra destination, e.g. os.Stderr for plain runs
}

// NewOutput opens the rotating log file, creating its directory if needed
func NewOutput(args NewOutputArg) (*Output, error) {
	o := &Output{lines: make(chan string, lineBufferSize)}
	var writers []io.WriteCloser
	if args.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(args.FilePath), 0755); err != nil {
			return nil, err
		}
		maxSize := args.MaxSizeMB
		if maxSize <= 0 {
			maxSize = defaultMaxSizeMB
		}
		maxBackups := args.MaxBackups
		if maxBackups <= 0 {
			maxBackups = defaultMaxBackups
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   args.FilePath,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
		})
	}
	if args.Console != nil {
		writers = append(writers, nopCloser{args.Console})
	}
	o.file = multiWriteCloser(writers)
	return o, nil
}

// Lines returns the channel every log line is copied to.
// When nobody drains it fast enough, lines are dropped rather than blocking the logger.
func (o *Output) Lines() <-chan string {
	return o.lines
}

func (o *Output) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return len(p), nil
	}

	n, err := o.file.Write(p)
	for line := range bytes.Lines(p) {
		select {
		case o.lines <- string(line):
		default:
		}
	}
	if err != nil {
		return n, err
	}
	return len(p), nil
}

// Close flushes the log file and closes the line channel. Later writes are discarded.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	close(o.lines)
	return o.file.Close()
}

// New returns a timestamped logger writing to out
func New(out *Output) *log.Logger {
	return log.New(out, "", log.Ltime|log.Lmicroseconds)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

type multiWriteCloser []io.WriteCloser

func (m multiWriteCloser) Write(p []byte) (int, error) {
	for _, w := range m {
		if _, err := w.Write(p); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (m multiWriteCloser) Close() error {
	var first error
	for _, w := range m {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
