package go_func_utils

import (
	"log"
	"runtime/debug"
)

// SafeGo runs fn on a new goroutine. A panic is written to logger with its
// stack before being re-raised, since the curses UI owns stdout and would
// otherwise swallow it.
func SafeGo(logger *log.Logger, name string, fn func()) {
	if logger == nil {
		panic("SafeGo: logger cannot be nil")
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
				panic(r)
			}
		}()
		fn()
	}()
}

// SafeGoDone is SafeGo plus a channel closed once fn returns normally
func SafeGoDone(logger *log.Logger, name string, fn func()) <-chan struct{} {
	done := make(chan struct{})
	SafeGo(logger, name, func() {
		defer close(done)
		fn()
	})
	return done
}
