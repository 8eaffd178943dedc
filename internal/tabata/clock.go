package tabata

import (
	"context"
	"sync/atomic"
	"time"
)

// Clock is the engine's only blocking point.
// Sleep returns early with ctx.Err() when ctx is done.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// ClockFunc adapts a function to Clock
type ClockFunc func(ctx context.Context, d time.Duration) error

func (f ClockFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// RealClock sleeps on wall-clock time
type RealClock struct{}

func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// InstantClock never blocks; it only accumulates the logical time slept.
// Safe for concurrent use.
type InstantClock struct {
	slept atomic.Int64
}

func (c *InstantClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.slept.Add(int64(d))
	return nil
}

// Slept returns the total logical time slept so far
func (c *InstantClock) Slept() time.Duration {
	return time.Duration(c.slept.Load())
}
