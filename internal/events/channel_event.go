package events

import (
	"sync"
)

// ChannelEvent provides latest-wins pub/sub using channels
// T is the type of the value sent to channels
//
// Sends never block. When a listener's channel is full, the oldest buffered
// value is dropped to make room, so a slow listener always ends up holding
// the most recent value rather than a stale one.
type ChannelEvent[T any] struct {
	mu                    sync.RWMutex
	channels              map[uint64]chan T
	nextID                uint64
	sendLastEventOnListen bool
	lastEvent             *T
}

// NewChannelEvent creates a new ChannelEvent instance
// sendLastEventOnListen: if true, the ChannelEvent will remember the last Notify parameter
// and send it to new listeners immediately if Notify has been called at least once
func NewChannelEvent[T any](sendLastEventOnListen bool) *ChannelEvent[T] {
	return &ChannelEvent[T]{
		channels:              make(map[uint64]chan T),
		sendLastEventOnListen: sendLastEventOnListen,
	}
}

// Listen registers a channel to receive values when Notify is invoked
// The channel must be buffered and is never closed by the ChannelEvent
// Returns a deregistration function that can be called to remove the listener
func (e *ChannelEvent[T]) Listen(ch chan T) func() {
	if ch == nil {
		panic("channel cannot be nil")
	}
	if cap(ch) == 0 {
		panic("channel must be buffered")
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.channels[id] = ch
	var last *T
	if e.sendLastEventOnListen && e.lastEvent != nil {
		v := *e.lastEvent
		last = &v
	}
	e.mu.Unlock()

	if last != nil {
		sendLatest(ch, *last)
	}

	return func() {
		e.mu.Lock()
		delete(e.channels, id)
		e.mu.Unlock()
	}
}

// Notify sends the provided value to all registered channels
func (e *ChannelEvent[T]) Notify(value T) {
	e.mu.Lock()
	if e.sendLastEventOnListen {
		v := value
		e.lastEvent = &v
	}
	channels := make([]chan T, 0, len(e.channels))
	for _, ch := range e.channels {
		channels = append(channels, ch)
	}
	e.mu.Unlock()

	for _, ch := range channels {
		sendLatest(ch, value)
	}
}

// ListenerCount returns the current number of registered listeners
func (e *ChannelEvent[T]) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.channels)
}

func sendLatest[T any](ch chan T, value T) {
	select {
	case ch <- value:
		return
	default:
	}
	// Full: drop the oldest value and retry once
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- value:
	default:
	}
}
