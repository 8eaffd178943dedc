package events

import (
	"sync"
)

type callbackListener[T any] struct {
	id       uint64
	callback func(T) error
}

// CallbackEvent provides ordered pub/sub with error-returning callbacks
// T is the type of the argument passed to callback functions
type CallbackEvent[T any] struct {
	mu        sync.RWMutex
	listeners []callbackListener[T]
	nextID    uint64
}

// NewCallbackEvent creates a new CallbackEvent instance
func NewCallbackEvent[T any]() *CallbackEvent[T] {
	return &CallbackEvent[T]{}
}

// Listen registers a callback function to be called when Notify is invoked
// Callbacks run in registration order
// Returns a deregistration function that can be called to remove the listener
func (e *CallbackEvent[T]) Listen(callback func(T) error) func() {
	if callback == nil {
		panic("callback cannot be nil")
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners = append(e.listeners, callbackListener[T]{id: id, callback: callback})
	e.mu.Unlock()

	// Return deregistration function
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, l := range e.listeners {
			if l.id == id {
				e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
				return
			}
		}
	}
}

// Notify calls the registered callbacks in order with the provided value.
// It stops at the first callback that returns an error and returns that error.
func (e *CallbackEvent[T]) Notify(value T) error {
	e.mu.RLock()
	// Snapshot so callbacks can deregister themselves without deadlocking
	listeners := make([]callbackListener[T], len(e.listeners))
	copy(listeners, e.listeners)
	e.mu.RUnlock()

	for _, l := range listeners {
		if err := l.callback(value); err != nil {
			return err
		}
	}
	return nil
}

// ListenerCount returns the current number of registered listeners
func (e *CallbackEvent[T]) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners)
}
