package events

// CallbackEvent provides pub/sub behavior with type-safe callbacks.
// Callbacks run synchronously on the notifying goroutine, in the order they
// were registered, which makes a CallbackEvent usable as an ordered hook list.
type CallbackEvent[T any] struct {
	set listenerSet[func(T), T]
}

// NewCallbackEvent creates a new CallbackEvent instance
// sendLastEventOnListen: if true, the CallbackEvent will remember the last Notify parameter
// and call new listeners immediately with that value if Notify has been called at least once
func NewCallbackEvent[T any](sendLastEventOnListen bool) *CallbackEvent[T] {
	return &CallbackEvent[T]{set: newListenerSet[func(T), T](sendLastEventOnListen)}
}

// Listen registers a callback function to be called when Notify is invoked
// Returns a deregistration function; calling it more than once is safe
func (e *CallbackEvent[T]) Listen(callback func(T)) func() {
	if callback == nil {
		panic("callback cannot be nil")
	}

	remove, last, replay := e.set.add(callback)

	// Outside the lock so the callback may itself Listen or Notify
	if replay {
		callback(last)
	}
	return remove
}

// Notify calls every registered callback with value, in registration order
func (e *CallbackEvent[T]) Notify(value T) {
	for _, callback := range e.set.record(value) {
		callback(value)
	}
}

// Latest returns the last notified value when sendLastEventOnListen is enabled
func (e *CallbackEvent[T]) Latest() (T, bool) {
	return e.set.latest()
}

// ListenerCount returns the current number of registered listeners
func (e *CallbackEvent[T]) ListenerCount() int {
	return e.set.count()
}
