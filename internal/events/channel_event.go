package events

// ChannelEvent provides pub/sub behavior using channels.
// Sends never block: a listener whose channel is full misses that value, so
// listeners that only care about the newest state should use a buffer of 1
// and re-read the source of truth when woken.
type ChannelEvent[T any] struct {
	set listenerSet[chan<- T, T]
}

// NewChannelEvent creates a new ChannelEvent instance
// sendLastEventOnListen: if true, the ChannelEvent will remember the last Notify parameter
// and send it to new listeners immediately if Notify has been called at least once
func NewChannelEvent[T any](sendLastEventOnListen bool) *ChannelEvent[T] {
	return &ChannelEvent[T]{set: newListenerSet[chan<- T, T](sendLastEventOnListen)}
}

// Listen registers a channel to receive values when Notify is invoked
// Returns a deregistration function; calling it more than once is safe
func (e *ChannelEvent[T]) Listen(ch chan<- T) func() {
	if ch == nil {
		panic("channel cannot be nil")
	}

	remove, last, replay := e.set.add(ch)
	if replay {
		trySend(ch, last)
	}
	return remove
}

// Notify sends value to every registered channel without blocking
func (e *ChannelEvent[T]) Notify(value T) {
	for _, ch := range e.set.record(value) {
		trySend(ch, value)
	}
}

// Latest returns the last notified value when sendLastEventOnListen is enabled
func (e *ChannelEvent[T]) Latest() (T, bool) {
	return e.set.latest()
}

// ListenerCount returns the current number of registered listeners
func (e *ChannelEvent[T]) ListenerCount() int {
	return e.set.count()
}

func trySend[T any](ch chan<- T, value T) bool {
	select {
	case ch <- value:
		return true
	default:
		return false
	}
}
