package events

import (
	"sort"
	"sync"
)

// listenerSet is the registry shared by CallbackEvent and ChannelEvent.
// Listeners are kept in registration order so notifications are delivered
// deterministically, and the last notified value can be replayed to late
// listeners.
type listenerSet[L any, T any] struct {
	mu                    sync.RWMutex
	listeners             map[uint64]L
	nextID                uint64
	sendLastEventOnListen bool
	lastEvent             T
	hasNotified           bool
}

func newListenerSet[L any, T any](sendLastEventOnListen bool) listenerSet[L, T] {
	return listenerSet[L, T]{
		listeners:             make(map[uint64]L),
		sendLastEventOnListen: sendLastEventOnListen,
	}
}

// add registers a listener and returns its deregistration function plus the
// value to replay to it, if any.
func (s *listenerSet[L, T]) add(listener L) (func(), T, bool) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	replay := s.sendLastEventOnListen && s.hasNotified
	last := s.lastEvent
	s.mu.Unlock()

	var once sync.Once
	remove := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
	return remove, last, replay
}

// record stores value as the last event (when replay is enabled) and returns
// a snapshot of the listeners in registration order.
func (s *listenerSet[L, T]) record(value T) []L {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sendLastEventOnListen {
		s.lastEvent = value
		s.hasNotified = true
	}

	ids := make([]uint64, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	ordered := make([]L, 0, len(ids))
	for _, id := range ids {
		ordered = append(ordered, s.listeners[id])
	}
	return ordered
}

func (s *listenerSet[L, T]) latest() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastEvent, s.hasNotified
}

func (s *listenerSet[L, T]) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listeners)
}
