package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCallbackEvent(t *testing.T) {
	event := NewCallbackEvent[string](false)
	require.NotNil(t, event)
	assert.Equal(t, 0, event.ListenerCount())
	assert.False(t, event.set.sendLastEventOnListen)

	event2 := NewCallbackEvent[int](true)
	require.NotNil(t, event2)
	assert.True(t, event2.set.sendLastEventOnListen)
}

func TestCallbackEvent_Listen_Notify_Basic(t *testing.T) {
	event := NewCallbackEvent[string](false)

	received := make([]string, 0)
	unregister := event.Listen(func(value string) {
		received = append(received, value)
	})
	assert.Equal(t, 1, event.ListenerCount())

	event.Notify("test1")
	event.Notify("test2")
	assert.Equal(t, []string{"test1", "test2"}, received)

	unregister()
	assert.Equal(t, 0, event.ListenerCount())

	event.Notify("test3")
	// Listener was removed
	assert.Equal(t, 2, len(received))
}

func TestCallbackEvent_RegistrationOrder(t *testing.T) {
	event := NewCallbackEvent[int](false)

	order := make([]string, 0)
	for _, name := range []string{"timer", "wake", "audio", "persist", "snapshot"} {
		name := name
		event.Listen(func(int) { order = append(order, name) })
	}

	for i := 0; i < 20; i++ {
		order = order[:0]
		event.Notify(i)
		assert.Equal(t, []string{"timer", "wake", "audio", "persist", "snapshot"}, order)
	}
}

func TestCallbackEvent_OrderSurvivesUnregister(t *testing.T) {
	event := NewCallbackEvent[int](false)

	order := make([]int, 0)
	event.Listen(func(int) { order = append(order, 1) })
	remove := event.Listen(func(int) { order = append(order, 2) })
	event.Listen(func(int) { order = append(order, 3) })

	remove()
	event.Listen(func(int) { order = append(order, 4) })

	event.Notify(0)
	assert.Equal(t, []int{1, 3, 4}, order)
}

func TestCallbackEvent_SendLastEventOnListen(t *testing.T) {
	event := NewCallbackEvent[string](true)

	// Nothing to replay before the first Notify
	received1 := make([]string, 0)
	unregister1 := event.Listen(func(value string) { received1 = append(received1, value) })
	assert.Empty(t, received1)

	_, ok := event.Latest()
	assert.False(t, ok)

	event.Notify("first-event")
	assert.Equal(t, []string{"first-event"}, received1)

	latest, ok := event.Latest()
	assert.True(t, ok)
	assert.Equal(t, "first-event", latest)

	// A late listener is called immediately with the last value
	received2 := make([]string, 0)
	unregister2 := event.Listen(func(value string) { received2 = append(received2, value) })
	assert.Equal(t, []string{"first-event"}, received2)

	event.Notify("second-event")
	assert.Equal(t, []string{"first-event", "second-event"}, received1)
	assert.Equal(t, []string{"first-event", "second-event"}, received2)

	unregister1()
	unregister2()
}

func TestCallbackEvent_SendLastEventOnListen_False(t *testing.T) {
	event := NewCallbackEvent[string](false)

	event.Notify("first-event")

	received := make([]string, 0)
	unregister := event.Listen(func(value string) { received = append(received, value) })
	assert.Empty(t, received)

	_, ok := event.Latest()
	assert.False(t, ok, "no value is retained without replay")

	event.Notify("second-event")
	assert.Equal(t, []string{"second-event"}, received)

	unregister()
}

func TestCallbackEvent_ConcurrentAccess(t *testing.T) {
	event := NewCallbackEvent[int](false)

	var wg sync.WaitGroup
	var mu sync.Mutex
	received := 0
	unregisters := make([]func(), 10)

	wg.Add(10)
	for i := 0; i < 10; i++ {
		go func(idx int) {
			defer wg.Done()
			unregisters[idx] = event.Listen(func(int) {
				mu.Lock()
				received++
				mu.Unlock()
			})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 10, event.ListenerCount())

	wg.Add(5)
	for i := 0; i < 5; i++ {
		go func(value int) {
			defer wg.Done()
			event.Notify(value)
		}(i)
	}
	wg.Wait()

	mu.Lock()
	assert.Equal(t, 50, received)
	mu.Unlock()

	for _, unregister := range unregisters {
		unregister()
	}
	assert.Equal(t, 0, event.ListenerCount())
}

func TestCallbackEvent_Listen_NilCallback(t *testing.T) {
	event := NewCallbackEvent[string](false)

	assert.Panics(t, func() {
		event.Listen(nil)
	})
}

func TestCallbackEvent_UnregisterDuringNotify(t *testing.T) {
	event := NewCallbackEvent[string](false)

	received := make([]string, 0)
	var unregister func()
	unregister = event.Listen(func(value string) {
		received = append(received, value)
		if value == "unregister" {
			unregister()
		}
	})

	event.Notify("test1")
	event.Notify("unregister")
	event.Notify("test2")

	assert.Equal(t, []string{"test1", "unregister"}, received)
	assert.Equal(t, 0, event.ListenerCount())
}

func TestCallbackEvent_MultipleUnregisterCalls(t *testing.T) {
	event := NewCallbackEvent[string](false)

	unregister := event.Listen(func(value string) {})
	other := event.Listen(func(value string) {})
	assert.Equal(t, 2, event.ListenerCount())

	unregister()
	unregister()
	unregister()
	assert.Equal(t, 1, event.ListenerCount(), "repeat calls must not remove other listeners")

	other()
	assert.Equal(t, 0, event.ListenerCount())
}
