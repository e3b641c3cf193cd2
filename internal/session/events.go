package session

import (
	"fmt"

	"github.com/lowaak/circuit-timer/internal/workout"
)

// EventKind names a session transition
type EventKind int

const (
	EventStart EventKind = iota
	EventStop
	EventPause
	EventResume
	EventNext
	EventPrevious
	EventChangeWorkout
	EventConfirmSwitch
	EventCancelSwitch
	EventRestart
	EventComplete
	EventDecrementTime
	EventResetTime
	EventRemoveWorkout
	EventRestore
	EventShowView
	EventHideView

	// EventTick is produced by the countdown and turned into EventDecrementTime
	// when its generation is still current
	EventTick

	eventBarrier
)

var eventKindNames = map[EventKind]string{
	EventStart:         "start",
	EventStop:          "stop",
	EventPause:         "pause",
	EventResume:        "resume",
	EventNext:          "next",
	EventPrevious:      "previous",
	EventChangeWorkout: "changeWorkout",
	EventConfirmSwitch: "confirmSwitch",
	EventCancelSwitch:  "cancelSwitch",
	EventRestart:       "restart",
	EventComplete:      "complete",
	EventDecrementTime: "decrementTime",
	EventResetTime:     "resetTime",
	EventRemoveWorkout: "removeWorkout",
	EventRestore:       "restore",
	EventShowView:      "showView",
	EventHideView:      "hideView",
	EventTick:          "tick",
	eventBarrier:       "barrier",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is one entry of the session inbox
type Event struct {
	Kind       EventKind
	Workout    *workout.Workout // EventChangeWorkout
	Record     *workout.Record  // EventRestore
	Generation uint64           // EventTick

	ack chan struct{} // eventBarrier
}

// Change describes what Store.Apply did with an event
type Change struct {
	Kind    EventKind // Effective transition, e.g. a next past the last round becomes complete
	Applied bool      // False when the event was a no-op
	Staged  bool      // changeWorkout staged a pending switch instead of replacing
	Adopted bool      // The workout was replaced wholesale
}

// Transition is what post-transition hooks receive
type Transition struct {
	Change
	Record  workout.Record
	Running bool
}
