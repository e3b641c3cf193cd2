package session

import (
	"github.com/lowaak/circuit-timer/internal/events"
)

var allTransitions = []EventKind{
	EventStart, EventStop, EventPause, EventResume, EventNext, EventPrevious,
	EventChangeWorkout, EventConfirmSwitch, EventCancelSwitch, EventRestart,
	EventComplete, EventDecrementTime, EventResetTime, EventRemoveWorkout,
	EventRestore, EventShowView, EventHideView,
}

// Wake-lock is taken when a live session moves forward or is restored, and
// dropped whenever it stops or is replaced
var (
	wakeAcquireOn = []EventKind{EventStart, EventNext, EventResume, EventRestore}
	wakeReleaseOn = []EventKind{EventPause, EventStop, EventComplete, EventRestart, EventChangeWorkout, EventConfirmSwitch, EventRemoveWorkout}
	persistOn     = []EventKind{
		EventDecrementTime, EventPause, EventResume, EventResetTime, EventStart,
		EventStop, EventComplete, EventNext, EventPrevious, EventChangeWorkout,
		EventConfirmSwitch, EventRestart, EventRemoveWorkout,
	}
	// View visibility never changes the record
	publishOn = []EventKind{
		EventStart, EventStop, EventPause, EventResume, EventNext, EventPrevious,
		EventChangeWorkout, EventConfirmSwitch, EventCancelSwitch, EventRestart,
		EventComplete, EventDecrementTime, EventResetTime, EventRemoveWorkout, EventRestore,
	}
)

// hookTable holds one ordered hook list per transition
type hookTable map[EventKind]*events.CallbackEvent[Transition]

func newHookTable() hookTable {
	table := make(hookTable, len(allTransitions))
	for _, kind := range allTransitions {
		table[kind] = events.NewCallbackEvent[Transition](false)
	}
	return table
}

func (t hookTable) on(kinds []EventKind, hook func(Transition)) {
	for _, kind := range kinds {
		t[kind].Listen(hook)
	}
}

func (t hookTable) run(tr Transition) {
	if hooks, ok := t[tr.Kind]; ok {
		hooks.Notify(tr)
	}
}

// sessionHook is one post-transition effect bound to the transitions that trigger it
type sessionHook struct {
	name  string
	kinds []EventKind
	run   func(s *Session, tr Transition)
}

// sessionHooks lists the post-transition effects in execution order:
// countdown, wake-lock, audio, persistence, snapshot.
var sessionHooks = []sessionHook{
	{name: "countdown", kinds: allTransitions, run: (*Session).reconcileCountdown},
	{name: "wake-acquire", kinds: wakeAcquireOn, run: (*Session).acquireWake},
	{name: "wake-release", kinds: wakeReleaseOn, run: (*Session).releaseWake},
	{name: "audio", kinds: []EventKind{EventDecrementTime}, run: (*Session).cueAudio},
	{name: "persist", kinds: persistOn, run: (*Session).persist},
	{name: "snapshot", kinds: publishOn, run: (*Session).publish},
}

// registerHooks installs sessionHooks on the session's hook table
func (s *Session) registerHooks() {
	for _, hook := range sessionHooks {
		run := hook.run
		s.hooks.on(hook.kinds, func(tr Transition) { run(s, tr) })
	}
}

func (s *Session) reconcileCountdown(tr Transition) {
	if s.countdown.Reconcile(s.store.RunKey()) {
		s.logger.Printf("Session: countdown started for %q (generation %d)", tr.Record.ActiveExercise.Name, s.countdown.Generation())
	}
}

func (s *Session) acquireWake(tr Transition) {
	if tr.Record.ActiveWorkout.IsLive() && !tr.Record.ActiveExercise.IsPaused {
		s.wake.Acquire()
	}
}

func (s *Session) releaseWake(tr Transition) {
	if tr.Kind == EventChangeWorkout && !tr.Adopted {
		return
	}
	s.wake.Release()
}

func (s *Session) cueAudio(tr Transition) {
	s.audio.OnTick(tr.Record.ActiveWorkout, tr.Record.ActiveExercise)
}

func (s *Session) persist(tr Transition) {
	if tr.Kind == EventChangeWorkout && tr.Staged {
		return
	}
	s.synchronizer.Offer(tr.Record)
}

func (s *Session) publish(tr Transition) {
	s.snapshotEvent.Notify(tr.Record)
}
