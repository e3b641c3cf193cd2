package session

import (
	"github.com/lowaak/circuit-timer/internal/workout"
)

// RunKey captures every input of the countdown's running predicate. The
// countdown restarts whenever the key changes.
type RunKey struct {
	Running bool
	Epoch   uint64 // Bumped each time the active exercise is re-derived
}

// Store is the single source of truth for a session. It is not safe for
// concurrent use; the session event loop is its only caller.
type Store struct {
	workout     workout.ActiveWorkout
	exercise    workout.ActiveExercise
	viewVisible bool
	epoch       uint64
}

// NewStore returns a store holding the "no active workout" sentinel
func NewStore() *Store {
	return &Store{workout: workout.EmptyActiveWorkout()}
}

// Record returns a deep copy of the current state
func (s *Store) Record() workout.Record {
	active := s.workout
	active.Workout = s.workout.Workout.Clone()
	if s.workout.PendingSwitchWorkout != nil {
		pending := s.workout.PendingSwitchWorkout.Clone()
		active.PendingSwitchWorkout = &pending
	}
	return workout.Record{ActiveWorkout: active, ActiveExercise: s.exercise}
}

// Running reports whether the countdown should be ticking
func (s *Store) Running() bool {
	return s.workout.IsLive() &&
		!s.exercise.IsPaused &&
		s.exercise.Duration > 0 &&
		s.exercise.CurrentTime >= 0 &&
		s.viewVisible
}

// RunKey returns the countdown's current dependency key
func (s *Store) RunKey() RunKey {
	return RunKey{Running: s.Running(), Epoch: s.epoch}
}

// ViewVisible reports whether the session view is shown
func (s *Store) ViewVisible() bool {
	return s.viewVisible
}

// Apply runs one transition. It never fails; events that cannot affect the
// current state come back with Applied == false.
func (s *Store) Apply(ev Event) Change {
	change := Change{Kind: ev.Kind}

	switch ev.Kind {
	case EventChangeWorkout:
		if ev.Workout == nil {
			return change
		}
		if s.workout.IsLive() {
			pending := ev.Workout.Clone()
			s.workout.PendingSwitchWorkout = &pending
			change.Applied = true
			change.Staged = true
			return change
		}
		s.adopt(*ev.Workout)
		change.Applied = true
		change.Adopted = true
		return change

	case EventConfirmSwitch:
		if s.workout.PendingSwitchWorkout == nil {
			return change
		}
		s.adopt(*s.workout.PendingSwitchWorkout)
		change.Applied = true
		change.Adopted = true
		return change

	case EventCancelSwitch:
		if s.workout.PendingSwitchWorkout == nil {
			return change
		}
		s.workout.PendingSwitchWorkout = nil
		change.Applied = true
		return change

	case EventRemoveWorkout:
		if s.workout.IsEmpty() && s.workout.PendingSwitchWorkout == nil {
			return change
		}
		s.workout = workout.EmptyActiveWorkout()
		s.derive()
		change.Applied = true
		return change

	case EventRestore:
		if ev.Record == nil {
			return change
		}
		s.restore(*ev.Record)
		change.Applied = true
		return change

	case EventShowView, EventHideView:
		visible := ev.Kind == EventShowView
		if s.viewVisible == visible {
			return change
		}
		s.viewVisible = visible
		change.Applied = true
		return change
	}

	// Everything below needs a loaded workout
	if s.workout.IsEmpty() {
		return change
	}

	switch ev.Kind {
	case EventStart:
		if s.workout.IsLive() {
			return change
		}
		s.workout.IsStarted = true
		s.workout.IsCompleted = false
		change.Applied = true

	case EventStop, EventRestart:
		s.rewind(false)
		change.Applied = true

	case EventComplete:
		s.rewind(true)
		change.Applied = true

	case EventPause:
		if s.exercise.IsPaused {
			return change
		}
		s.exercise.IsPaused = true
		change.Applied = true

	case EventResume:
		if !s.exercise.IsPaused {
			return change
		}
		s.exercise.IsPaused = false
		change.Applied = true

	case EventNext:
		return s.next()

	case EventPrevious:
		step := workout.ResolvePrevious(s.workout.Exercises, s.workout.CurrentExerciseID, s.workout.CurrentRound)
		if step.NoOp {
			return change
		}
		s.moveTo(step)
		change.Applied = true

	case EventDecrementTime:
		if s.exercise.CurrentTime < 0 {
			return change
		}
		s.exercise.CurrentTime--
		change.Applied = true

	case EventResetTime:
		s.exercise.CurrentTime = s.exercise.Duration
		change.Applied = true
	}

	return change
}

// ExhaustionStep reports the transition owed once the countdown has passed
// zero: complete on the last exercise of the last round, next otherwise.
func (s *Store) ExhaustionStep() (EventKind, bool) {
	if !s.workout.IsLive() || !s.exercise.IsExhausted() {
		return 0, false
	}
	if s.workout.IsLastExercise() && s.workout.IsLastRound() {
		return EventComplete, true
	}
	return EventNext, true
}

func (s *Store) next() Change {
	change := Change{Kind: EventNext}

	step := workout.ResolveNext(s.workout.Exercises, s.workout.CurrentExerciseID, s.workout.CurrentRound, s.workout.Rounds)
	if step.NoOp {
		return change
	}
	if step.Wrapped && step.Round > s.workout.Rounds {
		s.rewind(true)
		return Change{Kind: EventComplete, Applied: true}
	}

	s.moveTo(step)

	// A rest at the very end of the workout is never entered
	if s.exercise.IsRest() && s.workout.IsLastExercise() && s.workout.IsLastRound() {
		s.rewind(true)
		return Change{Kind: EventComplete, Applied: true}
	}

	change.Applied = true
	return change
}

func (s *Store) moveTo(step workout.Step) {
	s.workout.CurrentExerciseID = step.ExerciseID
	s.workout.CurrentRound = step.Round
	s.derive()
}

// rewind returns to the first exercise of round 1. completed selects between
// the complete and stop/restart end states.
func (s *Store) rewind(completed bool) {
	s.workout.IsStarted = false
	s.workout.IsCompleted = completed
	s.workout.PendingSwitchWorkout = nil
	s.workout.CurrentRound = 1
	s.workout.CurrentExerciseID = s.workout.FirstExerciseID()
	s.derive()
}

func (s *Store) adopt(w workout.Workout) {
	w = w.Clone()
	if len(w.Exercises) > 0 && w.Rounds < 1 {
		w.Rounds = 1
	}
	s.workout = workout.ActiveWorkout{
		Workout:           w,
		CurrentRound:      1,
		CurrentExerciseID: w.FirstExerciseID(),
	}
	if w.Exercises == nil {
		s.workout.Exercises = []workout.Exercise{}
	}
	s.derive()
}

// restore adopts a persisted record, repairing anything that breaks the
// session invariants.
func (s *Store) restore(rec workout.Record) {
	active := rec.ActiveWorkout
	active.Workout = active.Workout.Clone()

	if active.IsEmpty() {
		s.workout = workout.EmptyActiveWorkout()
		s.derive()
		return
	}

	if active.Rounds < 1 {
		active.Rounds = 1
	}
	if active.CurrentRound < 1 {
		active.CurrentRound = 1
	}
	if active.CurrentRound > active.Rounds {
		active.CurrentRound = active.Rounds
	}
	if active.IndexOf(active.CurrentExerciseID) < 0 {
		active.CurrentExerciseID = active.FirstExerciseID()
	}
	if active.IsStarted && active.IsCompleted {
		active.IsStarted = false
	}
	if active.PendingSwitchWorkout != nil {
		if active.IsLive() {
			pending := active.PendingSwitchWorkout.Clone()
			active.PendingSwitchWorkout = &pending
		} else {
			active.PendingSwitchWorkout = nil
		}
	}
	s.workout = active

	exercise := rec.ActiveExercise
	current, _ := active.CurrentExercise()
	if exercise.ID != current.ID {
		s.derive()
		return
	}
	if exercise.CurrentTime > exercise.Duration {
		exercise.CurrentTime = exercise.Duration
	}
	if exercise.CurrentTime < 0 {
		exercise.CurrentTime = 0
	}
	s.exercise = exercise
	s.epoch++
}

func (s *Store) derive() {
	s.exercise = workout.DeriveActiveExercise(s.workout)
	s.epoch++
}
