package ui

import (
	"io"
	"log"
	"sync"
	"testing"

	"github.com/lowaak/circuit-timer/internal/events"
	"github.com/lowaak/circuit-timer/internal/workout"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type fakeSession struct {
	mu        sync.Mutex
	calls     []string
	changed   []workout.Workout
	visible   []bool
	soundOn   bool
	snapshot  workout.Record
	snapshots *events.ChannelEvent[workout.Record]
	shutdowns int
}

func newFakeSession() *fakeSession {
	s := &fakeSession{
		snapshot:  workout.Record{ActiveWorkout: workout.EmptyActiveWorkout()},
		snapshots: events.NewChannelEvent[workout.Record](true),
	}
	s.snapshots.Notify(s.snapshot)
	return s
}

func (s *fakeSession) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *fakeSession) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *fakeSession) Visible() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.visible...)
}

// publish makes rec the current snapshot and broadcasts it
func (s *fakeSession) publish(rec workout.Record) {
	s.mu.Lock()
	s.snapshot = rec
	s.mu.Unlock()
	s.snapshots.Notify(rec)
}

func (s *fakeSession) ChangeWorkout(w workout.Workout) {
	s.mu.Lock()
	s.changed = append(s.changed, w)
	s.mu.Unlock()
	s.record("ChangeWorkout")
}
func (s *fakeSession) TogglePause()   { s.record("TogglePause") }
func (s *fakeSession) Next()          { s.record("Next") }
func (s *fakeSession) Previous()      { s.record("Previous") }
func (s *fakeSession) Stop()          { s.record("Stop") }
func (s *fakeSession) Restart()       { s.record("Restart") }
func (s *fakeSession) ConfirmSwitch() { s.record("ConfirmSwitch") }
func (s *fakeSession) CancelSwitch()  { s.record("CancelSwitch") }
func (s *fakeSession) RemoveWorkout() { s.record("RemoveWorkout") }

func (s *fakeSession) SetViewVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = append(s.visible, visible)
}

func (s *fakeSession) SetSoundOn(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.soundOn = on
}

func (s *fakeSession) SoundOn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.soundOn
}

func (s *fakeSession) Snapshot() workout.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

func (s *fakeSession) ListenToSnapshot(ch chan<- workout.Record) func() {
	return s.snapshots.Listen(ch)
}

func (s *fakeSession) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdowns++
}

func catalogWorkouts() []workout.Workout {
	return []workout.Workout{
		{
			ID:     "w1",
			Name:   "Quick HIIT",
			Rounds: 2,
			Exercises: []workout.Exercise{
				{ID: "e1", Name: "Jumping Jacks", Duration: 30},
				{ID: "e2", Name: "Rest", Duration: 10},
			},
		},
		{
			ID:     "w2",
			Name:   "Core",
			Rounds: 1,
			Exercises: []workout.Exercise{
				{ID: "e3", Name: "Plank", Duration: 45},
				{ID: "e4", Name: "Crunches", Repetitions: 20},
			},
		},
	}
}

// liveRecord returns a started snapshot of w positioned on its first exercise
func liveRecord(w workout.Workout) workout.Record {
	active := workout.ActiveWorkout{
		Workout:           w,
		CurrentRound:      1,
		CurrentExerciseID: w.FirstExerciseID(),
		IsStarted:         true,
	}
	return workout.Record{ActiveWorkout: active, ActiveExercise: workout.DeriveActiveExercise(active)}
}

type testHarness struct {
	session    *fakeSession
	model      *UIModel
	prefs      *Preferences
	controller *UIController
	logChan    chan string
}

func newHarness(t *testing.T, mode UIMode) *testHarness {
	t.Helper()
	logger := testLogger()
	h := &testHarness{
		session: newFakeSession(),
		logChan: make(chan string, 16),
		prefs:   LoadPreferences(t.TempDir(), logger),
	}
	h.model = NewUIModel(NewUIModelArg{
		Workouts:    catalogWorkouts(),
		InitialMode: mode,
		UILogChan:   h.logChan,
		Logger:      logger,
	})
	h.controller = NewUIController(h.model, h.session, h.prefs, logger)
	t.Cleanup(func() {
		h.controller.Shutdown()
		h.model.Shutdown()
	})
	return h
}
