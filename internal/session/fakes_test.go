package session

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"

	"github.com/lowaak/circuit-timer/internal/workout"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type fakeSnapshotStore struct {
	mu      sync.Mutex
	saves   []workout.Record
	stored  *workout.Record
	saveErr error
	loadErr error
}

func (f *fakeSnapshotStore) Save(_ context.Context, rec workout.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves = append(f.saves, rec)
	f.stored = &rec
	return nil
}

func (f *fakeSnapshotStore) Load(context.Context) (workout.Record, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return workout.Record{}, false, f.loadErr
	}
	if f.stored == nil {
		return workout.Record{}, false, nil
	}
	return *f.stored, true, nil
}

func (f *fakeSnapshotStore) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func (f *fakeSnapshotStore) lastSave() (workout.Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saves) == 0 {
		return workout.Record{}, false
	}
	return f.saves[len(f.saves)-1], true
}

type fakeCue struct {
	mu    sync.Mutex
	calls []bool
	err   error
}

func (f *fakeCue) PlayCue(final bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, final)
	return f.err
}

func (f *fakeCue) played() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.calls...)
}

type fakeWakeLock struct {
	mu         sync.Mutex
	acquires   int
	releases   int
	acquireErr error
}

func (f *fakeWakeLock) Acquire() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.acquireErr != nil {
		return f.acquireErr
	}
	f.acquires++
	return nil
}

func (f *fakeWakeLock) Release() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases++
	return nil
}

func (f *fakeWakeLock) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acquires, f.releases
}

var errUnsupported = errors.New("not supported")

func exercises(durations ...int) []workout.Exercise {
	list := make([]workout.Exercise, 0, len(durations))
	for i, d := range durations {
		id := string(rune('a' + i))
		list = append(list, workout.Exercise{ID: id, Name: "Exercise " + id, Duration: d})
	}
	return list
}

func testWorkout(id string, rounds int, durations ...int) workout.Workout {
	return workout.Workout{
		ID:        id,
		Name:      "Workout " + id,
		Exercises: exercises(durations...),
		Rounds:    rounds,
	}
}
