package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/circuit-timer/internal/workout"
)

type harness struct {
	session *Session
	store   *fakeSnapshotStore
	cue     *fakeCue
	wake    *fakeWakeLock
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{store: &fakeSnapshotStore{}, cue: &fakeCue{}, wake: &fakeWakeLock{}}
	h.session = New(cfg, Deps{Store: h.store, Cue: h.cue, WakeLock: h.wake}, testLogger())
	t.Cleanup(h.session.Shutdown)
	return h
}

func (h *harness) snapshot() workout.Record {
	h.session.barrier()
	return h.session.Snapshot()
}

func TestNew_Validates(t *testing.T) {
	deps := Deps{Store: &fakeSnapshotStore{}, Cue: &fakeCue{}, WakeLock: &fakeWakeLock{}}
	assert.Panics(t, func() { New(Config{}, deps, nil) })

	noStore := deps
	noStore.Store = nil
	assert.Panics(t, func() { New(Config{}, noStore, testLogger()) })
}

func TestSession_InitialSnapshotIsEmpty(t *testing.T) {
	h := newHarness(t, Config{TickInterval: time.Hour})

	ch := make(chan workout.Record, 1)
	unregister := h.session.ListenToSnapshot(ch)
	defer unregister()

	select {
	case rec := <-ch:
		assert.True(t, rec.ActiveWorkout.IsEmpty())
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot")
	}
}

func TestSession_CountdownAdvancesWhenVisible(t *testing.T) {
	h := newHarness(t, Config{TickInterval: 2 * time.Millisecond})

	h.session.ChangeWorkout(testWorkout("w", 1, 2, 0))
	h.session.SetViewVisible(true)
	h.session.Start()

	assert.Eventually(t, func() bool {
		return h.session.Snapshot().ActiveWorkout.CurrentExerciseID == "b"
	}, time.Second, time.Millisecond)

	rec := h.snapshot()
	assert.True(t, rec.ActiveWorkout.IsLive())
	assert.Equal(t, 0, rec.ActiveExercise.CurrentTime, "manual exercise does not count")
}

func TestSession_CountdownCompletesWorkout(t *testing.T) {
	h := newHarness(t, Config{TickInterval: 2 * time.Millisecond, SoundOn: true})

	h.session.ChangeWorkout(testWorkout("w", 2, 3))
	h.session.SetViewVisible(true)
	h.session.Start()

	assert.Eventually(t, func() bool {
		return h.session.Snapshot().ActiveWorkout.IsCompleted
	}, 2*time.Second, time.Millisecond)

	rec := h.snapshot()
	assert.Equal(t, 1, rec.ActiveWorkout.CurrentRound)
	assert.Equal(t, 3, rec.ActiveExercise.CurrentTime)

	// Two rounds of 2, 1, 0; cues play concurrently so order is not checked
	assert.Eventually(t, func() bool { return len(h.cue.played()) == 6 }, time.Second, time.Millisecond)
	assert.ElementsMatch(t, []bool{false, false, true, false, false, true}, h.cue.played())
}

func TestSession_CountdownHaltsWhenHidden(t *testing.T) {
	h := newHarness(t, Config{TickInterval: 2 * time.Millisecond})

	h.session.ChangeWorkout(testWorkout("w", 1, 100))
	h.session.Start()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 100, h.snapshot().ActiveExercise.CurrentTime)

	h.session.SetViewVisible(true)
	assert.Eventually(t, func() bool {
		return h.session.Snapshot().ActiveExercise.CurrentTime < 100
	}, time.Second, time.Millisecond)

	h.session.SetViewVisible(false)
	frozen := h.snapshot().ActiveExercise.CurrentTime
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, frozen, h.snapshot().ActiveExercise.CurrentTime)
}

func TestSession_PauseFreezesCountdown(t *testing.T) {
	h := newHarness(t, Config{TickInterval: 2 * time.Millisecond})

	h.session.ChangeWorkout(testWorkout("w", 1, 100))
	h.session.SetViewVisible(true)
	h.session.Start()
	assert.Eventually(t, func() bool {
		return h.session.Snapshot().ActiveExercise.CurrentTime < 98
	}, time.Second, time.Millisecond)

	h.session.Pause()
	paused := h.snapshot().ActiveExercise
	require.True(t, paused.IsPaused)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, paused, h.snapshot().ActiveExercise)

	h.session.TogglePause()
	assert.Eventually(t, func() bool {
		return h.session.Snapshot().ActiveExercise.CurrentTime < paused.CurrentTime
	}, time.Second, time.Millisecond)
}

func TestSession_WakeLock(t *testing.T) {
	h := newHarness(t, Config{TickInterval: time.Hour})

	h.session.ChangeWorkout(testWorkout("w", 2, 10, 10))
	h.session.Start()
	h.session.Next()
	h.snapshot()
	acquires, releases := h.wake.counts()
	assert.Equal(t, 1, acquires)
	assert.Equal(t, 0, releases)

	h.session.Pause()
	h.snapshot()
	_, releases = h.wake.counts()
	assert.Equal(t, 1, releases)

	h.session.Resume()
	h.session.Stop()
	h.snapshot()
	acquires, releases = h.wake.counts()
	assert.Equal(t, 2, acquires)
	assert.Equal(t, 2, releases)
}

func TestSession_StagedSwitchKeepsWakeLock(t *testing.T) {
	h := newHarness(t, Config{TickInterval: time.Hour})

	h.session.ChangeWorkout(testWorkout("first", 1, 10))
	h.session.Start()
	h.session.ChangeWorkout(testWorkout("second", 1, 10))
	rec := h.snapshot()
	require.NotNil(t, rec.ActiveWorkout.PendingSwitchWorkout)
	_, releases := h.wake.counts()
	assert.Equal(t, 0, releases)

	h.session.ConfirmSwitch()
	rec = h.snapshot()
	assert.Equal(t, "second", rec.ActiveWorkout.ID)
	assert.False(t, rec.ActiveWorkout.IsStarted)
	_, releases = h.wake.counts()
	assert.Equal(t, 1, releases)
}

func TestSession_PersistsAndFlushesOnShutdown(t *testing.T) {
	h := newHarness(t, Config{TickInterval: time.Hour, SaveInterval: time.Hour})

	h.session.ChangeWorkout(testWorkout("w", 3, 10, 20))
	assert.Eventually(t, func() bool { return h.store.saveCount() == 1 }, time.Second, time.Millisecond)

	h.session.Start()
	h.session.Next()
	h.session.Next()
	want := h.snapshot()

	h.session.Shutdown()
	last, ok := h.store.lastSave()
	require.True(t, ok)
	assert.Equal(t, want, last)
	assert.Equal(t, 2, h.store.saveCount())

	// Events after shutdown are dropped without blocking
	h.session.Next()
}

func TestSession_StagedChangeIsNotPersisted(t *testing.T) {
	h := newHarness(t, Config{TickInterval: time.Hour, SaveInterval: 0})

	h.session.ChangeWorkout(testWorkout("first", 1, 10))
	h.session.Start()
	h.snapshot()
	assert.Eventually(t, func() bool { return h.store.saveCount() == 2 }, time.Second, time.Millisecond)

	h.session.ChangeWorkout(testWorkout("second", 1, 10))
	h.session.CancelSwitch()
	h.snapshot()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 2, h.store.saveCount())
}

func TestSession_Restore(t *testing.T) {
	h := newHarness(t, Config{TickInterval: time.Hour})

	saved := workout.Record{
		ActiveWorkout: workout.ActiveWorkout{
			Workout:           testWorkout("w", 2, 10, 20),
			CurrentRound:      2,
			CurrentExerciseID: "b",
			IsStarted:         true,
		},
		ActiveExercise: workout.ActiveExercise{ID: "b", Name: "Exercise b", Duration: 20, CurrentTime: 7, IsPaused: true},
	}
	h.store.stored = &saved

	assert.True(t, h.session.Restore(context.Background()))
	assert.Equal(t, saved, h.snapshot())

	acquires, _ := h.wake.counts()
	assert.Equal(t, 0, acquires)
}

func TestSession_RestoreLiveAcquiresWakeLock(t *testing.T) {
	h := newHarness(t, Config{TickInterval: time.Hour})

	saved := workout.Record{
		ActiveWorkout: workout.ActiveWorkout{
			Workout:           testWorkout("w", 1, 20),
			CurrentRound:      1,
			CurrentExerciseID: "a",
			IsStarted:         true,
		},
		ActiveExercise: workout.ActiveExercise{ID: "a", Name: "Exercise a", Duration: 20, CurrentTime: 12},
	}
	h.store.stored = &saved

	require.True(t, h.session.Restore(context.Background()))
	h.session.SetViewVisible(true)
	assert.Equal(t, saved, h.snapshot())

	acquires, releases := h.wake.counts()
	assert.Equal(t, 1, acquires)
	assert.Equal(t, 0, releases)
}

func TestSession_RestoreNothingSaved(t *testing.T) {
	h := newHarness(t, Config{TickInterval: time.Hour})
	assert.False(t, h.session.Restore(context.Background()))

	h.store.loadErr = errUnsupported
	assert.False(t, h.session.Restore(context.Background()))
	assert.True(t, h.snapshot().ActiveWorkout.IsEmpty())
}

func TestSession_RemoveWorkout(t *testing.T) {
	h := newHarness(t, Config{TickInterval: time.Hour})

	h.session.ChangeWorkout(testWorkout("w", 1, 10))
	h.session.Start()
	h.session.RemoveWorkout()
	rec := h.snapshot()
	assert.True(t, rec.ActiveWorkout.IsEmpty())
	assert.False(t, rec.ActiveWorkout.IsStarted)

	_, releases := h.wake.counts()
	assert.Equal(t, 1, releases)
}

func TestSession_SoundPreference(t *testing.T) {
	h := newHarness(t, Config{TickInterval: time.Hour, SoundOn: true})
	assert.True(t, h.session.SoundOn())
	h.session.SetSoundOn(false)
	assert.False(t, h.session.SoundOn())
}
