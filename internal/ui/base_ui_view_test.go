package ui

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lowaak/circuit-timer/internal/workout"
)

type fakeView struct {
	mu        sync.Mutex
	mode      UIMode
	soundOn   bool
	workouts  []workout.Workout
	selected  int
	session   workout.Record
	logLines  []string
	stopped   bool
	draws     int
	logHeight int
}

func (v *fakeView) Initialize(*UIController)            {}
func (v *fakeView) SetupKeyboardHandlers(*UIController) {}
func (v *fakeView) Run() error                          { return nil }

func (v *fakeView) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopped = true
}

func (v *fakeView) Draw() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.draws++
	return nil
}

func (v *fakeView) SetMode(mode UIMode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mode = mode
}

func (v *fakeView) GetCurrentMode() UIMode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mode
}

func (v *fakeView) GetLogViewHeight() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.logHeight
}

func (v *fakeView) ClearLogView() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.logLines = nil
}

func (v *fakeView) WriteLogLine(line string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.logLines = append(v.logLines, line)
	return nil
}

func (v *fakeView) SetWorkoutList(workouts []workout.Workout, selected int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.workouts = workouts
	v.selected = selected
}

func (v *fakeView) UpdateSession(rec workout.Record) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.session = rec
}

func (v *fakeView) SetSoundOn(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.soundOn = on
}

func (v *fakeView) sessionName() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.session.ActiveWorkout.Name
}

func (v *fakeView) logs() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.logLines...)
}

func newTestBaseView(t *testing.T, h *testHarness, view *fakeView) *BaseUIView {
	t.Helper()
	base := NewBaseUIView(NewBaseUIViewArg{
		UIViewImpl:   view,
		UIModel:      h.model,
		UIController: h.controller,
		Logger:       testLogger(),
	})
	t.Cleanup(base.Shutdown)
	return base
}

func TestNewBaseUIView_NilArgs(t *testing.T) {
	h := newHarness(t, UIModeWorkoutSelection)
	view := &fakeView{}

	assert.Panics(t, func() {
		NewBaseUIView(NewBaseUIViewArg{UIViewImpl: view, UIModel: h.model, UIController: h.controller})
	})
	assert.Panics(t, func() {
		NewBaseUIView(NewBaseUIViewArg{UIModel: h.model, UIController: h.controller, Logger: testLogger()})
	})
	assert.Panics(t, func() {
		NewBaseUIView(NewBaseUIViewArg{UIViewImpl: view, UIController: h.controller, Logger: testLogger()})
	})
	assert.Panics(t, func() {
		NewBaseUIView(NewBaseUIViewArg{UIViewImpl: view, UIModel: h.model, Logger: testLogger()})
	})
}

func TestBaseUIView_InitialState(t *testing.T) {
	h := newHarness(t, UIModeSessionDashboard)
	h.prefs.SetLastWorkoutID("w2")
	view := &fakeView{}

	newTestBaseView(t, h, view)

	view.mu.Lock()
	defer view.mu.Unlock()
	assert.Equal(t, UIModeSessionDashboard, view.mode)
	assert.Len(t, view.workouts, 2)
	assert.Equal(t, 1, view.selected)
}

func TestBaseUIView_RendersSessionSnapshots(t *testing.T) {
	h := newHarness(t, UIModeSessionDashboard)
	view := &fakeView{}
	newTestBaseView(t, h, view)

	h.session.publish(liveRecord(catalogWorkouts()[0]))

	assert.Eventually(t, func() bool {
		return view.sessionName() == "Quick HIIT"
	}, time.Second, 5*time.Millisecond)
}

func TestBaseUIView_FollowsUIState(t *testing.T) {
	h := newHarness(t, UIModeWorkoutSelection)
	view := &fakeView{}
	newTestBaseView(t, h, view)

	h.controller.OnModeChange(UIModeSessionDashboard)
	h.controller.ToggleSound()

	assert.Eventually(t, func() bool {
		view.mu.Lock()
		defer view.mu.Unlock()
		return view.mode == UIModeSessionDashboard && view.soundOn
	}, time.Second, 5*time.Millisecond)
}

func TestBaseUIView_LogTail(t *testing.T) {
	h := newHarness(t, UIModeWorkoutSelection)
	view := &fakeView{logHeight: 2}
	newTestBaseView(t, h, view)

	h.logChan <- "one\n"
	h.logChan <- "two\n"
	h.logChan <- "three\n"

	assert.Eventually(t, func() bool {
		logs := view.logs()
		return len(logs) == 2 && logs[0] == "two\n" && logs[1] == "three\n"
	}, time.Second, 5*time.Millisecond)
}

func TestBaseUIView_CloseStopsView(t *testing.T) {
	h := newHarness(t, UIModeWorkoutSelection)
	view := &fakeView{}
	newTestBaseView(t, h, view)

	h.controller.OnEscapeKey()

	assert.Eventually(t, func() bool {
		view.mu.Lock()
		defer view.mu.Unlock()
		return view.stopped
	}, time.Second, 5*time.Millisecond)
}
