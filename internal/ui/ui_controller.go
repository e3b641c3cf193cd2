package ui

import (
	"context"
	"log"
	"sync"

	"github.com/lowaak/circuit-timer/internal/go_func_utils"
	"github.com/lowaak/circuit-timer/internal/workout"
)

// SessionControl is the part of the session the UI drives
type SessionControl interface {
	ChangeWorkout(w workout.Workout)
	TogglePause()
	Next()
	Previous()
	Stop()
	Restart()
	ConfirmSwitch()
	CancelSwitch()
	RemoveWorkout()
	SetViewVisible(visible bool)
	SetSoundOn(on bool)
	SoundOn() bool
	Snapshot() workout.Record
	ListenToSnapshot(ch chan<- workout.Record) func()
	Shutdown()
}

// UIController turns user intents into session events and UI model updates
type UIController struct {
	model   *UIModel
	session SessionControl
	prefs   *Preferences
	logger  *log.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewUIController creates a new UIController with the given dependencies
func NewUIController(model *UIModel, session SessionControl, prefs *Preferences, logger *log.Logger) *UIController {
	if model == nil {
		panic("UIController: model cannot be nil")
	}
	if session == nil {
		panic("UIController: session cannot be nil")
	}
	if prefs == nil {
		panic("UIController: prefs cannot be nil")
	}
	if logger == nil {
		panic("UIController: logger cannot be nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &UIController{
		model:   model,
		session: session,
		prefs:   prefs,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}

	// The countdown only runs while the dashboard is on screen
	c.session.SetViewVisible(model.GetUIState().Mode == UIModeSessionDashboard)

	c.wg.Add(1)
	go_func_utils.SafeGo(logger, "UIController.listenToSession", func() { c.listenToSession() })

	return c
}

// listenToSession remembers the last adopted workout and logs completions
func (c *UIController) listenToSession() {
	defer c.wg.Done()

	ch := make(chan workout.Record, 1)
	unregister := c.session.ListenToSnapshot(ch)
	defer unregister()

	var completedID string
	for {
		select {
		case <-c.ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			active := c.session.Snapshot().ActiveWorkout
			if active.ID != "" {
				c.prefs.SetLastWorkoutID(active.ID)
			}
			if active.IsCompleted && completedID != active.ID {
				c.logger.Printf("Workout complete: %s (%d rounds)", active.Name, active.Rounds)
			}
			if active.IsCompleted {
				completedID = active.ID
			} else {
				completedID = ""
			}
		}
	}
}

// ListenToSession registers a channel to receive session snapshots
// Returns a deregistration function that can be called to remove the listener
func (c *UIController) ListenToSession(ch chan<- workout.Record) func() {
	return c.session.ListenToSnapshot(ch)
}

// SessionSnapshot returns the latest session snapshot
func (c *UIController) SessionSnapshot() workout.Record {
	return c.session.Snapshot()
}

// PreferredWorkoutIndex returns the catalog index to highlight first: the
// active workout, else the last one picked, else the top of the list.
func (c *UIController) PreferredWorkoutIndex() int {
	if id := c.session.Snapshot().ActiveWorkout.ID; id != "" {
		if idx := c.model.IndexOfWorkout(id); idx >= 0 {
			return idx
		}
	}
	if idx := c.model.IndexOfWorkout(c.prefs.LastWorkoutID()); idx >= 0 {
		return idx
	}
	return 0
}

// OnEscapeKey handles when the Escape key is pressed
func (c *UIController) OnEscapeKey() {
	c.model.RequestCloseApplication()
}

// OnModeChange handles when the user requests a mode change
func (c *UIController) OnModeChange(mode UIMode) {
	if info, ok := GetUIModeInfo(mode); ok {
		c.logger.Printf("Switching to %s mode", info.DisplayName)
	}
	c.session.SetViewVisible(mode == UIModeSessionDashboard)
	c.model.SetMode(mode)
}

// --- Workout Selection Methods ---

// OnWorkoutSelected loads the workout at index into the session and shows the
// dashboard. A live session stages it as a pending switch instead.
func (c *UIController) OnWorkoutSelected(index int) {
	w, ok := c.model.WorkoutAt(index)
	if !ok {
		c.logger.Printf("Invalid workout index: %d", index)
		return
	}
	if c.session.Snapshot().ActiveWorkout.IsLive() {
		c.logger.Printf("Workout selected: %s (confirm with y, cancel with c)", w.Name)
	} else {
		c.logger.Printf("Workout selected: %s", w.Name)
	}
	c.session.ChangeWorkout(w)
	c.OnModeChange(UIModeSessionDashboard)
}

// --- Session Dashboard Methods ---

// TogglePause starts, pauses, or resumes the session based on its state
func (c *UIController) TogglePause() {
	if c.session.Snapshot().ActiveWorkout.IsEmpty() {
		c.logger.Printf("No workout loaded - select one in Workout Selection mode (press 1)")
		return
	}
	c.session.TogglePause()
}

func (c *UIController) Next() {
	c.session.Next()
}

func (c *UIController) Previous() {
	c.session.Previous()
}

func (c *UIController) Stop() {
	c.session.Stop()
}

func (c *UIController) Restart() {
	c.session.Restart()
}

func (c *UIController) ConfirmSwitch() {
	c.session.ConfirmSwitch()
}

func (c *UIController) CancelSwitch() {
	c.session.CancelSwitch()
}

// RemoveWorkout clears the session and returns to workout selection
func (c *UIController) RemoveWorkout() {
	c.session.RemoveWorkout()
	c.OnModeChange(UIModeWorkoutSelection)
}

// ToggleSound flips the audio cue preference and remembers it
func (c *UIController) ToggleSound() {
	c.OnSoundPreferenceChanged(!c.session.SoundOn())
}

// OnSoundPreferenceChanged applies a sound preference coming from the keyboard
// or a reloaded config file.
func (c *UIController) OnSoundPreferenceChanged(on bool) {
	c.session.SetSoundOn(on)
	c.prefs.SetSoundOn(on)
	c.model.SetSoundOn(on)
	if on {
		c.logger.Printf("Sound on")
	} else {
		c.logger.Printf("Sound off")
	}
}

// Shutdown stops the controller's listeners and then the session
func (c *UIController) Shutdown() {
	c.cancel()
	c.wg.Wait()
	c.session.Shutdown()
}
