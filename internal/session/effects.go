package session

import (
	"log"
	"sync/atomic"

	"github.com/lowaak/circuit-timer/internal/go_func_utils"
	"github.com/lowaak/circuit-timer/internal/workout"
)

// cueWindow is the number of seconds before the end of an exercise during
// which every tick is announced
const cueWindow = 3

// CuePlayer plays the countdown tone; final selects the higher end-of-exercise cue
type CuePlayer interface {
	PlayCue(final bool) error
}

// WakeLock keeps the display awake. Implementations may fail when the
// platform does not support inhibition.
type WakeLock interface {
	Acquire() error
	Release() error
}

// AudioCue announces the last seconds of a timed exercise
type AudioCue struct {
	player  CuePlayer
	soundOn atomic.Bool
	logger  *log.Logger
}

func NewAudioCue(player CuePlayer, soundOn bool, logger *log.Logger) *AudioCue {
	if player == nil {
		panic("AudioCue: player cannot be nil")
	}
	if logger == nil {
		panic("AudioCue: logger cannot be nil")
	}
	a := &AudioCue{player: player, logger: logger}
	a.soundOn.Store(soundOn)
	return a
}

// SetSoundOn changes the user's sound preference. Safe from any goroutine.
func (a *AudioCue) SetSoundOn(on bool) {
	a.soundOn.Store(on)
}

// SoundOn returns the current sound preference
func (a *AudioCue) SoundOn() bool {
	return a.soundOn.Load()
}

// ShouldPlay reports whether a tick at this state gets a cue, and which one
func (a *AudioCue) ShouldPlay(active workout.ActiveWorkout, exercise workout.ActiveExercise) (play bool, final bool) {
	if !a.soundOn.Load() || !active.IsStarted || exercise.IsPaused {
		return false, false
	}
	if exercise.CurrentTime < 0 || exercise.CurrentTime > cueWindow {
		return false, false
	}
	return true, exercise.CurrentTime == 0
}

// OnTick plays the cue without waiting for the player
func (a *AudioCue) OnTick(active workout.ActiveWorkout, exercise workout.ActiveExercise) {
	play, final := a.ShouldPlay(active, exercise)
	if !play {
		return
	}
	go_func_utils.SafeGoQuiet(a.logger, "AudioCue", func() {
		if err := a.player.PlayCue(final); err != nil {
			a.logger.Printf("AudioCue: failed to play cue (final=%v): %v", final, err)
		}
	})
}

// ScreenWake tracks whether the wake-lock is held so repeated acquire or
// release requests reach the device only once. Used from the session loop only.
type ScreenWake struct {
	lock   WakeLock
	held   bool
	logger *log.Logger
}

func NewScreenWake(lock WakeLock, logger *log.Logger) *ScreenWake {
	if lock == nil {
		panic("ScreenWake: lock cannot be nil")
	}
	if logger == nil {
		panic("ScreenWake: logger cannot be nil")
	}
	return &ScreenWake{lock: lock, logger: logger}
}

// Acquire takes the wake-lock unless it is already held
func (w *ScreenWake) Acquire() {
	if w.held {
		return
	}
	if err := w.lock.Acquire(); err != nil {
		w.logger.Printf("ScreenWake: acquire failed, continuing without it: %v", err)
		return
	}
	w.held = true
	w.logger.Printf("ScreenWake: acquired")
}

// Release drops the wake-lock if it is held
func (w *ScreenWake) Release() {
	if !w.held {
		return
	}
	// Forget the lock even on error; the device may have dropped it already
	w.held = false
	if err := w.lock.Release(); err != nil {
		w.logger.Printf("ScreenWake: release failed: %v", err)
		return
	}
	w.logger.Printf("ScreenWake: released")
}

// Held reports whether the wake-lock is currently held
func (w *ScreenWake) Held() bool {
	return w.held
}
