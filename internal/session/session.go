package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lowaak/circuit-timer/internal/events"
	"github.com/lowaak/circuit-timer/internal/go_func_utils"
	"github.com/lowaak/circuit-timer/internal/workout"
)

const (
	DefaultTickInterval = time.Second
	DefaultSaveInterval = 5 * time.Second

	inboxSize      = 64
	flushTimeout   = 5 * time.Second
	restoreTimeout = 10 * time.Second
)

// Config holds the session's tunables
type Config struct {
	TickInterval time.Duration
	SaveInterval time.Duration
	SoundOn      bool
}

// Deps are the collaborators a session drives
type Deps struct {
	Store    SnapshotStore
	Cue      CuePlayer
	WakeLock WakeLock
}

// Session runs the active workout. All state lives in a Store owned by a
// single loop goroutine; the public methods only post events to its inbox.
// Follow-up transitions (such as the automatic next after a countdown runs
// out) are queued behind the event that caused them, never run inside it.
type Session struct {
	store        *Store
	countdown    *Countdown
	audio        *AudioCue
	wake         *ScreenWake
	synchronizer *Synchronizer
	persisted    SnapshotStore
	hooks        hookTable
	logger       *log.Logger

	snapshotEvent *events.ChannelEvent[workout.Record]

	inbox        chan Event
	doneChan     chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// New creates a session and starts its event loop
func New(cfg Config, deps Deps, logger *log.Logger) *Session {
	if logger == nil {
		panic("Session: logger cannot be nil")
	}
	if deps.Store == nil {
		panic("Session: store cannot be nil")
	}
	if deps.Cue == nil {
		panic("Session: cue player cannot be nil")
	}
	if deps.WakeLock == nil {
		panic("Session: wake lock cannot be nil")
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.SaveInterval < 0 {
		cfg.SaveInterval = DefaultSaveInterval
	}

	inbox := make(chan Event, inboxSize)
	s := &Session{
		store:         NewStore(),
		countdown:     NewCountdown(cfg.TickInterval, inbox, logger),
		audio:         NewAudioCue(deps.Cue, cfg.SoundOn, logger),
		wake:          NewScreenWake(deps.WakeLock, logger),
		synchronizer:  NewSynchronizer(deps.Store, cfg.SaveInterval, logger),
		persisted:     deps.Store,
		hooks:         newHookTable(),
		logger:        logger,
		snapshotEvent: events.NewChannelEvent[workout.Record](true),
		inbox:         inbox,
		doneChan:      make(chan struct{}),
	}
	s.registerHooks()
	s.snapshotEvent.Notify(s.store.Record())

	s.wg.Add(1)
	go_func_utils.SafeGo(logger, "Session", func() { s.runLoop() })

	return s
}

// --- Event API ---

func (s *Session) Start()         { s.dispatch(Event{Kind: EventStart}) }
func (s *Session) Stop()          { s.dispatch(Event{Kind: EventStop}) }
func (s *Session) Pause()         { s.dispatch(Event{Kind: EventPause}) }
func (s *Session) Resume()        { s.dispatch(Event{Kind: EventResume}) }
func (s *Session) Next()          { s.dispatch(Event{Kind: EventNext}) }
func (s *Session) Previous()      { s.dispatch(Event{Kind: EventPrevious}) }
func (s *Session) ConfirmSwitch() { s.dispatch(Event{Kind: EventConfirmSwitch}) }
func (s *Session) CancelSwitch()  { s.dispatch(Event{Kind: EventCancelSwitch}) }
func (s *Session) Restart()       { s.dispatch(Event{Kind: EventRestart}) }
func (s *Session) RemoveWorkout() { s.dispatch(Event{Kind: EventRemoveWorkout}) }

// ChangeWorkout loads w, or stages it as a pending switch while a session is live
func (s *Session) ChangeWorkout(w workout.Workout) {
	w = w.Clone()
	s.dispatch(Event{Kind: EventChangeWorkout, Workout: &w})
}

// TogglePause pauses a running session and resumes a paused one. An idle
// session is started.
func (s *Session) TogglePause() {
	rec := s.Snapshot()
	switch {
	case !rec.ActiveWorkout.IsLive():
		s.Start()
	case rec.ActiveExercise.IsPaused:
		s.Resume()
	default:
		s.Pause()
	}
}

// SetViewVisible tells the session whether its view is on screen. The
// countdown only runs while it is.
func (s *Session) SetViewVisible(visible bool) {
	if visible {
		s.dispatch(Event{Kind: EventShowView})
	} else {
		s.dispatch(Event{Kind: EventHideView})
	}
}

// SetSoundOn changes the audio cue preference
func (s *Session) SetSoundOn(on bool) {
	s.audio.SetSoundOn(on)
	s.logger.Printf("Session: sound on=%v", on)
}

// SoundOn returns the audio cue preference
func (s *Session) SoundOn() bool {
	return s.audio.SoundOn()
}

// Snapshot returns the state after the most recent transition
func (s *Session) Snapshot() workout.Record {
	rec, _ := s.snapshotEvent.Latest()
	return rec
}

// ListenToSnapshot registers a channel to receive every new snapshot. The
// current one is sent immediately.
// Returns a deregistration function that can be called to remove the listener
func (s *Session) ListenToSnapshot(ch chan<- workout.Record) func() {
	return s.snapshotEvent.Listen(ch)
}

// Restore loads the persisted session, if any, and adopts it. Returns false
// when nothing was restored; load errors are logged.
func (s *Session) Restore(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, restoreTimeout)
	defer cancel()

	rec, ok, err := s.persisted.Load(ctx)
	if err != nil {
		s.logger.Printf("Session: restore failed, starting empty: %v", err)
		return false
	}
	if !ok {
		s.logger.Printf("Session: no saved session")
		return false
	}
	s.logger.Printf("Session: restoring %q (round %d)", rec.ActiveWorkout.Name, rec.ActiveWorkout.CurrentRound)
	s.dispatch(Event{Kind: EventRestore, Record: &rec})
	return true
}

// Shutdown stops the loop and the countdown, releases the wake-lock and
// writes the last snapshot. Safe to call multiple times.
func (s *Session) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.logger.Printf("Session: Shutting down")
		close(s.doneChan)
		s.wg.Wait()
		s.countdown.Shutdown()
		s.wake.Release()

		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		s.synchronizer.Flush(ctx)
		s.logger.Printf("Session: Shutdown complete")
	})
}

// --- Loop ---

func (s *Session) dispatch(ev Event) {
	select {
	case s.inbox <- ev:
	case <-s.doneChan:
		s.logger.Printf("Session: dropping %s after shutdown", ev.Kind)
	}
}

// barrier blocks until every event dispatched before it has been processed
func (s *Session) barrier() {
	ack := make(chan struct{})
	s.dispatch(Event{Kind: eventBarrier, ack: ack})
	select {
	case <-ack:
	case <-s.doneChan:
	}
}

func (s *Session) runLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.doneChan:
			s.logger.Printf("Session: Goroutine exiting")
			return
		case ev := <-s.inbox:
			s.process(ev)
		}
	}
}

// process handles ev and then any follow-ups it produced, one at a time
func (s *Session) process(ev Event) {
	queue := []Event{ev}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if follow, ok := s.handle(current); ok {
			queue = append(queue, follow)
		}
	}
}

func (s *Session) handle(ev Event) (Event, bool) {
	switch ev.Kind {
	case eventBarrier:
		close(ev.ack)
		return Event{}, false
	case EventTick:
		// Ticks from a cancelled timer may still be queued
		if ev.Generation == 0 || ev.Generation != s.countdown.Generation() {
			return Event{}, false
		}
		ev = Event{Kind: EventDecrementTime}
	}

	change := s.store.Apply(ev)
	if !change.Applied {
		return Event{}, false
	}
	if change.Kind != EventDecrementTime {
		s.logger.Printf("Session: %s applied", change.Kind)
	}

	s.hooks.run(Transition{
		Change:  change,
		Record:  s.store.Record(),
		Running: s.store.Running(),
	})

	if change.Kind == EventDecrementTime {
		if kind, ok := s.store.ExhaustionStep(); ok {
			return Event{Kind: kind}, true
		}
	}
	return Event{}, false
}
