package ui

import (
	"context"
	"log"
	"sync"

	"github.com/lowaak/circuit-timer/internal/events"
	"github.com/lowaak/circuit-timer/internal/go_func_utils"
	"github.com/lowaak/circuit-timer/internal/workout"
)

// UIState holds the current state of the UI that views need to render
type UIState struct {
	Mode    UIMode
	SoundOn bool
}

// UIModel holds view-side state: the active mode, the workout catalog and the
// log tail. Session state lives in the session and reaches the view through
// its snapshot event.
type UIModel struct {
	logEvent              *events.ChannelEvent[string]
	closeApplicationEvent *events.ChannelEvent[struct{}]
	uiStateEvent          *events.ChannelEvent[UIState]
	uiState               UIState
	workouts              []workout.Workout
	logLines              []string
	logMu                 sync.RWMutex
	mu                    sync.RWMutex
	ctx                   context.Context
	cancel                context.CancelFunc
	wg                    sync.WaitGroup
	logger                *log.Logger
}

// NewUIModelArg holds the arguments for creating a new UIModel
type NewUIModelArg struct {
	Workouts    []workout.Workout
	InitialMode UIMode
	SoundOn     bool
	UILogChan   <-chan string
	Logger      *log.Logger
}

func NewUIModel(args NewUIModelArg) *UIModel {
	if args.Logger == nil {
		panic("UIModel: logger cannot be nil")
	}
	if args.UILogChan == nil {
		panic("UIModel: uiLogChan cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	workouts := make([]workout.Workout, len(args.Workouts))
	for i, w := range args.Workouts {
		workouts[i] = w.Clone()
	}
	model := &UIModel{
		logEvent:              events.NewChannelEvent[string](false),
		closeApplicationEvent: events.NewChannelEvent[struct{}](true),
		uiStateEvent:          events.NewChannelEvent[UIState](true),
		uiState:               UIState{Mode: args.InitialMode, SoundOn: args.SoundOn},
		workouts:              workouts,
		logLines:              make([]string, 0, maxLogLines),
		ctx:                   ctx,
		cancel:                cancel,
		logger:                args.Logger,
	}
	model.uiStateEvent.Notify(model.uiState)

	// Read from the UI log channel and populate logLines
	model.wg.Add(1)
	go_func_utils.SafeGo(model.logger, "UIModel.readFromLogChannel", func() { model.readFromLogChannel(ctx, args.UILogChan) })

	return model
}

// Shutdown stops all goroutines and waits for them to finish
func (m *UIModel) Shutdown() {
	m.logger.Println("UIModel: Shutting down")
	m.cancel()
	m.wg.Wait()
	m.logger.Println("UIModel: Shutdown complete")
}

// ListenToLog registers a channel to receive log messages
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToLog(ch chan<- string) func() {
	return m.logEvent.Listen(ch)
}

// ListenToCloseApplication registers a channel to receive close application signals
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToCloseApplication(ch chan<- struct{}) func() {
	return m.closeApplicationEvent.Listen(ch)
}

// RequestCloseApplication signals that the application should close
func (m *UIModel) RequestCloseApplication() {
	m.closeApplicationEvent.Notify(struct{}{})
}

// ListenToUIState registers a channel to receive UI state changes
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToUIState(ch chan<- UIState) func() {
	return m.uiStateEvent.Listen(ch)
}

// GetUIState returns the current UI state
func (m *UIModel) GetUIState() UIState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uiState
}

// SetMode updates the current UI mode and notifies listeners
func (m *UIModel) SetMode(mode UIMode) {
	m.updateState(func(s *UIState) { s.Mode = mode })
}

// SetSoundOn updates the displayed sound preference and notifies listeners
func (m *UIModel) SetSoundOn(on bool) {
	m.updateState(func(s *UIState) { s.SoundOn = on })
}

func (m *UIModel) updateState(mutate func(*UIState)) {
	m.mu.Lock()
	next := m.uiState
	mutate(&next)
	if next == m.uiState {
		m.mu.Unlock()
		return
	}
	m.uiState = next
	m.mu.Unlock()

	m.uiStateEvent.Notify(next)
}

// GetWorkouts returns a copy of the workout catalog
func (m *UIModel) GetWorkouts() []workout.Workout {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]workout.Workout, len(m.workouts))
	for i, w := range m.workouts {
		result[i] = w.Clone()
	}
	return result
}

// WorkoutAt returns the catalog workout at index
func (m *UIModel) WorkoutAt(index int) (workout.Workout, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if index < 0 || index >= len(m.workouts) {
		return workout.Workout{}, false
	}
	return m.workouts[index].Clone(), true
}

// IndexOfWorkout returns the catalog index of the workout with the given id, or -1
func (m *UIModel) IndexOfWorkout(id string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i, w := range m.workouts {
		if w.ID == id {
			return i
		}
	}
	return -1
}

// readFromLogChannel reads log lines from the channel and populates logLines
func (m *UIModel) readFromLogChannel(ctx context.Context, logChan <-chan string) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-logChan:
			if !ok {
				return
			}

			m.logMu.Lock()
			m.logLines = append(m.logLines, line)
			if len(m.logLines) > maxLogLines {
				m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
			}
			m.logMu.Unlock()

			m.logEvent.Notify(line)
		}
	}
}

// GetLogTail returns the last n lines of logs
func (m *UIModel) GetLogTail(n int) []string {
	m.logMu.RLock()
	defer m.logMu.RUnlock()

	if n <= 0 {
		return []string{}
	}

	if n >= len(m.logLines) {
		result := make([]string, len(m.logLines))
		copy(result, m.logLines)
		return result
	}

	result := make([]string, n)
	copy(result, m.logLines[len(m.logLines)-n:])
	return result
}
