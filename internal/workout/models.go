package workout

import (
	"strings"
	"time"
)

// RestExerciseName is the reserved exercise name that marks a rest period
const RestExerciseName = "Rest"

// Creator identifies the author of a workout
type Creator struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Avatar string `json:"avatar" yaml:"avatar"`
}

// Exercise is a single step of a workout
type Exercise struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Duration    int    `json:"duration" yaml:"duration"`       // Seconds, 0 means untimed (manual advance)
	Repetitions int    `json:"repetitions" yaml:"repetitions"` // 0 means not counted
}

// IsRest reports whether the exercise is a rest period
func (e Exercise) IsRest() bool {
	return strings.EqualFold(strings.TrimSpace(e.Name), RestExerciseName)
}

// Workout is the catalog value object supplied to the session
type Workout struct {
	ID            string     `json:"id" yaml:"id"`
	Name          string     `json:"name" yaml:"name"`
	Description   string     `json:"description" yaml:"description"`
	Difficulty    string     `json:"difficulty" yaml:"difficulty"`
	Creator       Creator    `json:"creator" yaml:"creator"`
	Exercises     []Exercise `json:"exercises" yaml:"exercises"`
	Rounds        int        `json:"rounds" yaml:"rounds"`
	Tags          []string   `json:"tags" yaml:"tags"`
	ClonedFromIDs []string   `json:"clonedFromIds" yaml:"cloned_from_ids"`
	IsShared      bool       `json:"isShared" yaml:"is_shared"`
	CreatedAt     time.Time  `json:"createdAt" yaml:"created_at"`
}

// Clone returns a copy that shares no slices with w
func (w Workout) Clone() Workout {
	c := w
	c.Exercises = cloneSlice(w.Exercises)
	c.Tags = cloneSlice(w.Tags)
	c.ClonedFromIDs = cloneSlice(w.ClonedFromIDs)
	return c
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	return append(make([]T, 0, len(in)), in...)
}

// TotalDuration returns the timed length of one pass through all rounds
func (w Workout) TotalDuration() time.Duration {
	var perRound int
	for _, e := range w.Exercises {
		perRound += e.Duration
	}
	rounds := w.Rounds
	if rounds < 1 {
		rounds = 1
	}
	return time.Duration(perRound*rounds) * time.Second
}

// FirstExerciseID returns the id of the first exercise, or "" when there are none
func (w Workout) FirstExerciseID() string {
	if len(w.Exercises) == 0 {
		return ""
	}
	return w.Exercises[0].ID
}

// IndexOf returns the index of the exercise with the given id, or -1
func (w Workout) IndexOf(exerciseID string) int {
	for i, e := range w.Exercises {
		if e.ID == exerciseID {
			return i
		}
	}
	return -1
}

// ActiveWorkout is the workout currently loaded into the session together with
// the session's position in it.
type ActiveWorkout struct {
	Workout

	CurrentRound         int      `json:"currentRound"`      // 1..Rounds
	CurrentExerciseID    string   `json:"currentExerciseId"` // "" only when Exercises is empty
	IsStarted            bool     `json:"isStarted"`
	IsCompleted          bool     `json:"isCompleted"`
	PendingSwitchWorkout *Workout `json:"pendingSwitchWorkout,omitempty"` // Staged replacement awaiting confirmation
}

// IsEmpty reports whether this is the "no active workout" sentinel or a workout without exercises
func (a ActiveWorkout) IsEmpty() bool {
	return len(a.Exercises) == 0
}

// IsLive reports whether a session is in progress
func (a ActiveWorkout) IsLive() bool {
	return a.IsStarted && !a.IsCompleted
}

// IsLastRound reports whether the current round is the final one
func (a ActiveWorkout) IsLastRound() bool {
	return a.CurrentRound >= a.Rounds
}

// IsLastExercise reports whether the current exercise is the final one of a round
func (a ActiveWorkout) IsLastExercise() bool {
	idx := a.IndexOf(a.CurrentExerciseID)
	return idx >= 0 && idx == len(a.Exercises)-1
}

// CurrentExercise returns the exercise matching CurrentExerciseID, falling back
// to the first exercise when the id is unknown.
func (a ActiveWorkout) CurrentExercise() (Exercise, bool) {
	if len(a.Exercises) == 0 {
		return Exercise{}, false
	}
	if idx := a.IndexOf(a.CurrentExerciseID); idx >= 0 {
		return a.Exercises[idx], true
	}
	return a.Exercises[0], true
}

// EmptyActiveWorkout returns the "no active workout" sentinel
func EmptyActiveWorkout() ActiveWorkout {
	return ActiveWorkout{Workout: Workout{Rounds: 0, Exercises: []Exercise{}}}
}

// ActiveExercise is the exercise being performed, denormalized from
// ActiveWorkout for frequent timer mutation.
type ActiveExercise struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Repetitions int    `json:"repetitions"`
	IsPaused    bool   `json:"isPaused"`
	CurrentTime int    `json:"currentTime"` // Seconds remaining, Duration down to -1
}

// IsRest reports whether the active exercise is a rest period
func (e ActiveExercise) IsRest() bool {
	return Exercise{Name: e.Name}.IsRest()
}

// IsExhausted reports whether the countdown has passed zero
func (e ActiveExercise) IsExhausted() bool {
	return e.Duration > 0 && e.CurrentTime < 0
}

// DeriveActiveExercise synthesizes the ActiveExercise for the workout's current
// position: fields copied from the matching exercise, unpaused, full time.
func DeriveActiveExercise(a ActiveWorkout) ActiveExercise {
	e, ok := a.CurrentExercise()
	if !ok {
		return ActiveExercise{}
	}
	return ActiveExercise{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Duration:    e.Duration,
		Repetitions: e.Repetitions,
		IsPaused:    false,
		CurrentTime: e.Duration,
	}
}

// Record is the persisted and published shape of a session
type Record struct {
	ActiveWorkout  ActiveWorkout  `json:"activeWorkout"`
	ActiveExercise ActiveExercise `json:"activeExercise"`
}
