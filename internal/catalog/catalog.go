package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/lowaak/circuit-timer/internal/workout"
)

// File is the on-disk catalog layout
type File struct {
	Workouts []workout.Workout `yaml:"workouts"`
}

// Load reads a YAML catalog file. The built-in routines are returned when
// path is empty.
func Load(path string) ([]workout.Workout, error) {
	if path == "" {
		return Defaults(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	workouts, err := Parse(data, time.Now())
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return workouts, nil
}

// Parse decodes a catalog document and fills in defaults: generated ids,
// at least one round, and now as the creation time.
func Parse(data []byte, now time.Time) ([]workout.Workout, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if len(file.Workouts) == 0 {
		return nil, errors.New("catalog has no workouts")
	}

	seen := make(map[string]bool, len(file.Workouts))
	for i := range file.Workouts {
		w := &file.Workouts[i]
		if err := normalize(w, now); err != nil {
			return nil, fmt.Errorf("workout %d: %w", i+1, err)
		}
		if seen[w.ID] {
			return nil, fmt.Errorf("workout %d: duplicate id %q", i+1, w.ID)
		}
		seen[w.ID] = true
	}
	return file.Workouts, nil
}

func normalize(w *workout.Workout, now time.Time) error {
	w.Name = strings.TrimSpace(w.Name)
	if w.Name == "" {
		return errors.New("name is required")
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.Rounds < 1 {
		w.Rounds = 1
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	if len(w.Exercises) == 0 {
		return fmt.Errorf("%q has no exercises", w.Name)
	}

	ids := make(map[string]bool, len(w.Exercises))
	for j := range w.Exercises {
		e := &w.Exercises[j]
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" {
			return fmt.Errorf("%q exercise %d: name is required", w.Name, j+1)
		}
		if e.Duration < 0 || e.Repetitions < 0 {
			return fmt.Errorf("%q exercise %q: duration and repetitions must not be negative", w.Name, e.Name)
		}
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if ids[e.ID] {
			return fmt.Errorf("%q: duplicate exercise id %q", w.Name, e.ID)
		}
		ids[e.ID] = true
	}
	return nil
}

var builtinCreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

var builtinCreator = workout.Creator{ID: "circuit-timer", Name: "Circuit Timer"}

// Defaults returns the built-in routines
func Defaults() []workout.Workout {
	rest := func(id string, seconds int) workout.Exercise {
		return workout.Exercise{ID: id, Name: workout.RestExerciseName, Duration: seconds}
	}
	return []workout.Workout{
		{
			ID:          "builtin-quick-hiit",
			Name:        "Quick HIIT",
			Description: "Seven minutes of bodyweight intervals",
			Difficulty:  "medium",
			Creator:     builtinCreator,
			Rounds:      2,
			Tags:        []string{"hiit", "no-equipment"},
			CreatedAt:   builtinCreatedAt,
			Exercises: []workout.Exercise{
				{ID: "hiit-jacks", Name: "Jumping jacks", Description: "Arms overhead on every jump", Duration: 40},
				rest("hiit-rest-1", 20),
				{ID: "hiit-squats", Name: "Squats", Description: "Hips below knees", Duration: 40},
				rest("hiit-rest-2", 20),
				{ID: "hiit-pushups", Name: "Push-ups", Description: "Knees down if needed", Duration: 40},
				rest("hiit-rest-3", 20),
			},
		},
		{
			ID:          "builtin-core",
			Name:        "Core circuit",
			Description: "Timed holds with counted sets",
			Difficulty:  "easy",
			Creator:     builtinCreator,
			Rounds:      3,
			Tags:        []string{"core"},
			CreatedAt:   builtinCreatedAt,
			Exercises: []workout.Exercise{
				{ID: "core-plank", Name: "Plank", Duration: 45},
				{ID: "core-crunches", Name: "Crunches", Repetitions: 20},
				{ID: "core-side-plank", Name: "Side plank", Description: "Switch sides halfway", Duration: 30},
				rest("core-rest", 30),
			},
		},
		{
			ID:          "builtin-strength",
			Name:        "Strength ladder",
			Description: "Counted sets, advance when done",
			Difficulty:  "hard",
			Creator:     builtinCreator,
			Rounds:      4,
			Tags:        []string{"strength"},
			CreatedAt:   builtinCreatedAt,
			Exercises: []workout.Exercise{
				{ID: "strength-pullups", Name: "Pull-ups", Repetitions: 8},
				{ID: "strength-dips", Name: "Dips", Repetitions: 12},
				{ID: "strength-lunges", Name: "Lunges", Repetitions: 20},
				rest("strength-rest", 90),
			},
		},
	}
}
