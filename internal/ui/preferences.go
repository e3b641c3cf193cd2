package ui

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
)

const preferencesFileName = "preferences.json"

type preferencesData struct {
	SoundOn       *bool  `json:"sound_on,omitempty"`
	LastWorkoutID string `json:"last_workout_id,omitempty"`
}

// Preferences is the small JSON file of user choices the UI remembers between
// runs. Failures are logged; the UI keeps working with in-memory values.
type Preferences struct {
	filePath string
	data     preferencesData
	mu       sync.Mutex
	logger   *log.Logger
}

// LoadPreferences reads <dataDir>/preferences.json, starting empty when the
// file is missing or unreadable.
func LoadPreferences(dataDir string, logger *log.Logger) *Preferences {
	if logger == nil {
		panic("Preferences: logger cannot be nil")
	}
	p := &Preferences{
		filePath: filepath.Join(dataDir, preferencesFileName),
		logger:   logger,
	}
	p.load()
	return p
}

// SoundOn returns the saved sound preference; ok is false when none was saved
func (p *Preferences) SoundOn() (on bool, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data.SoundOn == nil {
		return false, false
	}
	return *p.data.SoundOn, true
}

func (p *Preferences) SetSoundOn(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data.SoundOn != nil && *p.data.SoundOn == on {
		return
	}
	p.data.SoundOn = &on
	p.save()
}

func (p *Preferences) LastWorkoutID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data.LastWorkoutID
}

func (p *Preferences) SetLastWorkoutID(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data.LastWorkoutID == id {
		return
	}
	p.data.LastWorkoutID = id
	p.save()
}

func (p *Preferences) load() {
	raw, err := os.ReadFile(p.filePath)
	if err != nil {
		p.logger.Printf("Preferences: load %s (no existing file)", p.filePath)
		return
	}
	var data preferencesData
	if err := json.Unmarshal(raw, &data); err != nil {
		p.logger.Printf("Preferences: load %s failed to parse: %v", p.filePath, err)
		return
	}
	p.data = data
	p.logger.Printf("Preferences: load %s -> last workout %q", p.filePath, p.data.LastWorkoutID)
}

// save must be called with mu held
func (p *Preferences) save() {
	if err := os.MkdirAll(filepath.Dir(p.filePath), 0o755); err != nil {
		p.logger.Printf("Preferences: save mkdir failed: %v", err)
		return
	}
	raw, err := json.MarshalIndent(p.data, "", "  ")
	if err != nil {
		p.logger.Printf("Preferences: save marshal failed: %v", err)
		return
	}
	if err := os.WriteFile(p.filePath, raw, 0o644); err != nil {
		p.logger.Printf("Preferences: save %s failed: %v", p.filePath, err)
	}
}
