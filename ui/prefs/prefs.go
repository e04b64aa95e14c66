// Package prefs provides JSON-based application preferences.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"syncytia-counter/internal/app"
	"syncytia-counter/internal/selection"
)

const (
	appDir    = "syncytia-counter"
	prefsFile = "preferences.json"
)

// Preference keys.
const (
	KeyClearGroupEnabled   = "clearGroupEnabled"
	KeyRelinkClearsMarkers = "relinkClearsMarkers"
	KeyShowNumbers         = "showNumbers"
	KeyHideSingleCells     = "hideSingleCells"
	KeyMarkerSize          = "markerSize"
	KeyMarkerShape         = "markerShape"
	KeyConfirmDestructive  = "confirmDestructive"
)

// Prefs stores application preferences as a key-value map.
type Prefs struct {
	mu     sync.RWMutex
	values map[string]interface{}
	path   string
	dirty  bool
}

// Load reads preferences from <user config dir>/syncytia-counter/preferences.json.
// Returns a Prefs with defaults if the file doesn't exist.
func Load() *Prefs {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return LoadFrom(filepath.Join(configDir, appDir, prefsFile))
}

// LoadFrom reads preferences from an explicit file path.
func LoadFrom(path string) *Prefs {
	p := &Prefs{
		values: make(map[string]interface{}),
		path:   path,
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p
	}
	_ = json.Unmarshal(data, &p.values)
	return p
}

// Path returns the preferences file location.
func (p *Prefs) Path() string {
	return p.path
}

// Save writes preferences to disk.
func (p *Prefs) Save() error {
	p.mu.Lock()
	data, err := json.MarshalIndent(p.values, "", "  ")
	p.dirty = false
	p.mu.Unlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.path, data, 0o644)
}

// SaveIfChanged writes preferences only when a setter ran since the last save.
func (p *Prefs) SaveIfChanged() error {
	p.mu.RLock()
	dirty := p.dirty
	p.mu.RUnlock()
	if !dirty {
		return nil
	}
	return p.Save()
}

// Int returns an int preference, or fallback if not set.
func (p *Prefs) Int(key string, fallback int) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return fallback
}

// SetInt stores an int preference.
func (p *Prefs) SetInt(key string, val int) {
	p.set(key, val)
}

// String returns a string preference, or "" if not set.
func (p *Prefs) String(key string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// SetString stores a string preference.
func (p *Prefs) SetString(key string, val string) {
	p.set(key, val)
}

// Bool returns a bool preference, or fallback if not set.
func (p *Prefs) Bool(key string, fallback bool) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if b, ok := p.values[key].(bool); ok {
		return b
	}
	return fallback
}

// SetBool stores a bool preference.
func (p *Prefs) SetBool(key string, val bool) {
	p.set(key, val)
}

func (p *Prefs) set(key string, val interface{}) {
	p.mu.Lock()
	if old, ok := p.values[key]; !ok || old != val {
		p.dirty = true
	}
	p.values[key] = val
	p.mu.Unlock()
}

// Config builds the session configuration, falling back to defaults for unset keys.
func (p *Prefs) Config() app.Config {
	cfg := app.DefaultConfig()
	cfg.ClearGroupEnabled = p.Bool(KeyClearGroupEnabled, cfg.ClearGroupEnabled)
	cfg.RelinkClearsMarkers = p.Bool(KeyRelinkClearsMarkers, cfg.RelinkClearsMarkers)
	cfg.Display.ShowNumbers = p.Bool(KeyShowNumbers, cfg.Display.ShowNumbers)
	cfg.Display.HideSingleCells = p.Bool(KeyHideSingleCells, cfg.Display.HideSingleCells)
	if size, err := selection.ParseMarkerSize(p.String(KeyMarkerSize)); err == nil {
		cfg.Display.Size = size
	}
	if shape, err := selection.ParseMarkerShape(p.String(KeyMarkerShape)); err == nil {
		cfg.Display.Shape = shape
	}
	return cfg
}

// RememberDisplay stores the display options a new session should start with.
// Hide Markers is deliberately transient.
func (p *Prefs) RememberDisplay(d selection.DisplayOptions) {
	p.SetBool(KeyShowNumbers, d.ShowNumbers)
	p.SetBool(KeyHideSingleCells, d.HideSingleCells)
	p.SetString(KeyMarkerSize, d.Size.String())
	p.SetString(KeyMarkerShape, d.Shape.String())
}
