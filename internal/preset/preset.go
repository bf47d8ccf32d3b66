// Package preset persists per-file session presets: the preprocessing and
// overlay settings a user wants restored the next time the same file is
// opened. The store is a single JSON document keyed by absolute file path.
package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Preprocessing mirrors the display-side settings worth restoring.
type Preprocessing struct {
	HistEq             bool    `json:"hist_eq"`
	Colormap           bool    `json:"colormap"`
	BrightnessContrast bool    `json:"brightness_contrast"`
	Brightness         int     `json:"brightness"`
	Contrast           float64 `json:"contrast"`
	WLEnabled          bool    `json:"wl_enabled"`
	WLCenter           int     `json:"wl_center"`
	WLWidth            int     `json:"wl_width"`
}

// Overlay mirrors the mask-side settings. MaskPath is revalidated on
// apply; a vanished mask file degrades to no overlay instead of failing.
type Overlay struct {
	Enabled      bool              `json:"overlay_enabled"`
	Alpha        int               `json:"overlay_alpha"`
	Outline      bool              `json:"overlay_outline"`
	MaskPath     string            `json:"mask_path,omitempty"`
	LabelVisible map[string]bool   `json:"label_visible,omitempty"`
	LabelNames   map[string]string `json:"label_names,omitempty"`
}

// Preset is one saved session for one file.
type Preset struct {
	Preprocessing Preprocessing `json:"preprocessing"`
	Overlay       Overlay       `json:"overlay"`
}

// DefaultPreprocessing is the neutral state applied on reset.
func DefaultPreprocessing() Preprocessing {
	return Preprocessing{Contrast: 1, WLCenter: 40, WLWidth: 400}
}

// Store reads and writes the preset document. Every operation goes through
// the file so concurrent viewer instances see each other's saves.
type Store struct {
	path string
}

// NewStore creates a store at an explicit path, used by tests.
func NewStore(path string) *Store { return &Store{path: path} }

// DefaultStore places the document under the user config directory.
func DefaultStore() (*Store, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	return &Store{path: filepath.Join(base, "smiv", "session_presets.json")}, nil
}

// Key normalizes a file path into its store key.
func Key(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

func (s *Store) load() map[string]Preset {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return map[string]Preset{}
	}
	var out map[string]Preset
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return map[string]Preset{}
	}
	return out
}

func (s *Store) save(presets map[string]Preset) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create preset dir: %w", err)
	}
	raw, err := json.MarshalIndent(presets, "", "  ")
	if err != nil {
		return fmt.Errorf("encode presets: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write presets: %w", err)
	}
	return nil
}

// Get returns the preset saved for a file, if any.
func (s *Store) Get(path string) (Preset, bool) {
	p, ok := s.load()[Key(path)]
	return p, ok
}

// Put saves or replaces the preset for a file.
func (s *Store) Put(path string, p Preset) error {
	presets := s.load()
	presets[Key(path)] = p
	return s.save(presets)
}

// Delete removes a file's preset. Removing a missing entry is a no-op.
func (s *Store) Delete(path string) error {
	presets := s.load()
	if _, ok := presets[Key(path)]; !ok {
		return nil
	}
	delete(presets, Key(path))
	return s.save(presets)
}
