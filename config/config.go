// Package config manages the controller's user preferences.
// Settings are stored as JSON at os.UserConfigDir()/loudctl/config.json.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

var ErrInvalid = errors.New("invalid configuration")

const (
	MinTargetLUFS = -60.0
	MaxTargetLUFS = 0.0

	MinWindowSeconds = 5.0
	MaxWindowSeconds = 120.0
)

// Config is an immutable snapshot of the controller settings. Copy it, edit
// the copy, and hand it to Store.Update.
type Config struct {
	TargetLUFS     float64 `json:"target_lufs"`
	Enabled        bool    `json:"enabled"`
	WindowSeconds  float64 `json:"window_seconds"`
	SlewRateDBPerS float64 `json:"slew_rate"`
	HoldTimeS      float64 `json:"hold_time"`
	ManualPauseS   float64 `json:"manual_pause"`
}

// Default returns a Config populated with sensible defaults.
func Default() Config {
	return Config{
		TargetLUFS:     -26.0,
		Enabled:        true,
		WindowSeconds:  10.0,
		SlewRateDBPerS: 8.0,
		HoldTimeS:      1.5,
		ManualPauseS:   30.0,
	}
}

// Validate reports the first setting that would break the control loop.
func (c Config) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"target_lufs", c.TargetLUFS},
		{"window_seconds", c.WindowSeconds},
		{"slew_rate", c.SlewRateDBPerS},
		{"hold_time", c.HoldTimeS},
		{"manual_pause", c.ManualPauseS},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalid, f.name)
		}
	}
	switch {
	case c.WindowSeconds <= 0:
		return fmt.Errorf("%w: window_seconds must be > 0, got %g", ErrInvalid, c.WindowSeconds)
	case c.SlewRateDBPerS <= 0:
		return fmt.Errorf("%w: slew_rate must be > 0, got %g", ErrInvalid, c.SlewRateDBPerS)
	case c.HoldTimeS < 0:
		return fmt.Errorf("%w: hold_time must be >= 0, got %g", ErrInvalid, c.HoldTimeS)
	case c.ManualPauseS < 0:
		return fmt.Errorf("%w: manual_pause must be >= 0, got %g", ErrInvalid, c.ManualPauseS)
	}
	return nil
}

func (c Config) Window() time.Duration      { return seconds(c.WindowSeconds) }
func (c Config) HoldTime() time.Duration    { return seconds(c.HoldTimeS) }
func (c Config) ManualPause() time.Duration { return seconds(c.ManualPauseS) }

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// ClampTarget limits a target to the range the settings UI offers.
func ClampTarget(v float64) float64 {
	return max(MinTargetLUFS, min(MaxTargetLUFS, v))
}

// ClampWindow limits a window length to the range the settings UI offers.
func ClampWindow(v float64) float64 {
	return max(MinWindowSeconds, min(MaxWindowSeconds, v))
}

// Path returns the absolute path to the config file.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "loudctl", "config.json"), nil
}

// Load reads the config file and returns it. If the file is missing,
// unreadable or invalid, defaults are returned. Keys absent from the file keep
// their default values.
func Load() Config {
	path, err := Path()
	if err != nil {
		return Default()
	}
	cfg, err := Read(path)
	if err != nil {
		return Default()
	}
	return cfg
}

// Read parses the config file at path. Keys absent from the file keep their
// default values; a file that parses but fails validation is an error.
func Read(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalid, filepath.Base(path), err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to disk, creating the directory if needed.
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
