package config_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"loudctl/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	if cfg.TargetLUFS != -26 {
		t.Errorf("expected target -26, got %v", cfg.TargetLUFS)
	}
	if cfg.Window() != 10*time.Second {
		t.Errorf("expected 10s window, got %v", cfg.Window())
	}
	if cfg.HoldTime() != 1500*time.Millisecond {
		t.Errorf("expected 1.5s hold, got %v", cfg.HoldTime())
	}
	if cfg.ManualPause() != 30*time.Second {
		t.Errorf("expected 30s pause, got %v", cfg.ManualPause())
	}
	if !cfg.Enabled {
		t.Error("expected enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*config.Config){
		"zero window":     func(c *config.Config) { c.WindowSeconds = 0 },
		"negative window": func(c *config.Config) { c.WindowSeconds = -1 },
		"zero slew":       func(c *config.Config) { c.SlewRateDBPerS = 0 },
		"negative hold":   func(c *config.Config) { c.HoldTimeS = -0.1 },
		"negative pause":  func(c *config.Config) { c.ManualPauseS = -5 },
		"nan target":      func(c *config.Config) { c.TargetLUFS = math.NaN() },
		"inf window":      func(c *config.Config) { c.WindowSeconds = math.Inf(1) },
	}
	for name, mutate := range cases {
		cfg := config.Default()
		mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, config.ErrInvalid) {
			t.Errorf("%s: got %v, want ErrInvalid", name, err)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)

	cfg := config.Config{
		TargetLUFS:     -20,
		Enabled:        false,
		WindowSeconds:  30,
		SlewRateDBPerS: 4,
		HoldTimeS:      3,
		ManualPauseS:   10,
	}
	if err := config.Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := config.Load()
	if loaded != cfg {
		t.Errorf("round trip: want %+v got %+v", cfg, loaded)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if cfg := config.Load(); cfg != config.Default() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func writeConfig(t *testing.T, body string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	path, err := config.Path()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	writeConfig(t, "not json {{{")
	if cfg := config.Load(); cfg != config.Default() {
		t.Errorf("expected defaults on corrupt file, got %+v", cfg)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	writeConfig(t, `{"target_lufs": -14}`)
	cfg := config.Load()
	if cfg.TargetLUFS != -14 {
		t.Errorf("target: got %v, want -14", cfg.TargetLUFS)
	}
	if cfg.WindowSeconds != 10 || cfg.SlewRateDBPerS != 8 {
		t.Errorf("missing keys should keep defaults, got %+v", cfg)
	}
}

func TestLoadInvalidFileFallsBack(t *testing.T) {
	writeConfig(t, `{"window_seconds": 0}`)
	if cfg := config.Load(); cfg != config.Default() {
		t.Errorf("expected defaults for invalid file, got %+v", cfg)
	}
}

func TestStoreRejectsInvalidUpdate(t *testing.T) {
	s := config.NewStore(config.Default())

	_, err := s.Update(func(c *config.Config) { c.WindowSeconds = 0 })
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if s.Load().WindowSeconds != 10 {
		t.Errorf("previous snapshot must stay live, got window %v", s.Load().WindowSeconds)
	}
	if !errors.Is(s.LastError(), config.ErrInvalid) {
		t.Errorf("LastError: got %v", s.LastError())
	}

	if _, err := s.SetTarget(-20); err != nil {
		t.Fatal(err)
	}
	if s.LastError() != nil {
		t.Errorf("accepted update should clear LastError, got %v", s.LastError())
	}
}

func TestStoreNudgeClamps(t *testing.T) {
	s := config.NewStore(config.Default())
	s.SetTarget(-0.5)
	cfg, _ := s.NudgeTarget(1)
	if cfg.TargetLUFS != 0 {
		t.Errorf("nudge above max: got %v", cfg.TargetLUFS)
	}
	s.SetTarget(-200)
	if got := s.Load().TargetLUFS; got != config.MinTargetLUFS {
		t.Errorf("set below min: got %v", got)
	}
	cfg, _ = s.SetWindow(1000)
	if cfg.WindowSeconds != config.MaxWindowSeconds {
		t.Errorf("window clamp: got %v", cfg.WindowSeconds)
	}
}

func TestStoreOnChange(t *testing.T) {
	s := config.NewStore(config.Default())
	var got []config.Config
	s.OnChange(func(c config.Config) { got = append(got, c) })

	s.ToggleEnabled()
	s.Update(func(c *config.Config) { c.SlewRateDBPerS = -1 }) // rejected

	if len(got) != 1 {
		t.Fatalf("hook fired %d times, want 1", len(got))
	}
	if got[0].Enabled {
		t.Error("hook should see the toggled snapshot")
	}
}

func TestStoreInvalidSeed(t *testing.T) {
	s := config.NewStore(config.Config{})
	if s.Load() != config.Default() {
		t.Errorf("invalid seed should fall back to defaults, got %+v", s.Load())
	}
}

func TestStoreConcurrentReaders(t *testing.T) {
	s := config.NewStore(config.Default())
	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				c := s.Load()
				if c.WindowSeconds <= 0 {
					t.Error("torn read")
					return
				}
			}
		}()
		s.SetWindow(float64(10 + i))
	}
	wg.Wait()
}
