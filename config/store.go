package config

import (
	"sync"
	"sync/atomic"
)

// Store publishes the live configuration as an immutable snapshot. Readers
// never see a half-applied edit: every accepted change swaps the whole
// pointer.
type Store struct {
	cur atomic.Pointer[Config]

	mu       sync.Mutex // serializes writers
	lastErr  atomic.Pointer[error]
	onChange func(Config)
}

// NewStore seeds the store. An invalid seed falls back to defaults.
func NewStore(c Config) *Store {
	if c.Validate() != nil {
		c = Default()
	}
	s := &Store{}
	s.cur.Store(&c)
	return s
}

// Load returns the current snapshot.
func (s *Store) Load() Config {
	return *s.cur.Load()
}

// OnChange registers a hook fired after every accepted update, outside the
// writer lock.
func (s *Store) OnChange(fn func(Config)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Update applies fn to a copy of the current snapshot. If the result fails
// validation the previous snapshot stays live, the error is remembered for
// LastError and returned.
func (s *Store) Update(fn func(*Config)) (Config, error) {
	s.mu.Lock()
	next := *s.cur.Load()
	fn(&next)
	if err := next.Validate(); err != nil {
		s.lastErr.Store(&err)
		prev := *s.cur.Load()
		s.mu.Unlock()
		return prev, err
	}
	s.cur.Store(&next)
	s.lastErr.Store(nil)
	hook := s.onChange
	s.mu.Unlock()

	if hook != nil {
		hook(next)
	}
	return next, nil
}

// Replace swaps in a whole new snapshot, subject to the same validation as
// Update.
func (s *Store) Replace(c Config) error {
	_, err := s.Update(func(cfg *Config) { *cfg = c })
	return err
}

// LastError returns the most recent rejection, cleared by the next accepted
// update.
func (s *Store) LastError() error {
	if p := s.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

func (s *Store) SetEnabled(on bool) (Config, error) {
	return s.Update(func(c *Config) { c.Enabled = on })
}

func (s *Store) ToggleEnabled() (Config, error) {
	return s.Update(func(c *Config) { c.Enabled = !c.Enabled })
}

// NudgeTarget moves the target by delta dB, clamped to the UI range.
func (s *Store) NudgeTarget(delta float64) (Config, error) {
	return s.Update(func(c *Config) { c.TargetLUFS = ClampTarget(c.TargetLUFS + delta) })
}

func (s *Store) SetTarget(v float64) (Config, error) {
	return s.Update(func(c *Config) { c.TargetLUFS = ClampTarget(v) })
}

func (s *Store) SetWindow(sec float64) (Config, error) {
	return s.Update(func(c *Config) { c.WindowSeconds = ClampWindow(sec) })
}

// Reject records err as the latest rejection without touching the snapshot,
// for edits that never got as far as a Config.
func (s *Store) Reject(err error) {
	if err != nil {
		s.lastErr.Store(&err)
	}
}
