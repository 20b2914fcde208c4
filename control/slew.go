package control

import (
	"math"
	"time"
)

// SlewLimiter bounds how fast the commanded volume may move. It remembers
// the last level actually actuated and the time it was last stepped.
type SlewLimiter struct {
	rate   float64 // dB per second
	last   float64
	lastAt time.Time
	primed bool

	limited bool
}

func NewSlewLimiter(rateDBPerS float64) *SlewLimiter {
	return &SlewLimiter{rate: rateDBPerS}
}

func (s *SlewLimiter) SetRate(rateDBPerS float64) {
	if rateDBPerS > 0 {
		s.rate = rateDBPerS
	}
}

// Reset adopts db as the actuated baseline without moving anything.
func (s *SlewLimiter) Reset(db float64, now time.Time) {
	s.last = db
	s.lastAt = now
	s.primed = true
}

func (s *SlewLimiter) Last() float64 { return s.last }

// Step returns the level to command this tick: the last actuated level moved
// toward desired by at most rate × elapsed, where elapsed is the wall-clock
// time since the previous Step, Touch or Reset. A clock that went backwards
// counts as no time passing.
func (s *SlewLimiter) Step(desired float64, now time.Time) float64 {
	var elapsed float64
	if s.primed {
		elapsed = max(now.Sub(s.lastAt).Seconds(), 0)
	}
	s.lastAt = now
	s.primed = true

	limit := s.rate * elapsed
	delta := desired - s.last
	if math.Abs(delta) <= limit {
		s.limited = false
		return desired
	}
	s.limited = true
	return s.last + math.Copysign(limit, delta)
}

// Limited reports whether the last Step was cut short by the rate. A
// limited step is the full move the rate allows, however small.
func (s *SlewLimiter) Limited() bool { return s.limited }

// Commit records db as actuated. Call it only after the sink accepted it.
func (s *SlewLimiter) Commit(db float64) {
	s.last = db
}

// Touch advances the clock without stepping, so a tick that did not actuate
// does not bank slew budget for the next one.
func (s *SlewLimiter) Touch(now time.Time) {
	s.lastAt = now
	s.primed = true
}
