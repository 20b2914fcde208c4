package control

import (
	"math"
	"time"
)

const (
	// DefaultOverrideToleranceDB absorbs device quantization and rounding in
	// the dB conversion.
	DefaultOverrideToleranceDB = 1.5

	// DefaultSettleTime is how long a device may keep reporting the previous
	// command after a new one was issued.
	DefaultSettleTime = 300 * time.Millisecond
)

// OverrideDetector spots volume changes the controller did not make.
type OverrideDetector struct {
	tolerance float64
	settle    time.Duration
	pause     time.Duration

	known       bool
	commanded   float64
	previous    float64
	commandedAt time.Time
	until       time.Time
}

func NewOverrideDetector(pause time.Duration) *OverrideDetector {
	return &OverrideDetector{
		tolerance: DefaultOverrideToleranceDB,
		settle:    DefaultSettleTime,
		pause:     pause,
	}
}

func (o *OverrideDetector) SetPause(d time.Duration) {
	if d >= 0 {
		o.pause = d
	}
}

// Commit records a level the controller just actuated. It must be called
// with the same value that was handed to the sink, right after the sink
// accepted it.
func (o *OverrideDetector) Commit(db float64, now time.Time) {
	if o.known {
		o.previous = o.commanded
	} else {
		o.previous = db
	}
	o.commanded = db
	o.commandedAt = now
	o.known = true
}

// Adopt takes db as the baseline without treating it as a fresh command.
func (o *OverrideDetector) Adopt(db float64) {
	o.commanded = db
	o.previous = db
	o.commandedAt = time.Time{}
	o.known = true
}

// Observe compares the level the device reports against the last command.
// On a mismatch it adopts the reported level, starts the pause and returns
// true. Within the settle time after a command, the previous command is
// also accepted.
func (o *OverrideDetector) Observe(reported float64, now time.Time) bool {
	if !o.known {
		o.Adopt(reported)
		return false
	}
	if o.matches(o.commanded, reported) {
		return false
	}
	settling := !o.commandedAt.IsZero() && now.Sub(o.commandedAt) < o.settle
	if settling && o.matches(o.previous, reported) {
		return false
	}
	o.Adopt(reported)
	o.until = now.Add(o.pause)
	return true
}

func (o *OverrideDetector) matches(want, got float64) bool {
	// two -Inf readings (muted) agree
	if want == got {
		return true
	}
	return math.Abs(want-got) <= o.tolerance
}

// Paused reports whether the cooldown is still running at now.
func (o *OverrideDetector) Paused(now time.Time) bool {
	return now.Before(o.until)
}

func (o *OverrideDetector) PausedUntil() time.Time { return o.until }

// ClearPause ends any running cooldown.
func (o *OverrideDetector) ClearPause() { o.until = time.Time{} }

func (o *OverrideDetector) Commanded() float64 { return o.commanded }
