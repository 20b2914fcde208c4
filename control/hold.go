package control

import "time"

// DefaultHysteresisDB is how far above the current level a desired value
// must sit before it counts as a pending release.
const DefaultHysteresisDB = 0.5

// HoldReleaseGate delays gain release: raising the volume after the content
// got quieter waits until the higher value has been asked for continuously
// for the hold time, so a short dip does not pump the level up. Lowering
// the volume passes through at once.
type HoldReleaseGate struct {
	hold       time.Duration
	hysteresis float64

	holding   bool
	heldSince time.Time
}

func NewHoldReleaseGate(hold time.Duration) *HoldReleaseGate {
	return &HoldReleaseGate{hold: hold, hysteresis: DefaultHysteresisDB}
}

func (g *HoldReleaseGate) SetHold(d time.Duration) {
	if d >= 0 {
		g.hold = d
	}
}

// Apply returns the value the slew limiter should chase.
func (g *HoldReleaseGate) Apply(current, desired float64, now time.Time) float64 {
	if desired <= current+g.hysteresis {
		g.holding = false
		return desired
	}
	if !g.holding {
		g.holding = true
		g.heldSince = now
	}
	if now.Sub(g.heldSince) >= g.hold {
		return desired
	}
	return current
}

// Holding reports whether a release is pending or in progress.
func (g *HoldReleaseGate) Holding() bool { return g.holding }

// HeldSince is when the pending release first appeared. Zero when not
// holding.
func (g *HoldReleaseGate) HeldSince() time.Time {
	if !g.holding {
		return time.Time{}
	}
	return g.heldSince
}

func (g *HoldReleaseGate) Reset() {
	g.holding = false
	g.heldSince = time.Time{}
}
