package loudness

import (
	"math"
	"time"
)

const (
	// DefaultAbsoluteGateDB is the floor below which a block counts as
	// silence regardless of context.
	DefaultAbsoluteGateDB = -70.0

	// DefaultRelativeGateDB is how far below the window's ungated mean a
	// block may sit before the second gating pass drops it.
	DefaultRelativeGateDB = -10.0

	// SilentDB stands in for -Inf when the energy is zero.
	SilentDB = -90.0
)

// GateConfig holds the two gating thresholds. Both are tunable domain
// constants, not derived values.
type GateConfig struct {
	AbsoluteDB float64
	RelativeDB float64
}

func DefaultGate() GateConfig {
	return GateConfig{AbsoluteDB: DefaultAbsoluteGateDB, RelativeDB: DefaultRelativeGateDB}
}

// Sample is one block's contribution to the window.
type Sample struct {
	At       time.Time
	Duration time.Duration
	Energy   float64
}

// Estimate is the window's current loudness. When Silent is set, DB is
// SilentDB and must not drive actuation.
type Estimate struct {
	DB     float64
	Silent bool
	Blocks int           // samples in the window
	Gated  int           // samples that survived both gates
	Span   time.Duration // summed sample durations
}

type Option func(*Estimator)

func WithGate(g GateConfig) Option {
	return func(e *Estimator) { e.gate = g }
}

// Estimator integrates block energies over a sliding time window. It is not
// safe for concurrent use; the control loop owns it.
type Estimator struct {
	window  time.Duration
	gate    GateConfig
	samples []Sample
	span    time.Duration
}

func NewEstimator(window time.Duration, opts ...Option) *Estimator {
	e := &Estimator{window: window, gate: DefaultGate()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// SetWindow changes the window length and evicts anything that no longer
// fits. Non-positive windows are ignored; config validation rejects them
// before they get here.
func (e *Estimator) SetWindow(d time.Duration) {
	if d <= 0 || d == e.window {
		return
	}
	e.window = d
	e.evict()
}

func (e *Estimator) Window() time.Duration { return e.window }

// Add measures a block and appends it to the window.
func (e *Estimator) Add(b Block) error {
	energy, err := MeanSquare(b)
	if err != nil {
		return err
	}
	e.AddSample(Sample{At: b.CapturedAt, Duration: b.Duration(), Energy: energy})
	return nil
}

// AddSample appends a pre-measured sample. Samples must arrive in capture
// order. A sample with non-finite or negative energy is ignored.
func (e *Estimator) AddSample(s Sample) {
	if math.IsNaN(s.Energy) || math.IsInf(s.Energy, 0) || s.Energy < 0 {
		return
	}
	e.samples = append(e.samples, s)
	e.span += s.Duration
	e.evict()
}

func (e *Estimator) evict() {
	if len(e.samples) == 0 {
		return
	}
	newest := e.samples[len(e.samples)-1].At
	drop := 0
	span := e.span
	for drop < len(e.samples)-1 {
		s := e.samples[drop]
		if span <= e.window && newest.Sub(s.At) < e.window {
			break
		}
		span -= s.Duration
		drop++
	}
	if drop == 0 {
		return
	}
	e.samples = append(e.samples[:0], e.samples[drop:]...)
	e.span = span
}

// Estimate runs the two-pass gate over the window:
//  1. blocks under the absolute gate are set aside as silence;
//  2. the remaining blocks' mean sets a relative threshold, and blocks below
//     it are dropped before the final mean is taken.
//
// Means are weighted by block duration.
func (e *Estimator) Estimate() Estimate {
	est := Estimate{DB: SilentDB, Silent: true, Blocks: len(e.samples), Span: e.span}

	absFloor := DBToEnergy(e.gate.AbsoluteDB)
	var sum, weight float64
	for _, s := range e.samples {
		if s.Energy < absFloor {
			continue
		}
		w := sampleWeight(s)
		sum += s.Energy * w
		weight += w
	}
	if weight == 0 {
		return est
	}

	relFloor := (sum / weight) * DBToEnergy(e.gate.RelativeDB)
	sum, weight = 0, 0
	for _, s := range e.samples {
		if s.Energy < absFloor || s.Energy < relFloor {
			continue
		}
		w := sampleWeight(s)
		sum += s.Energy * w
		weight += w
		est.Gated++
	}
	if weight == 0 {
		return est
	}

	mean := sum / weight
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		return est
	}
	est.DB = EnergyToDB(mean)
	est.Silent = false
	return est
}

// sampleWeight falls back to unit weight for samples with no duration so
// hand-built windows still average sensibly.
func sampleWeight(s Sample) float64 {
	if s.Duration <= 0 {
		return 1
	}
	return s.Duration.Seconds()
}

func (e *Estimator) Len() int            { return len(e.samples) }
func (e *Estimator) Span() time.Duration { return e.span }

// Reset empties the window.
func (e *Estimator) Reset() {
	e.samples = e.samples[:0]
	e.span = 0
}
