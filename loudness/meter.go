// Package loudness turns captured audio blocks into a running loudness
// estimate.
//
// The scale is an unweighted mean-square level in dB relative to full scale:
// estimate = 10·log10(mean energy). It is BS.1770-shaped (block energies,
// absolute and relative gating) but applies no K-weighting pre-filter and no
// -0.691 dB offset, so values read close to, but are not, LUFS.
package loudness

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrInvalidBlock = errors.New("invalid audio block")

// Block is one capture callback's worth of interleaved samples normalized
// to [-1, 1].
type Block struct {
	Samples    []float32
	Channels   int
	SampleRate int
	CapturedAt time.Time
}

// Frames returns the number of sample frames (samples per channel).
func (b Block) Frames() int {
	if b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Duration is the wall-clock time the block covers at its nominal rate.
func (b Block) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.Frames()) / float64(b.SampleRate) * float64(time.Second))
}

func (b Block) validate() error {
	switch {
	case len(b.Samples) == 0:
		return fmt.Errorf("%w: empty", ErrInvalidBlock)
	case b.Channels <= 0:
		return fmt.Errorf("%w: %d channels", ErrInvalidBlock, b.Channels)
	case len(b.Samples)%b.Channels != 0:
		return fmt.Errorf("%w: %d samples not divisible by %d channels", ErrInvalidBlock, len(b.Samples), b.Channels)
	case b.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidBlock, b.SampleRate)
	}
	return nil
}

// MeanSquare returns the block's mean-square energy. Multi-channel blocks
// are reduced by averaging the per-channel mean squares, so a signal at the
// same level on every channel reads the same as its mono equivalent.
func MeanSquare(b Block) (float64, error) {
	if err := b.validate(); err != nil {
		return 0, err
	}

	ch := b.Channels
	var sum float64
	for i, s := range b.Samples {
		v := float64(s)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: non-finite sample at %d", ErrInvalidBlock, i)
		}
		sum += v * v
	}
	// sum over all samples / frames = sum of per-channel mean squares
	frames := float64(len(b.Samples) / ch)
	return sum / frames / float64(ch), nil
}

// EnergyToDB converts a mean-square energy to the dB scale, flooring at
// SilentDB.
func EnergyToDB(energy float64) float64 {
	if energy <= 0 || math.IsNaN(energy) {
		return SilentDB
	}
	db := 10 * math.Log10(energy)
	if db < SilentDB {
		return SilentDB
	}
	return db
}

// DBToEnergy is the inverse of EnergyToDB.
func DBToEnergy(db float64) float64 {
	return math.Pow(10, db/10)
}
