// Package volume reads and sets the system output level in dB.
package volume

import (
	"errors"
	"math"
)

var ErrUnsupported = errors.New("volume control not supported on this platform")

// Range is the span of levels a device accepts, in dB.
type Range struct {
	MinDB float64
	MaxDB float64
}

// DefaultRange is the span exposed for the pulse cubic volume curve between
// 10% and 100% of nominal.
var DefaultRange = Range{MinDB: -60, MaxDB: 0}

func (r Range) Clamp(db float64) float64 {
	return max(r.MinDB, min(r.MaxDB, db))
}

func (r Range) Contains(db float64) bool {
	return db >= r.MinDB && db <= r.MaxDB
}

// Device is an output whose level can be read and set.
type Device interface {
	Name() string
	VolumeDB() (float64, error)
	SetVolumeDB(db float64) error
	Range() (Range, error)
	Close()
}

type SinkInfo struct {
	ID      string
	Name    string
	Default bool
}

// pulse scales channel volumes so that norm is unity gain and the perceived
// curve is cubic: amplitude = (v/norm)^3.
const pulseNorm = 0x10000

// RawToDB converts a pulse channel volume to dB. Zero maps to -Inf.
func RawToDB(v uint32) float64 {
	if v == 0 {
		return math.Inf(-1)
	}
	return 60 * math.Log10(float64(v)/pulseNorm)
}

// DBToRaw is the inverse of RawToDB, rounded to the nearest step.
func DBToRaw(db float64) uint32 {
	if math.IsInf(db, -1) || math.IsNaN(db) {
		return 0
	}
	v := math.Round(pulseNorm * math.Pow(10, db/60))
	if v > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}

// averageRaw reduces per-channel volumes to one level. Balance is not
// preserved by the controller; every channel is set to the same value.
func averageRaw(vs []uint32) uint32 {
	if len(vs) == 0 {
		return 0
	}
	var sum uint64
	for _, v := range vs {
		sum += uint64(v)
	}
	return uint32(sum / uint64(len(vs)))
}
