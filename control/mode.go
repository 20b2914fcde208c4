package control

import "time"

type Mode int

const (
	ModeTracking Mode = iota
	ModeAdjusting
	ModeSilent
	ModePaused
	ModeDisabled
)

func (m Mode) String() string {
	switch m {
	case ModeTracking:
		return "tracking"
	case ModeAdjusting:
		return "adjusting"
	case ModeSilent:
		return "silent"
	case ModePaused:
		return "paused"
	case ModeDisabled:
		return "disabled"
	}
	return "unknown"
}

// Status is the read-only snapshot published once per tick.
type Status struct {
	Mode       Mode
	VolumeDB   float64 // device level after this tick's actuation
	EstimateDB float64
	TargetDB   float64
	DesiredDB  float64 // feed-forward value; meaningful in Tracking and Adjusting
	Silent     bool
	Holding    bool
	AtMax      bool // wants more gain than the device offers
	CaptureOK  bool

	PausedUntil time.Time
	Err         error // most recent problem, nil when healthy
	At          time.Time
}
