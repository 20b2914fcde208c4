package tray

import (
	"fmt"
	"math"
	"time"

	"loudctl/control"
)

type Icon int

const (
	IconGreen  Icon = iota // on target
	IconYellow             // ramping toward target
	IconGray               // disabled, silent or no capture
	IconPaused             // manual override cooldown
)

// IconFor picks the tray colour for a status.
func IconFor(st control.Status) Icon {
	switch {
	case st.Mode == control.ModePaused:
		return IconPaused
	case st.Mode == control.ModeDisabled, st.Mode == control.ModeSilent, !st.CaptureOK:
		return IconGray
	case st.Mode == control.ModeAdjusting, math.Abs(st.DesiredDB-st.VolumeDB) > 1:
		return IconYellow
	}
	return IconGreen
}

// Text is the one-line status shown at the top of the tray menu and in the
// settings window.
func Text(st control.Status, now time.Time) string {
	switch st.Mode {
	case control.ModeDisabled:
		return fmt.Sprintf("Disabled | Target: %+.0f LUFS", st.TargetDB)
	case control.ModeSilent:
		if !st.CaptureOK {
			return fmt.Sprintf("No capture | Target: %+.0f LUFS", st.TargetDB)
		}
		return fmt.Sprintf("Silent | Target: %+.0f LUFS", st.TargetDB)
	case control.ModePaused:
		left := max(st.PausedUntil.Sub(now), 0).Round(time.Second)
		return fmt.Sprintf("Manual | Vol: %+.0f dB | resumes in %s", st.VolumeDB, left)
	}
	if st.AtMax {
		return fmt.Sprintf("Src: %+.0f | Vol: %+.0f dB | AT MAX", st.EstimateDB, st.VolumeDB)
	}
	return fmt.Sprintf("Src: %+.0f | Vol: %+.0f dB | Target: %+.0f", st.EstimateDB, st.VolumeDB, st.TargetDB)
}

// Tooltip is the hover text for the tray icon.
func Tooltip(st control.Status) string {
	switch st.Mode {
	case control.ModeDisabled:
		return fmt.Sprintf("loudctl | Disabled | T:%+.0f", st.TargetDB)
	case control.ModeSilent:
		return fmt.Sprintf("loudctl | Silent | T:%+.0f", st.TargetDB)
	}
	manual := ""
	if st.Mode == control.ModePaused {
		manual = " | MANUAL"
	}
	return fmt.Sprintf("loudctl | Src:%+.0f Vol:%+.0fdB T:%+.0f%s", st.EstimateDB, st.VolumeDB, st.TargetDB, manual)
}
