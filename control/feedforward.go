// Package control turns a loudness estimate into volume commands.
//
// Each tick runs the feed-forward law, the hold/release gate and the slew
// limiter in that order, and the manual-override detector decides whether
// the result may be actuated at all. Nothing here reads back the actuated
// volume to adjust the estimate: capture is assumed to be pre-volume.
package control

import (
	"math"

	"loudctl/volume"
)

// Desired is the feed-forward law: target minus estimate, clamped to the
// device range. ok is false when either input is not finite, meaning no
// change this tick.
func Desired(targetDB, estimateDB float64, r volume.Range) (db float64, ok bool) {
	d := targetDB - estimateDB
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, false
	}
	return r.Clamp(d), true
}
