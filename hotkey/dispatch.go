package hotkey

import (
	"context"
	"time"
)

// StepDB is how far one press moves the target.
const StepDB = 1.0

// Target is the part of the settings store shortcuts act on.
type Target interface {
	NudgeTarget(delta float64) error
	ToggleEnabled() error
}

// Dispatch applies actions from hk to t until ctx is done. Toggle presses
// closer together than debounce are dropped so a bouncing key cannot flip
// the controller twice.
func Dispatch(ctx context.Context, hk Hotkey, t Target, debounce time.Duration, onErr func(Action, error)) {
	var lastToggle time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case a := <-hk.Actions():
			var err error
			switch a {
			case ActionTargetUp:
				err = t.NudgeTarget(StepDB)
			case ActionTargetDown:
				err = t.NudgeTarget(-StepDB)
			case ActionToggle:
				now := time.Now()
				if !lastToggle.IsZero() && now.Sub(lastToggle) < debounce {
					continue
				}
				lastToggle = now
				err = t.ToggleEnabled()
			}
			if err != nil && onErr != nil {
				onErr(a, err)
			}
		}
	}
}
