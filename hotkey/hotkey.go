// Package hotkey listens for the global shortcuts that adjust the target
// without opening any window.
package hotkey

// Action is a shortcut the user pressed.
type Action int

const (
	ActionTargetUp   Action = iota // Ctrl+Shift+Up
	ActionTargetDown               // Ctrl+Shift+Down
	ActionToggle                   // Ctrl+Shift+L
)

func (a Action) String() string {
	switch a {
	case ActionTargetUp:
		return "target_up"
	case ActionTargetDown:
		return "target_down"
	case ActionToggle:
		return "toggle"
	}
	return "unknown"
}

// Combos describes the bindings for help text and diagnostics.
const Combos = "Ctrl+Shift+Up / Ctrl+Shift+Down (target), Ctrl+Shift+L (enable)"

type Hotkey interface {
	Register() error
	Unregister()
	Actions() <-chan Action
}

// send delivers without blocking; a burst of presses while the consumer is
// busy collapses.
func send(ch chan Action, a Action) {
	select {
	case ch <- a:
	default:
	}
}
