//go:build gui

package tray

// In GUI builds the fyne app owns the tray icon; these hooks let it follow
// the same state.

var (
	iconHook    func(Icon)
	tooltipHook func(string)
	statusHook  func(string)
	enabledHook func(bool)
)

// Attach routes tray updates to the GUI.
func Attach(icon func(Icon), tooltip, status func(string), enabled func(bool)) {
	iconHook, tooltipHook, statusHook, enabledHook = icon, tooltip, status, enabled
}

func Init() <-chan struct{} { return quitCh }

// Toggle, Nudge, OpenSettings and SetLoginEnabled run the callbacks
// registered by main, for the GUI menu.
func Toggle() {
	if toggleFn != nil {
		toggleFn()
	}
}

func Nudge(delta float64) {
	if nudgeFn != nil {
		nudgeFn(delta)
	}
}

func OpenSettings() {
	if settingsFn != nil {
		settingsFn()
	}
}

func LoginEnabled() bool { return loginOn }

func SetLoginEnabled(on bool) error {
	if loginCb != nil {
		if err := loginCb(on); err != nil {
			return err
		}
	}
	loginOn = on
	return nil
}

func updateIcon(i Icon) {
	if iconHook != nil {
		iconHook(i)
	}
}

func updateTooltip(s string) {
	if tooltipHook != nil {
		tooltipHook(s)
	}
}

func updateStatusTitle(s string) {
	if statusHook != nil {
		statusHook(s)
	}
}

func updateEnabled(on bool) {
	if enabledHook != nil {
		enabledHook(on)
	}
}
