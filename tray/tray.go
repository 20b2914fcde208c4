// Package tray shows the controller state as a system tray icon with a
// small menu.
package tray

import (
	"sync"
	"time"

	"loudctl/control"
)

var (
	quitCh    = make(chan struct{})
	closeOnce sync.Once

	toggleFn   func()
	settingsFn func()
	nudgeFn    func(delta float64)

	loginOn bool
	loginCb func(bool) error

	stateMu   sync.Mutex
	lastIcon  = Icon(-1)
	lastTip   string
	lastText  string
	enabledOn bool
)

// NudgeStep is the target change applied by the menu's +/- items.
const NudgeStep = 1.0

func OnToggle(fn func()) { toggleFn = fn }

func OnSettings(fn func()) { settingsFn = fn }

func OnNudge(fn func(delta float64)) { nudgeFn = fn }

// SetLogin seeds the "Start on Login" checkbox; call before Init.
func SetLogin(on bool) { loginOn = on }

func OnLogin(fn func(bool) error) { loginCb = fn }

// Publish implements control.StatusSink. It only touches the tray when
// something visible changed.
func Publish(st control.Status) {
	icon := IconFor(st)
	tip := Tooltip(st)
	text := Text(st, time.Now())
	enabled := st.Mode != control.ModeDisabled

	stateMu.Lock()
	iconChanged := icon != lastIcon
	tipChanged := tip != lastTip
	textChanged := text != lastText
	enabledChanged := enabled != enabledOn
	lastIcon, lastTip, lastText, enabledOn = icon, tip, text, enabled
	stateMu.Unlock()

	if iconChanged {
		updateIcon(icon)
	}
	if tipChanged {
		updateTooltip(tip)
	}
	if textChanged {
		updateStatusTitle(text)
	}
	if enabledChanged {
		updateEnabled(enabled)
	}
}

// Sink adapts the package-level tray to control.StatusSink.
type Sink struct{}

func (Sink) Publish(st control.Status) { Publish(st) }

func Quit() {
	closeOnce.Do(func() { close(quitCh) })
}
