//go:build gui

// Package gui is the fyne front end: a tray menu plus a settings window
// with a live level meter.
package gui

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"loudctl/config"
	"loudctl/control"
	"loudctl/tray"
)

type App struct {
	fyneApp fyne.App
	desk    desktop.App
	store   *config.Store
	onReady func()

	menu        *fyne.Menu
	statusItem  *fyne.MenuItem
	enabledItem *fyne.MenuItem
	loginItem   *fyne.MenuItem

	window       fyne.Window
	meter        *MeterWidget
	statusLabel  *widget.Label
	errLabel     *widget.Label
	targetSlider *widget.Slider
	targetEntry  *widget.Entry
	windowSlider *widget.Slider
	windowLabel  *widget.Label
	enabledCheck *widget.Check

	mu   sync.Mutex
	last control.Status
}

func NewApp(store *config.Store, onReady func()) *App {
	return &App{store: store, onReady: onReady}
}

// Run blocks in the fyne event loop until Quit.
func Run(a *App) error {
	a.fyneApp = app.NewWithID("io.loudctl.gui")
	a.fyneApp.Settings().SetTheme(newPanelTheme())

	if desk, ok := a.fyneApp.(desktop.App); ok {
		a.desk = desk
		a.buildMenu()
		desk.SetSystemTrayMenu(a.menu)
		desk.SetSystemTrayIcon(iconResource(tray.IconGray))
	}
	a.buildSettings()

	tray.Attach(a.setIcon, func(string) {}, a.setStatus, a.setEnabled)

	go a.refreshLoop()
	go a.onReady()

	// settings window stays hidden until asked for
	a.fyneApp.Run()
	return nil
}

func (a *App) Quit() {
	if a.fyneApp != nil {
		fyne.Do(a.fyneApp.Quit)
	}
}

func iconResource(i tray.Icon) fyne.Resource {
	return fyne.NewStaticResource(fmt.Sprintf("tray-%d.png", i), tray.PNG(i))
}

func (a *App) buildMenu() {
	a.statusItem = fyne.NewMenuItem("Starting...", nil)
	a.statusItem.Disabled = true

	a.enabledItem = fyne.NewMenuItem("Enabled", tray.Toggle)
	a.enabledItem.Checked = a.store.Load().Enabled

	a.loginItem = fyne.NewMenuItem("Start on Login", func() {
		want := !tray.LoginEnabled()
		if err := tray.SetLoginEnabled(want); err != nil {
			a.showError(err)
			return
		}
		a.loginItem.Checked = want
		a.menu.Refresh()
	})
	a.loginItem.Checked = tray.LoginEnabled()

	a.menu = fyne.NewMenu("loudctl",
		a.statusItem,
		fyne.NewMenuItemSeparator(),
		a.enabledItem,
		fyne.NewMenuItem("Target +1 dB", func() { tray.Nudge(tray.NudgeStep) }),
		fyne.NewMenuItem("Target -1 dB", func() { tray.Nudge(-tray.NudgeStep) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Settings...", a.ShowSettings),
		a.loginItem,
	)
}

func (a *App) buildSettings() {
	w := a.fyneApp.NewWindow("loudctl")
	a.window = w
	cfg := a.store.Load()

	a.meter = NewMeterWidget()
	a.statusLabel = widget.NewLabel("")
	a.errLabel = widget.NewLabel("")
	a.errLabel.Importance = widget.DangerImportance
	a.errLabel.Hide()

	a.targetSlider = widget.NewSlider(config.MinTargetLUFS, config.MaxTargetLUFS)
	a.targetSlider.Step = 0.5
	a.targetSlider.SetValue(cfg.TargetLUFS)
	a.targetEntry = widget.NewEntry()
	a.targetEntry.SetText(formatDB(cfg.TargetLUFS))
	a.targetSlider.OnChanged = func(v float64) { a.targetEntry.SetText(formatDB(v)) }
	a.targetSlider.OnChangeEnded = func(v float64) { a.apply(a.store.SetTarget(v)) }
	a.targetEntry.OnSubmitted = func(s string) {
		v, err := parseDB(s)
		if err != nil {
			a.showError(err)
			return
		}
		a.apply(a.store.SetTarget(v))
	}

	a.windowSlider = widget.NewSlider(config.MinWindowSeconds, config.MaxWindowSeconds)
	a.windowSlider.Step = 1
	a.windowSlider.SetValue(cfg.WindowSeconds)
	a.windowLabel = widget.NewLabel(formatSeconds(cfg.WindowSeconds))
	a.windowSlider.OnChanged = func(v float64) { a.windowLabel.SetText(formatSeconds(v)) }
	a.windowSlider.OnChangeEnded = func(v float64) { a.apply(a.store.SetWindow(v)) }

	a.enabledCheck = widget.NewCheck("Level output volume", func(on bool) {
		if on != a.store.Load().Enabled {
			a.apply(a.store.SetEnabled(on))
		}
	})
	a.enabledCheck.SetChecked(cfg.Enabled)

	form := widget.NewForm(
		widget.NewFormItem("Target (LUFS)", container.NewBorder(nil, nil, nil, a.targetEntry, a.targetSlider)),
		widget.NewFormItem("Window", container.NewBorder(nil, nil, nil, a.windowLabel, a.windowSlider)),
	)

	w.SetContent(container.NewVBox(
		a.meter,
		a.statusLabel,
		form,
		a.enabledCheck,
		a.errLabel,
	))
	w.Resize(fyne.NewSize(420, 0))
	w.SetCloseIntercept(w.Hide)
}

// ShowSettings brings the settings window up; safe from any goroutine.
func (a *App) ShowSettings() {
	fyne.Do(func() {
		if a.window == nil {
			return
		}
		a.window.Show()
		a.window.RequestFocus()
	})
}

// ConfigChanged mirrors a configuration change made elsewhere (hotkeys,
// tray) into the settings widgets.
func (a *App) ConfigChanged(cfg config.Config) {
	fyne.Do(func() {
		if a.targetSlider == nil {
			return
		}
		a.targetSlider.SetValue(cfg.TargetLUFS)
		a.targetEntry.SetText(formatDB(cfg.TargetLUFS))
		a.windowSlider.SetValue(cfg.WindowSeconds)
		a.enabledCheck.SetChecked(cfg.Enabled)
		a.errLabel.Hide()
	})
}

func (a *App) apply(_ config.Config, err error) {
	if err != nil {
		a.showError(err)
	}
}

func (a *App) showError(err error) {
	fyne.Do(func() {
		a.errLabel.SetText(err.Error())
		a.errLabel.Show()
	})
}

// Publish implements control.StatusSink. Widgets are redrawn by refreshLoop.
func (a *App) Publish(st control.Status) {
	a.mu.Lock()
	a.last = st
	a.mu.Unlock()
}

// refreshLoop redraws the settings window twice a second; the control loop
// ticks faster than anyone can read.
func (a *App) refreshLoop() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		a.mu.Lock()
		st := a.last
		a.mu.Unlock()

		a.meter.Set(st.EstimateDB, st.TargetDB, st.VolumeDB, st.Silent || !st.CaptureOK)
		fyne.Do(func() {
			a.statusLabel.SetText(tray.Text(st, time.Now()))
			a.meter.Refresh()
		})
	}
}

func (a *App) setIcon(i tray.Icon) {
	if a.desk == nil {
		return
	}
	fyne.Do(func() { a.desk.SetSystemTrayIcon(iconResource(i)) })
}

func (a *App) setStatus(text string) {
	if a.statusItem == nil {
		return
	}
	fyne.Do(func() {
		a.statusItem.Label = text
		a.menu.Refresh()
	})
}

func (a *App) setEnabled(on bool) {
	if a.enabledItem == nil {
		return
	}
	fyne.Do(func() {
		a.enabledItem.Checked = on
		a.menu.Refresh()
	})
}

func formatDB(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func formatSeconds(v float64) string {
	return fmt.Sprintf("%.0f s", v)
}

// parseDB accepts "-23", "-23.5" or "-23 LUFS".
func parseDB(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "LUFS"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("target must be a number, got %q", s)
	}
	return v, nil
}
