//go:build !gui

package tray

import (
	"fyne.io/systray"
)

var (
	mStatus   *systray.MenuItem
	mEnabled  *systray.MenuItem
	mLogin    *systray.MenuItem
	menuReady = make(chan struct{})
)

// Init starts the tray and returns a channel closed when the user picks
// Quit.
func Init() <-chan struct{} {
	start, _ := systray.RunWithExternalLoop(onReady, onExit)
	runOnMain(start)
	return quitCh
}

func onReady() {
	systray.SetIcon(PNG(IconGray))
	systray.SetTitle("")
	systray.SetTooltip("loudctl")

	mStatus = systray.AddMenuItem("Starting...", "Current loudness and volume")
	mStatus.Disable()
	systray.AddSeparator()

	mEnabled = systray.AddMenuItemCheckbox("Enabled", "Level the output volume", true)
	mUp := systray.AddMenuItem("Target +1 dB", "Make everything louder")
	mDown := systray.AddMenuItem("Target -1 dB", "Make everything quieter")
	systray.AddSeparator()

	var mSettings *systray.MenuItem
	if settingsFn != nil {
		mSettings = systray.AddMenuItem("Settings...", "Open the settings window")
	}
	mLogin = systray.AddMenuItemCheckbox("Start on Login", "Launch loudctl when you log in", loginOn)
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit loudctl")

	close(menuReady)

	go func() {
		for {
			select {
			case <-mEnabled.ClickedCh:
				if toggleFn != nil {
					toggleFn()
				}
			case <-mUp.ClickedCh:
				if nudgeFn != nil {
					nudgeFn(NudgeStep)
				}
			case <-mDown.ClickedCh:
				if nudgeFn != nil {
					nudgeFn(-NudgeStep)
				}
			case <-settingsClicked(mSettings):
				settingsFn()
			case <-mLogin.ClickedCh:
				toggleLogin()
			case <-mQuit.ClickedCh:
				Quit()
				return
			}
		}
	}()
}

// settingsClicked returns a nil channel, which never fires, when there is
// no settings item.
func settingsClicked(m *systray.MenuItem) <-chan struct{} {
	if m == nil {
		return nil
	}
	return m.ClickedCh
}

func toggleLogin() {
	want := !mLogin.Checked()
	if loginCb != nil {
		if err := loginCb(want); err != nil {
			updateTooltip("loudctl | " + err.Error())
			return
		}
	}
	if want {
		mLogin.Check()
	} else {
		mLogin.Uncheck()
	}
}

func onExit() {
	Quit()
}

func ready() bool {
	select {
	case <-menuReady:
		return true
	default:
		return false
	}
}

func updateIcon(i Icon) {
	systray.SetIcon(PNG(i))
}

func updateTooltip(msg string) {
	systray.SetTooltip(msg)
}

func updateStatusTitle(text string) {
	if ready() {
		mStatus.SetTitle(text)
	}
}

func updateEnabled(on bool) {
	if !ready() {
		return
	}
	if on {
		mEnabled.Check()
	} else {
		mEnabled.Uncheck()
	}
}
