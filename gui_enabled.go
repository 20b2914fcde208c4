//go:build gui

package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"loudctl/audio"
	"loudctl/config"
	"loudctl/gui"
	"loudctl/tray"
)

var (
	guiApp   *gui.App
	guiStore *config.Store
)

// Audio context initialized on main thread for macOS Core Audio compatibility
var guiAudioCtx audio.Context

func initGUI() {
	var err error
	guiAudioCtx, err = audio.NewContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing audio context: %v\n", err)
		os.Exit(1)
	}

	// Lock this goroutine to OS thread for Fyne
	runtime.LockOSThread()

	// run() picks this store up so the window and the loop share settings
	guiStore = config.NewStore(config.Load())
	guiApp = gui.NewApp(guiStore, func() {
		run()
	})
	if err := gui.Run(guiApp); err != nil {
		guiAudioCtx.Close()
		panic(err)
	}
}

// guiAttach points the settings window at the live store and status feed.
func guiAttach(ctx context.Context, fan *statusFanout) {
	if guiApp == nil {
		return
	}
	tray.OnSettings(guiApp.ShowSettings)
	fan.Subscribe(ctx, guiApp.Publish)
}

func guiConfigChanged(c config.Config) {
	if guiApp != nil {
		guiApp.ConfigChanged(c)
	}
}

func guiQuit() {
	if guiApp != nil {
		guiApp.Quit()
	}
}
