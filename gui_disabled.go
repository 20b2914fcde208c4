//go:build !gui

package main

import (
	"context"

	"loudctl/audio"
	"loudctl/config"
)

// Stubs for non-GUI builds
var (
	guiAudioCtx audio.Context
	guiStore    *config.Store
)

func initGUI() {
	panic("loudctl: built without GUI support (rebuild with -tags gui)")
}

func guiAttach(context.Context, *statusFanout) {}

func guiConfigChanged(config.Config) {}

func guiQuit() {}
