//go:build !linux

package main

import (
	"os"
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	// Set up crash logging early, before any CGO code runs
	initCrashLog()

	if hasFlag(os.Args[1:], "--gui") {
		initGUI() // takes main thread, calls run() in goroutine
		return
	}
	mainthread.Init(run)
}
