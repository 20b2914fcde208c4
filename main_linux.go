//go:build linux

package main

import "os"

func main() {
	// Set up crash logging early, before any CGO code runs
	initCrashLog()

	if hasFlag(os.Args[1:], "--gui") {
		initGUI()
		return
	}
	run()
}
