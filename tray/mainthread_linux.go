//go:build linux && !gui

package tray

func runOnMain(fn func()) { fn() }
