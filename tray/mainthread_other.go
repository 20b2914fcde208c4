//go:build !linux && !gui

package tray

import "golang.design/x/hotkey/mainthread"

// runOnMain hops to the OS main thread, which macOS requires for status
// items.
func runOnMain(fn func()) {
	done := make(chan struct{})
	mainthread.Call(func() {
		fn()
		close(done)
	})
	<-done
}
