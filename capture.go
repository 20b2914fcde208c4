package main

import (
	"context"
	"time"

	"loudctl/audio"
)

const captureReleaseTimeout = 3 * time.Second

// startCapture runs mon until ctx is cancelled. The returned wait blocks
// until the monitor has released its stream, or timeout passes, and reports
// which happened.
func startCapture(ctx context.Context, mon *audio.Monitor) (wait func(timeout time.Duration) bool) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		mon.Run(ctx)
	}()
	return func(timeout time.Duration) bool {
		select {
		case <-done:
			return true
		case <-time.After(timeout):
			return false
		}
	}
}
