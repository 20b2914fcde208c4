package main

import (
	"context"
	"sync"

	"loudctl/control"
)

// statusFanout implements control.StatusSink for several displays. Each
// subscriber has a one-slot mailbox, so a slow display only ever sees the
// newest status and never holds up the control loop.
type statusFanout struct {
	mu   sync.Mutex
	subs []chan control.Status
}

func newStatusFanout() *statusFanout {
	return &statusFanout{}
}

// Subscribe runs fn for each status on its own goroutine until ctx is done.
func (f *statusFanout) Subscribe(ctx context.Context, fn func(control.Status)) {
	ch := make(chan control.Status, 1)
	f.mu.Lock()
	f.subs = append(f.subs, ch)
	f.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case st := <-ch:
				fn(st)
			}
		}
	}()
}

func (f *statusFanout) Publish(st control.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- st:
			continue
		default:
		}
		// full: replace the stale status
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
		}
	}
}
