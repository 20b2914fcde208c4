package audio

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"loudctl/log"
	"loudctl/loudness"
)

var ErrStalled = errors.New("capture stalled")

const (
	DefaultStallTimeout  = 3 * time.Second
	DefaultRetryInterval = time.Second
)

// BlockSink is where captured blocks and capture health go.
type BlockSink interface {
	Feed(b loudness.Block) bool
	SetCapture(err error)
}

// Monitor keeps a capture stream open, reopening it after failures or when
// it stops delivering.
type Monitor struct {
	Context       Context
	Device        *DeviceInfo
	Config        CaptureConfig
	BlockDuration time.Duration
	StallTimeout  time.Duration
	RetryInterval time.Duration
	Sink          BlockSink

	// OnState, if set, is told whenever capture comes up or goes down.
	OnState func(up bool, source string)

	lastBlock atomic.Int64
	name      atomic.Pointer[string]
}

func (m *Monitor) defaults() {
	if m.Config.SampleRate == 0 || m.Config.Channels == 0 {
		m.Config = DefaultCaptureConfig()
	}
	if m.BlockDuration <= 0 {
		m.BlockDuration = DefaultBlockDuration
	}
	if m.StallTimeout <= 0 {
		m.StallTimeout = DefaultStallTimeout
	}
	if m.RetryInterval <= 0 {
		m.RetryInterval = DefaultRetryInterval
	}
}

// Source returns the name of the stream currently open, or "" when down.
func (m *Monitor) Source() string {
	if p := m.name.Load(); p != nil {
		return *p
	}
	return ""
}

// Run captures until ctx is cancelled. It never returns a capture error;
// failures are reported to the sink and retried.
func (m *Monitor) Run(ctx context.Context) error {
	m.defaults()
	var downSince time.Time
	for {
		capture, err := m.open()
		if err == nil {
			name := capture.DeviceName()
			m.name.Store(&name)
			if !downSince.IsZero() {
				log.CaptureRestored(name, time.Since(downSince))
				downSince = time.Time{}
			}
			m.Sink.SetCapture(nil)
			m.notify(true, name)

			err = m.watch(ctx)
			capture.ClearCallback()
			capture.Stop()
			capture.Close()
			m.name.Store(nil)
			if ctx.Err() != nil {
				return nil
			}
		}

		if downSince.IsZero() {
			downSince = time.Now()
			log.CaptureLost(err)
			m.notify(false, "")
		}
		m.Sink.SetCapture(err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(m.RetryInterval):
		}
	}
}

func (m *Monitor) notify(up bool, name string) {
	if m.OnState != nil {
		m.OnState(up, name)
	}
}

func (m *Monitor) open() (CaptureDevice, error) {
	capture, err := m.Context.NewCapture(m.Device, m.Config)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	blocker := NewBlocker(m.Config, m.BlockDuration, func(b loudness.Block) {
		m.lastBlock.Store(b.CapturedAt.UnixNano())
		m.Sink.Feed(b)
	})
	capture.SetCallback(blocker.Write)
	m.lastBlock.Store(time.Now().UnixNano())
	if err := capture.Start(); err != nil {
		capture.ClearCallback()
		capture.Close()
		return nil, fmt.Errorf("start capture: %w", err)
	}
	return capture, nil
}

// watch blocks until ctx is done or no block arrived within StallTimeout.
func (m *Monitor) watch(ctx context.Context) error {
	t := time.NewTicker(max(m.StallTimeout/4, time.Millisecond))
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-t.C:
			last := time.Unix(0, m.lastBlock.Load())
			if now.Sub(last) > m.StallTimeout {
				return fmt.Errorf("%w: no audio for %v", ErrStalled, now.Sub(last).Round(time.Millisecond))
			}
		}
	}
}
