package audio

import (
	"time"

	"loudctl/loudness"
)

// DefaultBlockDuration is the length of one loudness measurement block.
const DefaultBlockDuration = 200 * time.Millisecond

// Blocker slices the capture stream into fixed-length blocks. Write is
// called from the capture callback; emit receives a block it owns.
type Blocker struct {
	rate     int
	channels int
	frames   int
	buf      []float32
	emit     func(loudness.Block)
	now      func() time.Time
}

func NewBlocker(cfg CaptureConfig, blockDur time.Duration, emit func(loudness.Block)) *Blocker {
	b := &Blocker{
		rate:     int(cfg.SampleRate),
		channels: int(cfg.Channels),
		emit:     emit,
		now:      time.Now,
	}
	b.frames = max(int(time.Duration(b.rate)*blockDur/time.Second), 1)
	b.buf = make([]float32, 0, b.frames*max(b.channels, 1))
	return b
}

func (b *Blocker) Write(samples []float32, channels int) {
	if channels <= 0 {
		return
	}
	if channels != b.channels {
		// stream reopened with a different layout; partial block is useless
		b.channels = channels
		b.buf = b.buf[:0]
	}
	want := b.frames * b.channels
	for len(samples) > 0 {
		n := min(want-len(b.buf), len(samples))
		b.buf = append(b.buf, samples[:n]...)
		samples = samples[n:]
		if len(b.buf) == want {
			out := make([]float32, want)
			copy(out, b.buf)
			b.buf = b.buf[:0]
			b.emit(loudness.Block{
				Samples:    out,
				Channels:   b.channels,
				SampleRate: b.rate,
				CapturedAt: b.now(),
			})
		}
	}
}

// Reset drops any partial block.
func (b *Blocker) Reset() {
	b.buf = b.buf[:0]
}
