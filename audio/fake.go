package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
	"time"
)

const (
	WAVHeaderSize = 44
	fakeFrameSize = 1024
	fakeToneHz    = 440
)

var errFakeOpen = errors.New("fake capture unavailable")

// FakeContext plays a synthetic tone, or a WAV file, as if it were the
// output monitor.
type FakeContext struct {
	mu        sync.Mutex
	pcm       []float32 // interleaved
	channels  int
	rate      int
	loop      bool
	realtime  bool
	failOpens int
	last      *FakeCapture
}

// NewFakeContext returns a context producing a looping stereo 440 Hz tone
// whose mean-square level is levelDB.
func NewFakeContext(levelDB float64, realtime bool) *FakeContext {
	f := &FakeContext{channels: DefaultChannels, rate: DefaultSampleRate, loop: true, realtime: realtime}
	f.SetLevel(levelDB)
	return f
}

// NewFakeContextFromWAV plays a 16-bit PCM WAV once, then silence.
func NewFakeContextFromWAV(path string, realtime bool) (*FakeContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < WAVHeaderSize {
		return nil, fmt.Errorf("%s: too short for a WAV header", path)
	}
	channels := int(binary.LittleEndian.Uint16(data[22:24]))
	rate := int(binary.LittleEndian.Uint32(data[24:28]))
	bits := binary.LittleEndian.Uint16(data[34:36])
	if bits != 16 || channels <= 0 || rate <= 0 {
		return nil, fmt.Errorf("%s: want 16-bit PCM, got %d bits, %d channels, %d Hz", path, bits, channels, rate)
	}
	body := data[WAVHeaderSize:]
	pcm := make([]float32, len(body)/2)
	for i := range pcm {
		pcm[i] = float32(int16(binary.LittleEndian.Uint16(body[i*2:]))) / 32768
	}
	return &FakeContext{pcm: pcm, channels: channels, rate: rate, realtime: realtime}, nil
}

// SetLevel regenerates the tone at a new level; 0 amplitude below the
// silent floor.
func (f *FakeContext) SetLevel(db float64) {
	amp := 0.0
	if db > -90 {
		// mean square of a sine is amp²/2
		amp = math.Sqrt(2 * math.Pow(10, db/10))
	}
	period := f.rate / fakeToneHz
	frames := period * 100
	pcm := make([]float32, frames*f.channels)
	for i := range frames {
		v := float32(amp * math.Sin(2*math.Pi*float64(i)/float64(period)))
		for c := range f.channels {
			pcm[i*f.channels+c] = v
		}
	}
	f.mu.Lock()
	f.pcm = pcm
	f.mu.Unlock()
}

// FailOpens makes the next n NewCapture calls fail.
func (f *FakeContext) FailOpens(n int) {
	f.mu.Lock()
	f.failOpens = n
	f.mu.Unlock()
}

// Last returns the most recently opened capture.
func (f *FakeContext) Last() *FakeCapture {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func (f *FakeContext) Config() CaptureConfig {
	return CaptureConfig{SampleRate: uint32(f.rate), Channels: uint32(f.channels)}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake monitor", Monitor: true}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOpens > 0 {
		f.failOpens--
		return nil, errFakeOpen
	}
	c := &FakeCapture{ctx: f, audioDone: make(chan struct{})}
	f.last = c
	return c, nil
}

func (f *FakeContext) chunk(pos int) ([]float32, int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := fakeFrameSize * f.channels
	out := make([]float32, n)
	if len(f.pcm) == 0 {
		return out, pos, false
	}
	if f.loop {
		for i := range out {
			out[i] = f.pcm[(pos+i)%len(f.pcm)]
		}
		return out, (pos + n) % len(f.pcm), false
	}
	if pos >= len(f.pcm) {
		return out, pos, true
	}
	copy(out, f.pcm[pos:])
	return out, pos + n, pos+n >= len(f.pcm)
}

type FakeCapture struct {
	ctx       *FakeContext
	audioDone chan struct{}

	mu       sync.Mutex
	cb       DataCallback
	stalled  bool
	closed   bool
	stopCh   chan struct{}
	feedDone chan struct{}
}

// AudioDone is closed once a WAV source has played to the end.
func (f *FakeCapture) AudioDone() <-chan struct{} { return f.audioDone }

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string { return "fake monitor" }

// Stall stops delivering audio without closing the stream.
func (f *FakeCapture) Stall() {
	f.mu.Lock()
	f.stalled = true
	f.mu.Unlock()
}

func (f *FakeCapture) Start() error {
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})

	interval := time.Millisecond
	if f.ctx.realtime {
		interval = time.Duration(fakeFrameSize) * time.Second / time.Duration(f.ctx.rate)
	}
	channels := f.ctx.channels

	go func() {
		defer close(f.feedDone)
		pos := 0
		finished := false
		for {
			select {
			case <-f.stopCh:
				return
			case <-time.After(interval):
			}

			f.mu.Lock()
			cb, stalled := f.cb, f.stalled
			f.mu.Unlock()
			if cb == nil || stalled {
				continue
			}

			var chunk []float32
			var done bool
			chunk, pos, done = f.ctx.chunk(pos)
			cb(chunk, channels)
			if done && !finished {
				finished = true
				close(f.audioDone)
			}
		}
	}()
	return nil
}

func (f *FakeCapture) Stop() {
	if f.stopCh == nil {
		return
	}
	select {
	case <-f.stopCh:
	default:
		close(f.stopCh)
	}
	<-f.feedDone
}

func (f *FakeCapture) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

// Closed reports whether the stream was released.
func (f *FakeCapture) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
