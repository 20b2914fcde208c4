package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"loudctl/loudness"
)

func TestBlockerEmitsFixedBlocks(t *testing.T) {
	var got []loudness.Block
	b := NewBlocker(CaptureConfig{SampleRate: 1000, Channels: 2}, 100*time.Millisecond, func(bl loudness.Block) {
		got = append(got, bl)
	})

	// 250 frames in uneven writes
	for _, n := range []int{30, 70, 120, 30} {
		b.Write(make([]float32, n*2), 2)
	}
	if len(got) != 2 {
		t.Fatalf("emitted %d blocks, want 2", len(got))
	}
	for _, bl := range got {
		if bl.Frames() != 100 || bl.Channels != 2 || bl.SampleRate != 1000 {
			t.Errorf("block %d frames %d ch %d Hz", bl.Frames(), bl.Channels, bl.SampleRate)
		}
		if bl.Duration() != 100*time.Millisecond {
			t.Errorf("duration %v", bl.Duration())
		}
	}
}

func TestBlockerOwnsEmittedSamples(t *testing.T) {
	var got []loudness.Block
	b := NewBlocker(CaptureConfig{SampleRate: 10, Channels: 1}, time.Second, func(bl loudness.Block) {
		got = append(got, bl)
	})
	src := []float32{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2}
	b.Write(src, 1)
	if len(got) != 2 || got[0].Samples[0] != 1 || got[1].Samples[0] != 2 {
		t.Fatalf("blocks share a buffer: %+v", got)
	}
}

func TestBlockerChannelChangeResets(t *testing.T) {
	var got []loudness.Block
	b := NewBlocker(CaptureConfig{SampleRate: 10, Channels: 2}, time.Second, func(bl loudness.Block) {
		got = append(got, bl)
	})
	b.Write(make([]float32, 10), 2) // half a block
	b.Write(make([]float32, 10), 1) // layout changed: a full mono block
	if len(got) != 1 || got[0].Channels != 1 {
		t.Fatalf("got %d blocks, want one mono block", len(got))
	}
}

func TestFakeToneLevel(t *testing.T) {
	f := NewFakeContext(-20, false)
	chunk, _, _ := f.chunk(0)
	energy, err := loudness.MeanSquare(loudness.Block{Samples: chunk, Channels: 2, SampleRate: DefaultSampleRate})
	if err != nil {
		t.Fatal(err)
	}
	if db := loudness.EnergyToDB(energy); math.Abs(db+20) > 0.2 {
		t.Errorf("tone level %f, want about -20", db)
	}
}

func writeWAV(t *testing.T, samples []int16) string {
	t.Helper()
	hdr := make([]byte, WAVHeaderSize)
	copy(hdr, "RIFF")
	copy(hdr[8:], "WAVEfmt ")
	binary.LittleEndian.PutUint16(hdr[22:], 1)
	binary.LittleEndian.PutUint32(hdr[24:], 16000)
	binary.LittleEndian.PutUint16(hdr[34:], 16)
	body := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(body[i*2:], uint16(s))
	}
	path := filepath.Join(t.TempDir(), "in.wav")
	if err := os.WriteFile(path, append(hdr, body...), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFakeFromWAV(t *testing.T) {
	path := writeWAV(t, []int16{16384, -16384, 0, 32767})
	f, err := NewFakeContextFromWAV(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if cfg := f.Config(); cfg.SampleRate != 16000 || cfg.Channels != 1 {
		t.Errorf("config %+v", cfg)
	}
	chunk, _, done := f.chunk(0)
	if !done {
		t.Error("short file should finish in one chunk")
	}
	if chunk[0] != 0.5 || chunk[1] != -0.5 {
		t.Errorf("samples %v", chunk[:4])
	}
}

type sinkRecorder struct {
	mu     sync.Mutex
	blocks int
	states []error
}

func (s *sinkRecorder) Feed(loudness.Block) bool {
	s.mu.Lock()
	s.blocks++
	s.mu.Unlock()
	return true
}

func (s *sinkRecorder) SetCapture(err error) {
	s.mu.Lock()
	s.states = append(s.states, err)
	s.mu.Unlock()
}

func (s *sinkRecorder) snapshot() (int, []error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocks, append([]error(nil), s.states...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestMonitorRetriesAndRecovers(t *testing.T) {
	fake := NewFakeContext(-20, false)
	fake.FailOpens(2)
	sink := &sinkRecorder{}
	m := &Monitor{
		Context:       fake,
		Config:        fake.Config(),
		BlockDuration: 20 * time.Millisecond,
		StallTimeout:  200 * time.Millisecond,
		RetryInterval: 5 * time.Millisecond,
		Sink:          sink,
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	waitFor(t, "blocks", func() bool { n, _ := sink.snapshot(); return n > 3 })

	_, states := sink.snapshot()
	if len(states) < 3 {
		t.Fatalf("states %v, want two failures then recovery", states)
	}
	if !errors.Is(states[0], errFakeOpen) || !errors.Is(states[1], errFakeOpen) {
		t.Errorf("first states %v", states[:2])
	}
	if states[len(states)-1] != nil {
		t.Errorf("last state %v, want nil", states[len(states)-1])
	}
	if m.Source() != "fake monitor" {
		t.Errorf("source %q", m.Source())
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v", err)
	}
}

func TestMonitorDetectsStall(t *testing.T) {
	fake := NewFakeContext(-20, false)
	sink := &sinkRecorder{}
	m := &Monitor{
		Context:       fake,
		Config:        fake.Config(),
		BlockDuration: 20 * time.Millisecond,
		StallTimeout:  50 * time.Millisecond,
		RetryInterval: 5 * time.Millisecond,
		Sink:          sink,
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	waitFor(t, "first capture", func() bool { return fake.Last() != nil })
	first := fake.Last()
	first.Stall()

	waitFor(t, "stall detection", func() bool {
		_, states := sink.snapshot()
		for _, s := range states {
			if errors.Is(s, ErrStalled) {
				return true
			}
		}
		return false
	})
	waitFor(t, "reopen", func() bool { return fake.Last() != first })
}

func TestMonitorsFirst(t *testing.T) {
	in := []DeviceInfo{{Name: "mic"}, {Name: "out", Monitor: true}, {Name: "webcam"}}
	got := MonitorsFirst(in)
	if got[0].Name != "out" || got[1].Name != "mic" || got[2].Name != "webcam" {
		t.Errorf("order %v", got)
	}
}

func TestFindDevice(t *testing.T) {
	devs := []DeviceInfo{{ID: "alsa_output.pci.monitor", Name: "Monitor of Built-in"}}
	if FindDevice(devs, "monitor of built-in") == nil {
		t.Error("name match should ignore case")
	}
	if FindDevice(devs, "alsa_output.pci.monitor") == nil {
		t.Error("ID match failed")
	}
	if FindDevice(devs, "nope") != nil {
		t.Error("unexpected match")
	}
}
