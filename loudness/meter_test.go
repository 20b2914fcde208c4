package loudness

import (
	"errors"
	"math"
	"testing"
	"time"
)

const testRate = 48000

// makeBlock returns a block of a constant-amplitude square wave, whose mean
// square is exactly amp².
func makeBlock(frames, channels int, amp float32, at time.Time) Block {
	s := make([]float32, frames*channels)
	for i := range s {
		if (i/channels)%2 == 0 {
			s[i] = amp
		} else {
			s[i] = -amp
		}
	}
	return Block{Samples: s, Channels: channels, SampleRate: testRate, CapturedAt: at}
}

func TestMeanSquareMono(t *testing.T) {
	got, err := MeanSquare(makeBlock(960, 1, 0.5, time.Time{}))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-0.25) > 1e-9 {
		t.Errorf("got %f, want 0.25", got)
	}
}

func TestMeanSquareStereoMatchesMono(t *testing.T) {
	mono, _ := MeanSquare(makeBlock(960, 1, 0.3, time.Time{}))
	stereo, err := MeanSquare(makeBlock(960, 2, 0.3, time.Time{}))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(mono-stereo) > 1e-9 {
		t.Errorf("stereo %f != mono %f", stereo, mono)
	}
}

func TestMeanSquareAveragesChannels(t *testing.T) {
	// left at 0.5, right silent: average of 0.25 and 0
	b := Block{Channels: 2, SampleRate: testRate}
	for range 100 {
		b.Samples = append(b.Samples, 0.5, 0)
	}
	got, err := MeanSquare(b)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-0.125) > 1e-9 {
		t.Errorf("got %f, want 0.125", got)
	}
}

func TestMeanSquareInvalid(t *testing.T) {
	cases := map[string]Block{
		"empty":       {Channels: 1, SampleRate: testRate},
		"no channels": {Samples: []float32{0.1}, SampleRate: testRate},
		"ragged":      {Samples: []float32{0.1, 0.2, 0.3}, Channels: 2, SampleRate: testRate},
		"no rate":     {Samples: []float32{0.1}, Channels: 1},
		"negative ch": {Samples: []float32{0.1}, Channels: -1, SampleRate: testRate},
		"nan sample":  {Samples: []float32{0.1, float32(math.NaN())}, Channels: 1, SampleRate: testRate},
		"inf sample":  {Samples: []float32{float32(math.Inf(1)), 0.1}, Channels: 2, SampleRate: testRate},
	}
	for name, b := range cases {
		if _, err := MeanSquare(b); !errors.Is(err, ErrInvalidBlock) {
			t.Errorf("%s: got %v, want ErrInvalidBlock", name, err)
		}
	}
}

func TestBlockDuration(t *testing.T) {
	b := makeBlock(9600, 2, 0.1, time.Time{})
	if d := b.Duration(); d != 200*time.Millisecond {
		t.Errorf("duration %v, want 200ms", d)
	}
}

func TestEnergyToDB(t *testing.T) {
	if got := EnergyToDB(1); got != 0 {
		t.Errorf("full scale: got %f", got)
	}
	if got := EnergyToDB(0.01); math.Abs(got+20) > 1e-9 {
		t.Errorf("0.01: got %f, want -20", got)
	}
	if got := EnergyToDB(0); got != SilentDB {
		t.Errorf("zero: got %f, want %f", got, SilentDB)
	}
	if got := EnergyToDB(1e-30); got != SilentDB {
		t.Errorf("tiny: got %f, want floor", got)
	}
}
