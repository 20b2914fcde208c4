package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestHarnessConverges(t *testing.T) {
	var out bytes.Buffer
	h, err := newTestHarness("", 20*time.Millisecond, &out)
	if err != nil {
		t.Fatal(err)
	}
	script := strings.Join([]string{
		"TARGET -30",
		"LEVEL -20",
		"SLEEP 1500",
		"STATUS",
		"BOGUS",
		"QUIT",
	}, "\n")
	if err := h.Run(context.Background(), strings.NewReader(script)); err != nil {
		t.Fatal(err)
	}

	got := out.String()
	if !strings.Contains(got, "STATUS mode=") {
		t.Fatalf("no status line:\n%s", got)
	}
	if !strings.Contains(got, `ERR unknown command "BOGUS"`) {
		t.Errorf("unknown command not reported:\n%s", got)
	}
	// -20 dB source against a -30 target asks for -10 dB; the fake started at 0.
	if v, _ := h.sink.VolumeDB(); v >= 0 {
		t.Errorf("volume never moved down: %v", v)
	}
}

func TestHarnessBadNumber(t *testing.T) {
	var out bytes.Buffer
	h, err := newTestHarness("", 20*time.Millisecond, &out)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Run(context.Background(), strings.NewReader("LEVEL loud\nQUIT\n")); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "ERR LEVEL") {
		t.Errorf("output:\n%s", out.String())
	}
}

func TestHarnessReleasesCaptureOnQuit(t *testing.T) {
	var out bytes.Buffer
	h, err := newTestHarness("", 20*time.Millisecond, &out)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Run(context.Background(), strings.NewReader("SLEEP 200\nQUIT\n")); err != nil {
		t.Fatal(err)
	}
	c := h.fake.Last()
	if c == nil {
		t.Fatal("capture never opened")
	}
	if !c.Closed() {
		t.Error("capture stream still open after Run returned")
	}
}
