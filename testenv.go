package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"loudctl/audio"
	"loudctl/config"
	"loudctl/control"
	"loudctl/log"
	"loudctl/volume"
)

// testHarness drives the real capture supervisor and control loop against a
// synthetic source and an in-memory volume, scripted line by line.
type testHarness struct {
	fake   *audio.FakeContext
	sink   *volume.Fake
	store  *config.Store
	driver *control.Driver
	out    io.Writer
}

func newTestHarness(wavPath string, tick time.Duration, out io.Writer) (*testHarness, error) {
	var fake *audio.FakeContext
	if wavPath != "" {
		var err error
		if fake, err = audio.NewFakeContextFromWAV(wavPath, true); err != nil {
			return nil, err
		}
	} else {
		fake = audio.NewFakeContext(-20, true)
	}
	h := &testHarness{
		fake:  fake,
		sink:  volume.NewFake(0),
		store: config.NewStore(config.Default()),
		out:   out,
	}
	h.driver = control.NewDriver(h.store, h.sink, control.WithTick(tick))
	return h, nil
}

// Run starts capture and the loop, then executes commands from r until QUIT
// or EOF. Commands:
//
//	LEVEL <db>       change the synthetic source level
//	EXTERNAL <db>    simulate the user moving the volume
//	TARGET <lufs>    set the target
//	TOGGLE           flip enabled
//	SLEEP <ms>       wait
//	WAIT_AUDIO_DONE  wait for a WAV source to finish
//	STATUS           print one status line
//	QUIT
func (h *testHarness) Run(ctx context.Context, r io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	mon := &audio.Monitor{Context: h.fake, Config: h.fake.Config(), Sink: h.driver}
	waitCapture := startCapture(ctx, mon)
	defer waitCapture(captureReleaseTimeout)
	loopDone := make(chan error, 1)
	go func() { loopDone <- h.driver.Run(ctx) }()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		cmd, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		switch cmd {
		case "":
		case "LEVEL", "EXTERNAL", "TARGET", "SLEEP":
			v, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
			if err != nil {
				fmt.Fprintf(h.out, "ERR %s: %v\n", cmd, err)
				continue
			}
			h.numeric(cmd, v)
		case "TOGGLE":
			h.store.ToggleEnabled()
		case "WAIT_AUDIO_DONE":
			if c := h.fake.Last(); c != nil {
				<-c.AudioDone()
			}
		case "STATUS":
			h.printStatus(h.driver.Snapshot())
		case "QUIT":
			cancel()
			return <-loopDone
		default:
			fmt.Fprintf(h.out, "ERR unknown command %q\n", cmd)
		}
	}
	cancel()
	if err := <-loopDone; err != nil {
		return err
	}
	return scanner.Err()
}

func (h *testHarness) numeric(cmd string, v float64) {
	switch cmd {
	case "LEVEL":
		h.fake.SetLevel(v)
	case "EXTERNAL":
		h.sink.SetExternal(v)
	case "TARGET":
		if _, err := h.store.SetTarget(v); err != nil {
			fmt.Fprintf(h.out, "ERR TARGET: %v\n", err)
		}
	case "SLEEP":
		time.Sleep(time.Duration(v * float64(time.Millisecond)))
	}
}

func (h *testHarness) printStatus(st control.Status) {
	line := fmt.Sprintf("STATUS mode=%s vol=%.1f est=%.1f target=%.1f silent=%t capture=%t",
		st.Mode, st.VolumeDB, st.EstimateDB, st.TargetDB, st.Silent, st.CaptureOK)
	if st.Err != nil {
		line += " err=" + strconv.Quote(st.Err.Error())
	}
	fmt.Fprintln(h.out, line)
}

func runTestMode(wavPath string, tick time.Duration, in io.Reader, out io.Writer) int {
	if err := log.Init(); err != nil {
		fmt.Fprintf(out, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	h, err := newTestHarness(wavPath, tick, out)
	if err != nil {
		fmt.Fprintf(out, "Error loading WAV: %v\n", err)
		return 1
	}
	log.SessionStart(log.SessionInfo{Sink: h.sink.Name(), Source: "fake monitor", TargetLUFS: h.store.Load().TargetLUFS})
	if err := h.Run(context.Background(), in); err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return 1
	}
	acts, overrides, _ := h.driver.Stats()
	log.SessionEnd(acts, overrides)
	return 0
}
