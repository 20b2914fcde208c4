// Package doctor runs the interactive system diagnostics behind --doctor.
package doctor

import (
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"loudctl/audio"
	"loudctl/config"
	"loudctl/hotkey"
	"loudctl/log"
	"loudctl/loudness"
	"loudctl/shutdown"
	"loudctl/volume"
)

// Env holds what the checks touch, so tests can swap in fakes.
type Env struct {
	Out         io.Writer
	Device      string // capture device name, empty for the default monitor
	Sink        string // output sink name, empty for the default
	Listen      time.Duration
	Interactive bool

	NewAudio       func() (audio.Context, error)
	OpenSink       func(name string) (volume.Device, error)
	Hotkey         func() hotkey.Hotkey
	DiagnoseHotkey func() (string, error)
}

// DefaultEnv talks to the real audio server and keyboard.
func DefaultEnv(device, sink string) Env {
	return Env{
		Out:            os.Stdout,
		Device:         device,
		Sink:           sink,
		Listen:         3 * time.Second,
		Interactive:    true,
		NewAudio:       audio.NewContext,
		OpenSink:       volume.Open,
		Hotkey:         hotkey.New,
		DiagnoseHotkey: hotkey.Diagnose,
	}
}

type check struct {
	name string
	run  func(Env) bool
}

var checks = []check{
	{"Configuration", checkConfig},
	{"Log directory", checkLogDir},
	{"Output volume control", checkSink},
	{"Loopback capture", checkCapture},
	{"Global shortcuts", checkHotkey},
}

// Run executes every check and returns an exit code (0=all pass, 1=any fail).
func Run(env Env) int {
	if env.Interactive {
		resetTerminal()
		setupInterruptHandler()
	}

	fmt.Fprintln(env.Out, "loudctl doctor - system diagnostics")
	fmt.Fprintln(env.Out, "===================================")

	allPass := true
	for i, c := range checks {
		fmt.Fprintln(env.Out)
		fmt.Fprintf(env.Out, "[%d/%d] %s\n", i+1, len(checks), c.name)
		if !c.run(env) {
			allPass = false
		}
	}

	fmt.Fprintln(env.Out)
	if allPass {
		fmt.Fprintln(env.Out, "All checks passed!")
		return 0
	}
	fmt.Fprintln(env.Out, "Some checks failed. See details above.")
	return 1
}

func setupInterruptHandler() {
	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		println("\nInterrupted")
		os.Exit(1)
	}()
}

func pass(env Env, format string, args ...any) bool {
	fmt.Fprintf(env.Out, "  PASS: "+format+"\n", args...)
	return true
}

func fail(env Env, format string, args ...any) bool {
	fmt.Fprintf(env.Out, "  FAIL: "+format+"\n", args...)
	return false
}

func warn(env Env, format string, args ...any) {
	fmt.Fprintf(env.Out, "  WARN: "+format+"\n", args...)
}

func checkConfig(env Env) bool {
	path, err := config.Path()
	if err != nil {
		return fail(env, "cannot locate config dir: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return pass(env, "no config file yet, using defaults (%s)", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fail(env, "cannot read %s: %v", path, err)
	}
	cfg := config.Load()
	if cfg == config.Default() && len(data) > 0 {
		warn(env, "%s matches defaults; if you edited it, it may be invalid", path)
	}
	return pass(env, "target %.1f LUFS, window %.0fs, slew %.1f dB/s (%s)",
		cfg.TargetLUFS, cfg.WindowSeconds, cfg.SlewRateDBPerS, path)
}

func checkLogDir(env Env) bool {
	dir := log.Dir()
	if dir == "" {
		return fail(env, "log directory not resolved")
	}
	if err := log.EnsureDir(); err != nil {
		return fail(env, "cannot create %s: %v", dir, err)
	}
	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return fail(env, "%s is not writable: %v", dir, err)
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return pass(env, "writable (%s)", dir)
}

// checkSink reads the volume and writes the same value back, so the user
// hears nothing.
func checkSink(env Env) bool {
	dev, err := env.OpenSink(env.Sink)
	if err != nil {
		return fail(env, "cannot open output: %v", err)
	}
	defer dev.Close()

	db, err := dev.VolumeDB()
	if err != nil {
		return fail(env, "cannot read volume of %s: %v", dev.Name(), err)
	}
	rng, err := dev.Range()
	if err != nil {
		return fail(env, "cannot read range of %s: %v", dev.Name(), err)
	}
	if err := dev.SetVolumeDB(db); err != nil {
		return fail(env, "cannot set volume of %s: %v", dev.Name(), err)
	}
	after, err := dev.VolumeDB()
	if err != nil {
		return fail(env, "cannot re-read volume: %v", err)
	}
	if math.Abs(after-db) > 0.5 {
		return fail(env, "volume moved from %.1f to %.1f dB on a no-op write", db, after)
	}
	return pass(env, "%s at %.1f dB, range [%.0f, %.0f] dB", dev.Name(), db, rng.MinDB, rng.MaxDB)
}

func checkCapture(env Env) bool {
	ctx, err := env.NewAudio()
	if err != nil {
		return fail(env, "cannot connect to audio: %v", err)
	}
	defer ctx.Close()

	devices, err := ctx.Devices()
	if err != nil {
		return fail(env, "cannot list devices: %v", err)
	}
	var dev *audio.DeviceInfo
	if env.Device != "" {
		if dev = audio.FindDevice(devices, env.Device); dev == nil {
			return fail(env, "device %q not found", env.Device)
		}
	}

	if env.Interactive {
		fmt.Fprintln(env.Out, "Play some audio now...")
	}

	var (
		mu     sync.Mutex
		blocks []loudness.Block
	)
	cfg := audio.DefaultCaptureConfig()
	blocker := audio.NewBlocker(cfg, audio.DefaultBlockDuration, func(b loudness.Block) {
		mu.Lock()
		blocks = append(blocks, b)
		mu.Unlock()
	})

	capture, err := ctx.NewCapture(dev, cfg)
	if err != nil {
		return fail(env, "cannot open capture: %v", err)
	}
	defer capture.Close()
	capture.SetCallback(blocker.Write)
	if err := capture.Start(); err != nil {
		return fail(env, "cannot start capture: %v", err)
	}
	time.Sleep(env.Listen)
	capture.Stop()
	capture.ClearCallback()

	mu.Lock()
	defer mu.Unlock()
	if len(blocks) == 0 {
		return fail(env, "no audio arrived from %s in %s", capture.DeviceName(), env.Listen)
	}
	est := loudness.NewEstimator(env.Listen + time.Second)
	for _, b := range blocks {
		est.Add(b)
	}
	e := est.Estimate()
	if e.Silent {
		warn(env, "%s delivered %d blocks but all were silent", capture.DeviceName(), len(blocks))
		return pass(env, "capture works (nothing playing)")
	}
	return pass(env, "%s at %.1f dB over %d blocks", capture.DeviceName(), e.DB, len(blocks))
}

func checkHotkey(env Env) bool {
	msg, err := env.DiagnoseHotkey()
	if err != nil {
		return fail(env, "%v", err)
	}
	if !env.Interactive {
		return pass(env, "%s", msg)
	}

	fmt.Fprintln(env.Out, "Press Ctrl+Shift+L...")
	hk := env.Hotkey()
	if err := hk.Register(); err != nil {
		return fail(env, "could not register hotkey: %v", err)
	}
	defer hk.Unregister()

	select {
	case a := <-hk.Actions():
		// evdev readers can leave the terminal in raw mode
		resetTerminal()
		return pass(env, "shortcut detected (%s)", a)
	case <-time.After(10 * time.Second):
		return fail(env, "timeout waiting for hotkey")
	}
}
