package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"sync"
	"time"

	"github.com/alecthomas/kong"

	"loudctl/audio"
	"loudctl/config"
	"loudctl/control"
	"loudctl/doctor"
	"loudctl/hotkey"
	"loudctl/instance"
	"loudctl/log"
	"loudctl/login"
	"loudctl/shutdown"
	"loudctl/tray"
	"loudctl/volume"
)

var version = "dev"

// CLI defines the command-line interface
type CLI struct {
	Target    *float64         `help:"Target loudness in LUFS; saved as the new default." placeholder:"LUFS"`
	Console   bool             `help:"Show a live status screen in the terminal."`
	List      bool             `help:"List output and capture devices, then exit."`
	Device    string           `help:"Measure this capture device (see --list)."`
	Sink      string           `help:"Control this output device (default: system default)."`
	Setup     bool             `help:"Pick the capture device interactively."`
	LogPath   string           `name:"logpath" help:"Log directory (default: OS-specific location, use ./ for current dir)."`
	Tick      time.Duration    `default:"100ms" help:"Control loop period."`
	Doctor    bool             `help:"Run system diagnostics and exit."`
	Install   bool             `help:"Start loudctl when you log in."`
	Uninstall bool             `help:"Stop starting loudctl at login."`
	GUI       bool             `name:"gui" help:"Use the graphical tray and settings window (gui builds)."`
	Test      bool             `help:"Headless test mode driven by stdin."`
	TestWAV   string           `name:"test-wav" type:"existingfile" help:"WAV file to play as the source in test mode."`
	Profile   string           `help:"Serve pprof on this address (e.g. localhost:6060)."`
	Crash     bool             `hidden:"" help:"Trigger a synthetic panic to test crash logging."`
	Version   kong.VersionFlag `short:"v" help:"Print version and exit."`
}

var shutdownOnce sync.Once

func gracefulShutdown(driver *control.Driver, lock *instance.Lock) {
	shutdownOnce.Do(func() {
		if driver != nil {
			acts, overrides, dropped := driver.Stats()
			if dropped > 0 {
				log.Warnf("dropped %d capture blocks", dropped)
			}
			log.SessionEnd(acts, overrides)
		}
		if err := lock.Release(); err != nil {
			log.Warnf("release instance lock: %v", err)
		}
		log.Close()
		tray.Quit()
		tuiMu.Lock()
		if tuiProgram != nil {
			tuiProgram.Quit()
		}
		tuiMu.Unlock()
		guiQuit()
	})
}

// hotkeyTarget adapts the settings store to hotkey.Target.
type hotkeyTarget struct{ store *config.Store }

func (h hotkeyTarget) NudgeTarget(delta float64) error {
	_, err := h.store.NudgeTarget(delta)
	return err
}

func (h hotkeyTarget) ToggleEnabled() error {
	_, err := h.store.ToggleEnabled()
	return err
}

func fatalf(format string, args ...any) {
	log.Errorf(format, args...)
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func run() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("loudctl"),
		kong.Description("Keeps what you hear at a steady loudness by riding the system volume."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	logPath, err := log.ResolveDir(cli.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	if cli.Profile != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", cli.Profile)
			if err := http.ListenAndServe(cli.Profile, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if cli.Crash {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	switch {
	case cli.Doctor:
		os.Exit(doctor.Run(doctor.DefaultEnv(cli.Device, cli.Sink)))
	case cli.Install:
		if err := login.Enable(); err != nil {
			fatalf("install: %v", err)
		}
		fmt.Println("loudctl will start when you log in.")
		os.Exit(0)
	case cli.Uninstall:
		if err := login.Disable(); err != nil {
			fatalf("uninstall: %v", err)
		}
		fmt.Println("loudctl will no longer start at login.")
		os.Exit(0)
	case cli.List:
		actx, err := audio.NewContext()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: audio unavailable: %v\n", err)
			actx = nil
		}
		err = listDevices(os.Stdout, volume.Sinks, actx)
		if actx != nil {
			actx.Close()
		}
		if err != nil && !errors.Is(err, volume.ErrUnsupported) {
			os.Exit(1)
		}
		os.Exit(0)
	case cli.Test:
		os.Exit(runTestMode(cli.TestWAV, cli.Tick, os.Stdin, os.Stdout))
	}

	lockPath, err := instance.DefaultPath()
	if err != nil {
		fatalf("locate cache dir: %v", err)
	}
	lock, err := instance.Acquire(lockPath)
	if errors.Is(err, instance.ErrRunning) {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	store := guiStore
	if store == nil {
		store = config.NewStore(config.Load())
	}
	store.OnChange(func(c config.Config) {
		if err := config.Save(c); err != nil {
			log.Warnf("save config: %v", err)
		}
		guiConfigChanged(c)
	})
	if cli.Target != nil {
		if _, err := store.SetTarget(*cli.Target); err != nil {
			fatalf("--target: %v", err)
		}
	}

	actx := guiAudioCtx
	if actx == nil {
		actx, err = audio.NewContext()
		if err != nil {
			fatalf("initializing audio: %v", err)
		}
	}
	defer actx.Close()

	var dev *audio.DeviceInfo
	switch {
	case cli.Device != "":
		devices, err := actx.Devices()
		if err != nil {
			fatalf("enumerating devices: %v", err)
		}
		if dev = audio.FindDevice(devices, cli.Device); dev == nil {
			fatalf("capture device %q not found (see --list)", cli.Device)
		}
	case cli.Setup:
		dev, err = audio.SelectDevice(actx)
		if errors.Is(err, audio.ErrSelectionCancelled) {
			os.Exit(0)
		}
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to the default output monitor")
		}
	}

	sink, err := volume.Open(cli.Sink)
	if err != nil {
		fatalf("opening output volume: %v", err)
	}
	defer sink.Close()

	fan := newStatusFanout()
	driver := control.NewDriver(store, sink, control.WithTick(cli.Tick), control.WithStatusSink(fan))

	ctx, stop := shutdown.Context(context.Background())
	defer stop()
	defer gracefulShutdown(driver, lock)

	mon := &audio.Monitor{
		Context: actx,
		Device:  dev,
		Config:  audio.DefaultCaptureConfig(),
		Sink:    driver,
		OnState: func(up bool, source string) {
			if up {
				logToTUI("capturing %s", source)
			} else {
				logToTUI("capture lost, retrying")
			}
		},
	}
	waitCapture := startCapture(ctx, mon)

	if cfgPath, err := config.Path(); err == nil {
		go func() {
			err := config.Watch(ctx, cfgPath, store, func(err error) {
				log.Warnf("config reload: %v", err)
			})
			if err != nil {
				log.Warnf("config watch: %v", err)
			}
		}()
	}

	cfg := store.Load()
	source := "default monitor"
	if dev != nil {
		source = dev.Name
	}
	log.SessionStart(log.SessionInfo{
		Sink:       sink.Name(),
		Source:     source,
		TargetLUFS: cfg.TargetLUFS,
		WindowS:    cfg.WindowSeconds,
		SlewRate:   cfg.SlewRateDBPerS,
		HoldS:      cfg.HoldTimeS,
		PauseS:     cfg.ManualPauseS,
		Enabled:    cfg.Enabled,
	})

	tray.OnToggle(func() { store.ToggleEnabled() })
	tray.OnNudge(func(d float64) { store.NudgeTarget(d) })
	tray.SetLogin(login.Enabled())
	tray.OnLogin(func(on bool) error {
		if on {
			return login.Enable()
		}
		return login.Disable()
	})
	guiAttach(ctx, fan)
	fan.Subscribe(ctx, tray.Publish)
	trayQuit := tray.Init()

	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		log.Warnf("hotkey register: %v", err)
		if !cli.Console {
			fmt.Fprintf(os.Stderr, "Warning: global shortcuts unavailable: %v\n", err)
		}
	} else {
		defer hk.Unregister()
		go hotkey.Dispatch(ctx, hk, hotkeyTarget{store}, 300*time.Millisecond, func(a hotkey.Action, err error) {
			log.Warnf("hotkey %s: %v", a, err)
		})
	}

	if cli.Console {
		tuiMu.Lock()
		tuiProgram = NewTUIProgram(cli.Device, sink.Name(),
			func(d float64) { store.NudgeTarget(d) },
			func() { store.ToggleEnabled() },
		)
		tuiMu.Unlock()
		fan.Subscribe(ctx, func(st control.Status) { tuiSend(StatusMsg{Status: st}) })

		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
			}
			stop()
		}()
	}

	go func() {
		select {
		case <-trayQuit:
			stop()
		case <-ctx.Done():
		}
	}()

	if err := driver.Run(ctx); err != nil {
		log.Errorf("control loop: %v", err)
	}

	// The capture stream must be released before the deferred closes tear
	// down the log, the sink and the audio context under it.
	stop()
	if !waitCapture(captureReleaseTimeout) {
		log.Warnf("capture did not stop within %v", captureReleaseTimeout)
	}
}
