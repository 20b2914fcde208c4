package doctor

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"loudctl/audio"
	"loudctl/hotkey"
	"loudctl/log"
	"loudctl/volume"
)

func testEnv(t *testing.T, out *bytes.Buffer) Env {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	log.SetDir(t.TempDir())

	return Env{
		Out:    out,
		Listen: 300 * time.Millisecond,
		NewAudio: func() (audio.Context, error) {
			return audio.NewFakeContext(-20, false), nil
		},
		OpenSink: func(string) (volume.Device, error) {
			return volume.NewFake(-12), nil
		},
		Hotkey:         func() hotkey.Hotkey { return hotkey.NewFake() },
		DiagnoseHotkey: func() (string, error) { return "ok", nil },
	}
}

func TestRunAllPass(t *testing.T) {
	var out bytes.Buffer
	env := testEnv(t, &out)

	if code := Run(env); code != 0 {
		t.Fatalf("exit code %d, output:\n%s", code, out.String())
	}
	if n := strings.Count(out.String(), "PASS:"); n != len(checks) {
		t.Errorf("got %d passes, want %d:\n%s", n, len(checks), out.String())
	}
	if !strings.Contains(out.String(), "fake monitor at -") {
		t.Errorf("capture level missing:\n%s", out.String())
	}
}

func TestRunReportsSinkFailure(t *testing.T) {
	var out bytes.Buffer
	env := testEnv(t, &out)
	env.OpenSink = func(string) (volume.Device, error) {
		dev := volume.NewFake(-12)
		dev.FailWrites(errors.New("access denied"))
		return dev, nil
	}

	if code := Run(env); code != 1 {
		t.Fatalf("exit code %d, want 1", code)
	}
	if !strings.Contains(out.String(), "FAIL: cannot set volume of fake: access denied") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestCaptureUnknownDevice(t *testing.T) {
	var out bytes.Buffer
	env := testEnv(t, &out)
	env.Device = "nope"
	if checkCapture(env) {
		t.Fatal("expected failure for unknown device")
	}
	if !strings.Contains(out.String(), `device "nope" not found`) {
		t.Errorf("unexpected output: %s", out.String())
	}
}

func TestCaptureSilenceIsWarning(t *testing.T) {
	var out bytes.Buffer
	env := testEnv(t, &out)
	env.NewAudio = func() (audio.Context, error) {
		return audio.NewFakeContext(-120, false), nil
	}
	if !checkCapture(env) {
		t.Fatalf("silence should not fail:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "WARN:") {
		t.Errorf("expected a warning:\n%s", out.String())
	}
}

func TestInteractiveHotkey(t *testing.T) {
	var out bytes.Buffer
	env := testEnv(t, &out)
	env.Interactive = true
	fake := hotkey.NewFake()
	env.Hotkey = func() hotkey.Hotkey { return fake }
	fake.Press(hotkey.ActionToggle)

	if !checkHotkey(env) {
		t.Fatalf("hotkey check failed:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "shortcut detected (toggle)") {
		t.Errorf("unexpected output: %s", out.String())
	}
}
