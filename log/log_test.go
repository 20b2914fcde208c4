package log

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setupLogDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	SetDir(tmp)
	t.Cleanup(func() { Close(); SetDir("") })
	return tmp
}

func TestResolveDirFlag(t *testing.T) {
	got, err := ResolveDir("/tmp/mylog")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/mylog" {
		t.Errorf("got %q, want /tmp/mylog", got)
	}
}

func TestResolveDirFlagRelative(t *testing.T) {
	got, err := ResolveDir("logs")
	if err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(wd, "logs")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveDirEnv(t *testing.T) {
	t.Setenv("LOUDCTL_LOG_PATH", "/tmp/loudctl-env-log")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/loudctl-env-log" {
		t.Errorf("got %q, want /tmp/loudctl-env-log", got)
	}
}

func TestResolveDirFlagBeatsEnv(t *testing.T) {
	t.Setenv("LOUDCTL_LOG_PATH", "/tmp/from-env")
	got, _ := ResolveDir("/tmp/from-flag")
	if got != "/tmp/from-flag" {
		t.Errorf("got %q, flag should win", got)
	}
}

func TestResolveDirDefault(t *testing.T) {
	t.Setenv("LOUDCTL_LOG_PATH", "")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "loudctl") {
		t.Errorf("default dir %q should be namespaced", got)
	}
}

func TestInitCreatesDiagnostics(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(tmp, "diagnostics_log.txt")); err != nil {
		t.Errorf("diagnostics_log.txt not created: %v", err)
	}
}

func TestStructuredEvents(t *testing.T) {
	tmp := setupLogDir(t)
	if err := Init(); err != nil {
		t.Fatal(err)
	}

	ModeChange("tracking", "paused", -20, -6)
	ManualOverride(-6, -1, time.Unix(1000, 0))
	ConfigRejected(errors.New("window_seconds must be > 0"))
	Close()

	data, err := os.ReadFile(filepath.Join(tmp, "diagnostics_log.txt"))
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{"mode_change", "to=paused", "manual_override", "config_rejected", "window_seconds"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestEventsBeforeInitAreDropped(t *testing.T) {
	setupLogDir(t)
	// must not panic on a zero logger
	ModeChange("a", "b", 0, 0)
	CaptureLost(errors.New("gone"))
}

func TestCrashFile(t *testing.T) {
	tmp := setupLogDir(t)
	f, err := CrashFile()
	if err != nil {
		t.Fatal(err)
	}
	again, _ := CrashFile()
	if f != again {
		t.Error("CrashFile should reuse the open handle")
	}
	Close()
	data, err := os.ReadFile(filepath.Join(tmp, "crash_log.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "session start") {
		t.Errorf("crash log header missing: %q", data)
	}
}

func TestCloseIdempotent(t *testing.T) {
	setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}
	Close()
	Close() // should not panic
}

func TestDefaultDir(t *testing.T) {
	env := func(m map[string]string) func(string) string {
		return func(k string) string { return m[k] }
	}
	tests := []struct {
		goos string
		env  map[string]string
		want string
	}{
		{"linux", map[string]string{"HOME": "/home/u"}, "/home/u/.local/state/loudctl"},
		{"linux", map[string]string{"HOME": "/home/u", "XDG_STATE_HOME": "/xdg"}, "/xdg/loudctl"},
		{"darwin", map[string]string{"HOME": "/Users/u"}, "/Users/u/Library/Logs/loudctl"},
		{"windows", map[string]string{"LOCALAPPDATA": "/lad"}, filepath.Join("/lad", "loudctl", "logs")},
	}
	for _, tt := range tests {
		got, err := defaultDir(tt.goos, env(tt.env))
		if err != nil {
			t.Errorf("%s %v: %v", tt.goos, tt.env, err)
			continue
		}
		if got != filepath.Join(tt.want) {
			t.Errorf("%s %v = %q, want %q", tt.goos, tt.env, got, tt.want)
		}
	}
	if _, err := defaultDir("linux", env(nil)); err == nil {
		t.Error("expected error without HOME")
	}
}
