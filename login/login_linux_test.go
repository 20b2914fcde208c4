//go:build linux

package login

import (
	"os"
	"strings"
	"testing"
)

func TestEnableDisable(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if Enabled() {
		t.Fatal("fresh dir should not be enabled")
	}
	if err := writeEntry("/opt/my apps/loudctl"); err != nil {
		t.Fatal(err)
	}
	if !Enabled() {
		t.Fatal("expected enabled after writeEntry")
	}
	data, err := os.ReadFile(entryPath())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Exec=\"/opt/my apps/loudctl\"\n") {
		t.Errorf("unexpected entry:\n%s", data)
	}

	if err := Disable(); err != nil {
		t.Fatal(err)
	}
	if Enabled() {
		t.Error("still enabled after Disable")
	}
	if err := Disable(); err != nil {
		t.Errorf("second Disable: %v", err)
	}
}

func TestEntryArgs(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	old := Args
	Args = []string{"--device", "hdmi.monitor"}
	defer func() { Args = old }()

	if err := writeEntry("/usr/bin/loudctl"); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(entryPath())
	if !strings.Contains(string(data), "Exec=/usr/bin/loudctl --device hdmi.monitor\n") {
		t.Errorf("unexpected entry:\n%s", data)
	}
}

func TestQuoteExec(t *testing.T) {
	if got := quoteExec("/usr/bin/loudctl"); got != "/usr/bin/loudctl" {
		t.Errorf("plain path changed: %q", got)
	}
	if got := quoteExec(`/a b/$x`); got != `"/a b/\$x"` {
		t.Errorf("got %q", got)
	}
}
