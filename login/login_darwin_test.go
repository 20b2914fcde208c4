//go:build darwin

package login

import (
	"strings"
	"testing"
)

func TestRenderAgent(t *testing.T) {
	got := renderAgent([]string{"/Applications/Loud & Clear/loudctl", "--console"}, "/tmp/err.txt")
	for _, want := range []string{
		"<string>com.loudctl.agent</string>",
		"<string>/Applications/Loud &amp; Clear/loudctl</string>",
		"<string>--console</string>",
		"<key>RunAtLoad</key>",
		"<string>/tmp/err.txt</string>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("plist missing %q:\n%s", want, got)
		}
	}
	if strings.Count(got, "<dict>") != strings.Count(got, "</dict>") {
		t.Errorf("unbalanced dict tags:\n%s", got)
	}
}
