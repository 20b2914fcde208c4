//go:build linux

package login

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const desktopName = "loudctl.desktop"

// autostartDir follows the XDG base directory spec.
func autostartDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "autostart")
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "autostart")
}

func entryPath() string {
	return filepath.Join(autostartDir(), desktopName)
}

func Enabled() bool {
	_, err := os.Stat(entryPath())
	return err == nil
}

func Enable() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	return writeEntry(exe)
}

func writeEntry(exe string) error {
	fields := append([]string{quoteExec(exe)}, Args...)
	entry := fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=loudctl
Comment=Keep output loudness at a steady level
Exec=%s
Terminal=false
X-GNOME-Autostart-enabled=true
`, strings.Join(fields, " "))

	path := entryPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create autostart dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(entry), 0o644); err != nil {
		return fmt.Errorf("write desktop entry: %w", err)
	}
	return nil
}

// quoteExec quotes a path for the Exec key when it contains characters the
// desktop entry format treats specially.
func quoteExec(s string) string {
	if !strings.ContainsAny(s, " \t\"'\\$`") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", `$`, `\$`)
	return `"` + r.Replace(s) + `"`
}

func Disable() error {
	if err := os.Remove(entryPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove desktop entry: %w", err)
	}
	return nil
}
