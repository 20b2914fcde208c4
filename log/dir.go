package log

import (
	"errors"
	"path/filepath"
)

// defaultDir picks the per-user log location for goos. Logs are state, so
// Linux uses XDG_STATE_HOME rather than the config dir.
func defaultDir(goos string, getenv func(string) string) (string, error) {
	home := getenv("HOME")
	switch goos {
	case "windows":
		if d := getenv("LOCALAPPDATA"); d != "" {
			return filepath.Join(d, "loudctl", "logs"), nil
		}
		if p := getenv("USERPROFILE"); p != "" {
			return filepath.Join(p, "AppData", "Local", "loudctl", "logs"), nil
		}
		return "", errors.New("neither LOCALAPPDATA nor USERPROFILE is set")
	case "darwin":
		if home == "" {
			return "", errors.New("HOME is not set")
		}
		return filepath.Join(home, "Library", "Logs", "loudctl"), nil
	}
	if d := getenv("XDG_STATE_HOME"); d != "" {
		return filepath.Join(d, "loudctl"), nil
	}
	if home == "" {
		return "", errors.New("HOME is not set")
	}
	return filepath.Join(home, ".local", "state", "loudctl"), nil
}
