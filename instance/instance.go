// Package instance keeps a second copy of loudctl from fighting the first
// over the same volume control.
package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var ErrRunning = errors.New("another loudctl instance is running")

// Lock is a held PID file.
type Lock struct {
	path string
}

// DefaultPath is the PID file in the user cache dir.
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "loudctl", "loudctl.pid"), nil
}

// Acquire writes our PID to path. A file naming a live process yields
// ErrRunning; a stale one is taken over.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			_, werr := fmt.Fprintf(f, "%d\n", os.Getpid())
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(path)
				return nil, fmt.Errorf("write pid file: %w", errors.Join(werr, cerr))
			}
			return &Lock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create pid file: %w", err)
		}

		pid, rerr := readPID(path)
		if rerr == nil && pid != os.Getpid() && alive(pid) {
			return nil, fmt.Errorf("%w (pid %d)", ErrRunning, pid)
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("remove stale pid file: %w", err)
		}
	}
	return nil, fmt.Errorf("%w: lost the race for %s", ErrRunning, path)
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// Release removes the PID file if it still names us.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	if pid, err := readPID(l.path); err == nil && pid != os.Getpid() {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
