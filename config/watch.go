package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces the burst of events an editor produces on save.
const reloadDelay = 200 * time.Millisecond

// Watch reloads the config file at path into s whenever it changes on disk,
// until ctx is done. Edits that fail to parse or validate are recorded as the
// store's LastError and the running config stays in place. onErr, if set,
// receives watcher and reload failures.
func Watch(ctx context.Context, path string, s *Store, onErr func(error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Editors often replace the file, which drops a watch on the file
	// itself, so watch the directory.
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	if err := w.Add(dir); err != nil {
		return err
	}

	report := func(err error) {
		if onErr != nil {
			onErr(err)
		}
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				pending = time.After(reloadDelay)
			}
		case <-pending:
			pending = nil
			if err := reload(path, s); err != nil {
				report(err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			report(err)
		}
	}
}

func reload(path string, s *Store) error {
	cfg, err := Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		s.Reject(err)
		return err
	}
	// our own saves come back as events
	if cfg == s.Load() {
		s.lastErr.Store(nil)
		return nil
	}
	return s.Replace(cfg)
}
