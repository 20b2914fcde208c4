//go:build !linux

package hotkey

import (
	"errors"

	"golang.design/x/hotkey"
)

type binding struct {
	hk     *hotkey.Hotkey
	action Action
}

type xHotkey struct {
	bindings []binding
	actions  chan Action
	stop     chan struct{}
}

func New() Hotkey {
	mods := []hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift}
	return &xHotkey{
		bindings: []binding{
			{hotkey.New(mods, hotkey.KeyUp), ActionTargetUp},
			{hotkey.New(mods, hotkey.KeyDown), ActionTargetDown},
			{hotkey.New(mods, hotkey.KeyL), ActionToggle},
		},
		actions: make(chan Action, 4),
	}
}

func (h *xHotkey) Register() error {
	h.stop = make(chan struct{})
	var errs []error
	for _, b := range h.bindings {
		if err := b.hk.Register(); err != nil {
			errs = append(errs, err)
			continue
		}
		go func(b binding) {
			for {
				select {
				case <-h.stop:
					return
				case <-b.hk.Keydown():
					send(h.actions, b.action)
				}
			}
		}(b)
	}
	if len(errs) == len(h.bindings) {
		return errors.Join(errs...)
	}
	return nil
}

func (h *xHotkey) Unregister() {
	if h.stop != nil {
		close(h.stop)
		h.stop = nil
	}
	for _, b := range h.bindings {
		b.hk.Unregister()
	}
}

func (h *xHotkey) Actions() <-chan Action {
	return h.actions
}

func Diagnose() (string, error) {
	return "hotkey support available (" + Combos + ")", nil
}
