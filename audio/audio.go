// Package audio captures what the machine is playing: the monitor of the
// default output on linux, a loopback device elsewhere.
package audio

import (
	"errors"
	"strings"
)

const (
	DefaultSampleRate = 48000
	DefaultChannels   = 2
)

var ErrNoDevices = errors.New("no capture devices found")

// DataCallback receives interleaved float32 samples in [-1, 1]. The slice is
// only valid for the duration of the call.
type DataCallback func(samples []float32, channels int)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
}

func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{SampleRate: DefaultSampleRate, Channels: DefaultChannels}
}

type DeviceInfo struct {
	ID      string // opaque platform-specific identifier
	Name    string
	Monitor bool // captures an output rather than a microphone
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
	DeviceName() string
}

// FindDevice returns the device whose name or ID matches, ignoring case.
func FindDevice(devices []DeviceInfo, name string) *DeviceInfo {
	for i := range devices {
		if strings.EqualFold(devices[i].Name, name) || strings.EqualFold(devices[i].ID, name) {
			return &devices[i]
		}
	}
	return nil
}
