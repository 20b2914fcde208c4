//go:build linux

package volume

import (
	"fmt"
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

type pulseSink struct {
	client *pulse.Client

	mu   sync.Mutex
	name string // pulse sink name, resolved per call when empty
}

// Open connects to the sound server and controls the named sink, or the
// default sink when name is empty.
func Open(name string) (Device, error) {
	c, err := pulse.NewClient(pulse.ClientApplicationName("loudctl"))
	if err != nil {
		return nil, fmt.Errorf("pulse: %w", err)
	}
	return &pulseSink{client: c, name: name}, nil
}

func (p *pulseSink) Name() string {
	if p.name != "" {
		return p.name
	}
	if s, err := p.client.DefaultSink(); err == nil && s != nil {
		return s.Name()
	}
	return "default sink"
}

func (p *pulseSink) target() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.name != "" {
		return p.name, nil
	}
	s, err := p.client.DefaultSink()
	if err != nil {
		return "", fmt.Errorf("pulse default sink: %w", err)
	}
	return s.ID(), nil
}

func (p *pulseSink) info() (*proto.GetSinkInfoReply, error) {
	name, err := p.target()
	if err != nil {
		return nil, err
	}
	var reply proto.GetSinkInfoReply
	err = p.client.RawRequest(&proto.GetSinkInfo{SinkIndex: proto.Undefined, SinkName: name}, &reply)
	if err != nil {
		return nil, fmt.Errorf("pulse sink info %q: %w", name, err)
	}
	return &reply, nil
}

func (p *pulseSink) VolumeDB() (float64, error) {
	info, err := p.info()
	if err != nil {
		return 0, err
	}
	if info.Mute {
		return DefaultRange.MinDB, nil
	}
	return DefaultRange.Clamp(RawToDB(averageRaw(info.ChannelVolumes))), nil
}

func (p *pulseSink) SetVolumeDB(db float64) error {
	info, err := p.info()
	if err != nil {
		return err
	}
	raw := DBToRaw(DefaultRange.Clamp(db))
	vols := make(proto.ChannelVolumes, max(len(info.ChannelVolumes), 1))
	for i := range vols {
		vols[i] = raw
	}
	err = p.client.RawRequest(&proto.SetSinkVolume{
		SinkIndex:      info.SinkIndex,
		ChannelVolumes: vols,
	}, nil)
	if err != nil {
		return fmt.Errorf("pulse set volume: %w", err)
	}
	return nil
}

func (p *pulseSink) Range() (Range, error) {
	if _, err := p.info(); err != nil {
		return Range{}, err
	}
	return DefaultRange, nil
}

func (p *pulseSink) Close() {
	p.client.Close()
}

// Sinks lists the output devices the server knows about.
func Sinks() ([]SinkInfo, error) {
	c, err := pulse.NewClient(pulse.ClientApplicationName("loudctl"))
	if err != nil {
		return nil, fmt.Errorf("pulse: %w", err)
	}
	defer c.Close()
	sinks, err := c.ListSinks()
	if err != nil {
		return nil, fmt.Errorf("pulse list sinks: %w", err)
	}
	def := ""
	if d, err := c.DefaultSink(); err == nil {
		def = d.ID()
	}
	out := make([]SinkInfo, 0, len(sinks))
	for _, s := range sinks {
		out = append(out, SinkInfo{ID: s.ID(), Name: s.Name(), Default: s.ID() == def})
	}
	return out, nil
}
