//go:build !linux

package volume

func Open(string) (Device, error) {
	return nil, ErrUnsupported
}

func Sinks() ([]SinkInfo, error) {
	return nil, ErrUnsupported
}
