package main

import (
	"fmt"
	"io"

	"loudctl/audio"
	"loudctl/volume"
)

// listDevices prints the output sinks loudctl can control and the streams it
// can measure, marking defaults and monitors.
func listDevices(w io.Writer, sinks func() ([]volume.SinkInfo, error), ctx audio.Context) error {
	fmt.Fprintln(w, "Output devices (volume control):")
	list, err := sinks()
	switch {
	case err != nil:
		fmt.Fprintf(w, "  unavailable: %v\n", err)
	case len(list) == 0:
		fmt.Fprintln(w, "  none")
	}
	for _, s := range list {
		mark := " "
		if s.Default {
			mark = "*"
		}
		fmt.Fprintf(w, "  %s %s", mark, s.ID)
		if s.Name != "" && s.Name != s.ID {
			fmt.Fprintf(w, "  (%s)", s.Name)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Capture devices (--device):")
	if ctx == nil {
		fmt.Fprintln(w, "  unavailable")
		return err
	}
	devices, derr := ctx.Devices()
	if derr != nil {
		return fmt.Errorf("enumerating devices: %w", derr)
	}
	for _, d := range audio.MonitorsFirst(devices) {
		tag := ""
		if !d.Monitor {
			tag = "  [input]"
		}
		fmt.Fprintf(w, "    %s%s\n", d.Name, tag)
	}
	return err
}
