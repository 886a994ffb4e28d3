package serialmcu

import (
	"fmt"

	"go.bug.st/serial"
)

// Open opens the controller's serial port at the given path with the
// provided options. The returned port satisfies SerialPorter.
func Open(path string, opts PortOptions) (serial.Port, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}

	return port, nil
}
