// Package serialmcu provides the serial port abstraction used to talk
// to the helmet matrix controller. The controller is write-only and
// unacknowledged: pacing is handled by the caller, this package only
// covers opening and modelling the port.
package serialmcu

import (
	"errors"
	"io"
)

// ErrWriteFailed is returned when a write lands fewer bytes on the
// port than requested.
var ErrWriteFailed = errors.New("failed to write to serial port")

// SerialPorter defines the minimal interface needed for the
// controller's serial link. This abstraction enables unit testing
// without real display hardware.
type SerialPorter interface {
	io.Writer
	io.Closer

	// Drain blocks until all buffered output has reached the wire. The
	// transmit pacing relies on it: a row must be fully on the wire
	// before the inter-row sleep starts.
	Drain() error
}
