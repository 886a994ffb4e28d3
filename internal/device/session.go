// Package device owns the serial session with the helmet matrix
// controller and implements the flow-controlled frame transmission.
//
// The controller never acknowledges anything, so flow control is
// open-loop: every row unit is drained to the wire, and after a fixed
// number of rows the sender sleeps to let the controller latch the
// data. The delays are tuned empirically against the firmware; sending
// faster corrupts the panel.
package device

import (
	"fmt"
	"time"

	"github.com/banshee-data/helmetmap/internal/pixmap"
	"github.com/banshee-data/helmetmap/internal/serialmcu"
)

const (
	// DefaultWidth and DefaultHeight are the panel dimensions. The
	// firmware only knows this one geometry.
	DefaultWidth  = 64
	DefaultHeight = 64

	// DefaultRowsBetweenSleeps is how many row units are sent between
	// pacing sleeps.
	DefaultRowsBetweenSleeps = 2

	// DefaultRowDelay is the pacing sleep duration.
	DefaultRowDelay = 17 * time.Millisecond
)

// Progress receives per-byte transmission progress. Reporting is user
// feedback only; it has no effect on correctness or pacing.
type Progress func(written, total int)

// Options configures a Session. Zero values select the defaults above.
type Options struct {
	Width             int
	Height            int
	Invert            bool
	RowsBetweenSleeps int
	RowDelay          time.Duration
	Progress          Progress
}

// Session owns one serial connection and the panel's fixed dimensions.
// It is not safe for concurrent use: callers must serialize SendImage.
type Session struct {
	port              serialmcu.SerialPorter
	width             int
	height            int
	invert            bool
	rowsBetweenSleeps int
	rowDelay          time.Duration
	progress          Progress

	sleep func(time.Duration)
}

// Open opens the serial port at portPath and returns a session bound
// to it.
func Open(portPath string, portOpts serialmcu.PortOptions, opts Options) (*Session, error) {
	port, err := serialmcu.Open(portPath, portOpts)
	if err != nil {
		return nil, err
	}
	return NewSession(port, opts), nil
}

// NewSession returns a session over an already-open port. The session
// takes ownership of the port.
func NewSession(port serialmcu.SerialPorter, opts Options) *Session {
	s := &Session{
		port:              port,
		width:             opts.Width,
		height:            opts.Height,
		invert:            opts.Invert,
		rowsBetweenSleeps: opts.RowsBetweenSleeps,
		rowDelay:          opts.RowDelay,
		progress:          opts.Progress,
		sleep:             time.Sleep,
	}
	if s.width == 0 {
		s.width = DefaultWidth
	}
	if s.height == 0 {
		s.height = DefaultHeight
	}
	if s.rowsBetweenSleeps == 0 {
		s.rowsBetweenSleeps = DefaultRowsBetweenSleeps
	}
	if s.rowDelay == 0 {
		s.rowDelay = DefaultRowDelay
	}
	return s
}

// Close closes the serial port.
func (s *Session) Close() error {
	return s.port.Close()
}

// SendImage decodes the image at path and transmits it as one frame.
// It returns the number of bytes written and only returns after the
// final drain completes.
func (s *Session) SendImage(path string) (int, error) {
	samples, err := pixmap.DecodeAuto(path, s.width, s.height)
	if err != nil {
		return 0, err
	}
	rot, err := pixmap.NewRotation(samples, s.width, s.height)
	if err != nil {
		return 0, err
	}
	return s.SendFrame(rot)
}

// SendFrame packs the rotated sample sequence and streams it: sync
// preamble first, then one row unit at a time, draining after each row
// and sleeping every rowsBetweenSleeps rows.
func (s *Session) SendFrame(rot *pixmap.Rotation) (int, error) {
	total := pixmap.PreambleLen + rot.Len()/(pixmap.RowDataBytes*8)*pixmap.RowUnitBytes
	written := 0

	write := func(b []byte) error {
		n, err := s.port.Write(b)
		written += n
		if err != nil {
			return fmt.Errorf("serial write: %w", err)
		}
		if n != len(b) {
			return serialmcu.ErrWriteFailed
		}
		if s.progress != nil {
			s.progress(written, total)
		}
		return nil
	}
	drain := func() error {
		if err := s.port.Drain(); err != nil {
			return fmt.Errorf("serial drain: %w", err)
		}
		return nil
	}

	if err := write(pixmap.Preamble()); err != nil {
		return written, err
	}
	if err := drain(); err != nil {
		return written, err
	}

	packer := pixmap.NewPacker(rot, s.invert)
	rowsSinceSleep := 0
	for {
		row := packer.NextRow()
		if row == nil {
			break
		}
		if err := write(row); err != nil {
			return written, err
		}
		if err := drain(); err != nil {
			return written, err
		}
		rowsSinceSleep++
		if rowsSinceSleep >= s.rowsBetweenSleeps {
			s.sleep(s.rowDelay)
			rowsSinceSleep = 0
		}
	}

	if err := drain(); err != nil {
		return written, err
	}
	return written, nil
}
