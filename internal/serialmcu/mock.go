package serialmcu

import (
	"bytes"
	"errors"
	"sync"
)

// RecordingPort implements SerialPorter with configurable behaviour
// for testing. It captures written bytes and records where each Drain
// fell relative to the byte stream so flush boundaries can be
// asserted.
type RecordingPort struct {
	mu sync.Mutex

	// WriteBuffer captures data written to the port.
	WriteBuffer *bytes.Buffer

	// WriteError is returned by the next Write call if set.
	WriteError error

	// DrainError is returned by the next Drain call if set.
	DrainError error

	// CloseError is returned by Close if set.
	CloseError error

	// ShortWrite makes every Write report one byte fewer than written.
	ShortWrite bool

	// WriteCalls records the number of Write calls.
	WriteCalls int

	// DrainMarks records the number of bytes written before each Drain.
	DrainMarks []int

	// Closed indicates whether Close was called.
	Closed bool
}

// NewRecordingPort creates a RecordingPort with an empty write buffer.
func NewRecordingPort() *RecordingPort {
	return &RecordingPort{WriteBuffer: bytes.NewBuffer(nil)}
}

// Write appends to the write buffer, optionally simulating errors or
// short writes.
func (p *RecordingPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.WriteCalls++

	if p.Closed {
		return 0, errors.New("serial port closed")
	}
	if p.WriteError != nil {
		err := p.WriteError
		p.WriteError = nil
		return 0, err
	}

	n, err := p.WriteBuffer.Write(b)
	if p.ShortWrite && n > 0 {
		n--
	}
	return n, err
}

// Drain records the current write position.
func (p *RecordingPort) Drain() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Closed {
		return errors.New("serial port closed")
	}
	if p.DrainError != nil {
		err := p.DrainError
		p.DrainError = nil
		return err
	}

	p.DrainMarks = append(p.DrainMarks, p.WriteBuffer.Len())
	return nil
}

// Close marks the port as closed.
func (p *RecordingPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Closed = true
	return p.CloseError
}

// Written returns a copy of everything written to the port.
func (p *RecordingPort) Written() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]byte, p.WriteBuffer.Len())
	copy(out, p.WriteBuffer.Bytes())
	return out
}

// NullPort is a SerialPorter that discards everything written to it.
// It backs dev mode, where no display hardware is attached.
type NullPort struct{}

func (NullPort) Write(b []byte) (int, error) { return len(b), nil }
func (NullPort) Drain() error                { return nil }
func (NullPort) Close() error                { return nil }
