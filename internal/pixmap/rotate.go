package pixmap

import "fmt"

// RotatedIndex maps an output position in the controller's scan order
// to a source index in a row-major sample buffer. The panel is mounted
// rotated a quarter turn relative to the rendered image, and its scan
// order walks output x over the image height fastest: output position
// (x, y) reads the source pixel at row (width-x-1), column y.
//
// The controller and the renderer disagree on axis convention, so this
// exact mapping is part of the wire contract. Do not substitute a
// generic rotate-by-90.
func RotatedIndex(width, height, pos int) int {
	x := pos % height
	y := pos / height
	return (width-x-1)*width + y
}

// Rotation walks a sample buffer in the controller's scan order. It is
// a finite, single-pass cursor: exactly width*height samples are
// emitted, each source index exactly once.
type Rotation struct {
	samples []byte
	width   int
	height  int
	pos     int
}

// NewRotation validates the buffer against the declared dimensions and
// returns a cursor over it. A buffer whose length is not width*height
// is rejected before any traversal starts.
func NewRotation(samples []byte, width, height int) (*Rotation, error) {
	if len(samples) != width*height {
		return nil, fmt.Errorf("%w: got %d samples for a %dx%d display",
			ErrSizeMismatch, len(samples), width, height)
	}
	return &Rotation{samples: samples, width: width, height: height}, nil
}

// Len returns the total number of samples the cursor will emit.
func (r *Rotation) Len() int {
	return r.width * r.height
}

// Next returns the next sample in scan order. ok is false once the
// sequence is exhausted. If an index computation would reach outside
// the buffer the sequence ends early instead of emitting garbage; with
// a validated square buffer that path is unreachable.
func (r *Rotation) Next() (sample byte, ok bool) {
	if r.pos >= r.Len() {
		return 0, false
	}
	idx := RotatedIndex(r.width, r.height, r.pos)
	if idx < 0 || idx >= len(r.samples) {
		r.pos = r.Len()
		return 0, false
	}
	r.pos++
	return r.samples[idx], true
}
