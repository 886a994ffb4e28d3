package device

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/helmetmap/internal/pixmap"
	"github.com/banshee-data/helmetmap/internal/serialmcu"
)

func checkerboard(w, h int) []byte {
	samples := make([]byte, w*h)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			if (row+col)%2 == 0 {
				samples[row*w+col] = 255
			}
		}
	}
	return samples
}

func newTestSession(t *testing.T, port serialmcu.SerialPorter, opts Options) *Session {
	t.Helper()
	s := NewSession(port, opts)
	s.sleep = func(time.Duration) {} // tests must not pace in real time
	return s
}

func TestSendFrameWireFormat(t *testing.T) {
	samples := checkerboard(64, 64)
	port := serialmcu.NewRecordingPort()
	s := newTestSession(t, port, Options{})

	rot, err := pixmap.NewRotation(samples, 64, 64)
	if err != nil {
		t.Fatal(err)
	}
	written, err := s.SendFrame(rot)
	if err != nil {
		t.Fatalf("SendFrame: %v", err)
	}
	if written != 587 {
		t.Errorf("written = %d, want 587", written)
	}

	// The wire bytes must match the frame encoder output exactly.
	wantRot, err := pixmap.NewRotation(samples, 64, 64)
	if err != nil {
		t.Fatal(err)
	}
	want := pixmap.EncodeFrame(wantRot, false)
	if diff := cmp.Diff(want, port.Written()); diff != "" {
		t.Errorf("wire bytes mismatch (-want +got):\n%s", diff)
	}
}

func TestSendFrameDrainsPerRow(t *testing.T) {
	port := serialmcu.NewRecordingPort()
	s := newTestSession(t, port, Options{})

	rot, err := pixmap.NewRotation(make([]byte, 64*64), 64, 64)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.SendFrame(rot); err != nil {
		t.Fatalf("SendFrame: %v", err)
	}

	// One drain after the preamble, one after each of the 64 row
	// units, and a final drain before returning.
	if len(port.DrainMarks) != 66 {
		t.Fatalf("got %d drains, want 66", len(port.DrainMarks))
	}
	if port.DrainMarks[0] != pixmap.PreambleLen {
		t.Errorf("first drain at byte %d, want %d", port.DrainMarks[0], pixmap.PreambleLen)
	}
	for i := 1; i <= 64; i++ {
		want := pixmap.PreambleLen + i*pixmap.RowUnitBytes
		if port.DrainMarks[i] != want {
			t.Fatalf("drain %d at byte %d, want %d", i, port.DrainMarks[i], want)
		}
	}
	if final := port.DrainMarks[65]; final != 587 {
		t.Errorf("final drain at byte %d, want 587", final)
	}
}

func TestSendFrameSleepCadence(t *testing.T) {
	port := serialmcu.NewRecordingPort()
	s := NewSession(port, Options{RowsBetweenSleeps: 2, RowDelay: 5 * time.Millisecond})

	var sleeps []int // bytes on the wire at each sleep
	s.sleep = func(d time.Duration) {
		if d != 5*time.Millisecond {
			t.Errorf("sleep duration = %v, want 5ms", d)
		}
		sleeps = append(sleeps, port.WriteBuffer.Len())
	}

	rot, err := pixmap.NewRotation(make([]byte, 64*64), 64, 64)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.SendFrame(rot); err != nil {
		t.Fatalf("SendFrame: %v", err)
	}

	// Exactly one sleep per two completed rows, never mid-row.
	if len(sleeps) != 32 {
		t.Fatalf("got %d sleeps, want 32", len(sleeps))
	}
	for i, mark := range sleeps {
		want := pixmap.PreambleLen + (i+1)*2*pixmap.RowUnitBytes
		if mark != want {
			t.Fatalf("sleep %d at byte %d, want %d (row boundary)", i, mark, want)
		}
	}
}

func TestSendFrameWriteError(t *testing.T) {
	port := serialmcu.NewRecordingPort()
	port.WriteError = errors.New("device unplugged")
	s := newTestSession(t, port, Options{})

	rot, err := pixmap.NewRotation(make([]byte, 64*64), 64, 64)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.SendFrame(rot); err == nil {
		t.Error("SendFrame succeeded despite write error")
	}
}

func TestSendFrameShortWrite(t *testing.T) {
	port := serialmcu.NewRecordingPort()
	port.ShortWrite = true
	s := newTestSession(t, port, Options{})

	rot, err := pixmap.NewRotation(make([]byte, 64*64), 64, 64)
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.SendFrame(rot)
	if !errors.Is(err, serialmcu.ErrWriteFailed) {
		t.Errorf("err = %v, want ErrWriteFailed", err)
	}
}

func TestSendFrameReportsProgress(t *testing.T) {
	port := serialmcu.NewRecordingPort()
	var last, lastTotal int
	prev := -1
	s := newTestSession(t, port, Options{Progress: func(written, total int) {
		if written < prev {
			t.Errorf("progress went backwards: %d after %d", written, prev)
		}
		prev = written
		last, lastTotal = written, total
	}})

	rot, err := pixmap.NewRotation(make([]byte, 64*64), 64, 64)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.SendFrame(rot); err != nil {
		t.Fatalf("SendFrame: %v", err)
	}
	if last != 587 || lastTotal != 587 {
		t.Errorf("final progress = %d/%d, want 587/587", last, lastTotal)
	}
}

func TestSendImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	path := filepath.Join(t.TempDir(), "frame.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	port := serialmcu.NewRecordingPort()
	s := newTestSession(t, port, Options{})

	written, err := s.SendImage(path)
	if err != nil {
		t.Fatalf("SendImage: %v", err)
	}
	if written != 587 {
		t.Errorf("written = %d, want 587", written)
	}
	if got := port.Written(); !bytes.HasPrefix(got, pixmap.Preamble()) {
		t.Error("wire bytes do not start with the sync preamble")
	}
}

func TestSendImageRejectsWrongSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, 63, 65))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	port := serialmcu.NewRecordingPort()
	s := newTestSession(t, port, Options{})

	_, err = s.SendImage(path)
	if !errors.Is(err, pixmap.ErrSizeMismatch) {
		t.Errorf("err = %v, want ErrSizeMismatch", err)
	}
	// Nothing may reach the wire on a decode failure.
	if len(port.Written()) != 0 {
		t.Errorf("%d bytes reached the wire before validation", len(port.Written()))
	}
}
