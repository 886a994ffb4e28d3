// Package relay connects the request-facing API to the device session.
// A single worker owns the session and consumes one coordinate request
// at a time from a rendezvous channel: a producer's send blocks until
// the worker is ready, so at most one transmission is ever in flight
// and excess requests back-pressure the producers.
package relay

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/banshee-data/helmetmap/internal/db"
	"github.com/banshee-data/helmetmap/internal/mapfetch"
)

// Request is one queued transmission.
type Request struct {
	ID     string
	Coords string
}

// Sender transmits one image file to the display and reports the
// number of bytes written.
type Sender interface {
	SendImage(path string) (int, error)
}

// Worker owns the device session and serializes transmissions.
type Worker struct {
	requests chan Request
	provider mapfetch.Provider
	sender   Sender
	history  *db.DB
}

// NewWorker builds a worker around the provider and sender. history
// may be nil, in which case outcomes are only logged. The hand-off
// channel is unbuffered on purpose: see the package comment.
func NewWorker(provider mapfetch.Provider, sender Sender, history *db.DB) *Worker {
	return &Worker{
		requests: make(chan Request),
		provider: provider,
		sender:   sender,
		history:  history,
	}
}

// Requests returns the hand-off channel. Sending on it blocks until
// the worker is between transmissions.
func (w *Worker) Requests() chan<- Request {
	return w.requests
}

// Run consumes requests until ctx is cancelled. A fetch or transmit
// failure is returned to the caller after being recorded; the worker
// is not supervised or restarted.
func (w *Worker) Run(ctx context.Context) error {
	log.Print("[relay] listening on rendezvous channel")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-w.requests:
			if err := w.handle(ctx, req); err != nil {
				return err
			}
		}
	}
}

func (w *Worker) handle(ctx context.Context, req Request) error {
	log.Printf("[relay] loading map at %s", req.Coords)
	path, err := w.provider.Fetch(ctx, req.Coords)
	if err != nil {
		w.record(db.SendRecord{ID: req.ID, Coords: req.Coords, Status: db.StatusFailed, Error: err.Error()})
		return fmt.Errorf("fetch for %s: %w", req.ID, err)
	}

	log.Print("[relay] sending map")
	start := time.Now()
	written, err := w.sender.SendImage(path)
	elapsed := time.Since(start)

	rec := db.SendRecord{
		ID:           req.ID,
		Coords:       req.Coords,
		BytesWritten: written,
		DurationMS:   elapsed.Milliseconds(),
		Status:       db.StatusSent,
	}
	if err != nil {
		rec.Status = db.StatusFailed
		rec.Error = err.Error()
	}
	w.record(rec)

	if err != nil {
		return fmt.Errorf("send for %s: %w", req.ID, err)
	}
	log.Printf("[relay] sent map in %dms", elapsed.Milliseconds())
	return nil
}

func (w *Worker) record(rec db.SendRecord) {
	if w.history == nil {
		return
	}
	if err := w.history.RecordSend(rec); err != nil {
		log.Printf("[relay] failed to record send %s: %v", rec.ID, err)
	}
}
