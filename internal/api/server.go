// Package api exposes the HTTP control surface: a coordinate endpoint
// that hands requests to the transmit worker over the rendezvous
// channel, and a read-only view of the send history.
package api

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/helmetmap/internal/db"
	"github.com/banshee-data/helmetmap/internal/httputil"
	"github.com/banshee-data/helmetmap/internal/relay"
	"github.com/banshee-data/helmetmap/internal/version"
)

// ANSI escape codes for the request log.
const (
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

type Server struct {
	requests chan<- relay.Request
	history  *db.DB
}

// NewServer builds the API server around the worker's hand-off channel
// and the send history database (which may be nil).
func NewServer(requests chan<- relay.Request, history *db.DB) *Server {
	return &Server{
		requests: requests,
		history:  history,
	}
}

// ServeMux returns the API routes.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/coords/", s.sendCoordsHandler)
	mux.HandleFunc("/sends", s.listSendsHandler)
	return mux
}

// sendCoordsHandler queues one map transmission. The rendezvous send
// blocks until the worker accepts the request, never until the
// hardware transmission finishes.
func (s *Server) sendCoordsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	coords := strings.TrimPrefix(r.URL.Path, "/coords/")
	if coords == "" || strings.Contains(coords, "/") {
		httputil.BadRequest(w, "expected a single coordinate path segment")
		return
	}

	req := relay.Request{ID: uuid.NewString(), Coords: coords}
	select {
	case s.requests <- req:
		httputil.WriteJSONOK(w, map[string]string{"status": "accepted", "id": req.ID})
	case <-r.Context().Done():
		// Client gave up while the worker was busy; nothing queued.
	}
}

func (s *Server) listSendsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.history == nil {
		httputil.WriteJSONOK(w, []db.SendRecord{})
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httputil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := s.history.RecentSends(limit)
	if err != nil {
		httputil.InternalServerError(w, "failed to load send history")
		return
	}
	if records == nil {
		records = []db.SendRecord{}
	}
	httputil.WriteJSONOK(w, records)
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

// LoggingMiddleware logs method, path, status, and duration for every
// request, and stamps responses with the build version.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		w.Header().Set("X-Helmetmap-Version", version.Version)
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf("[%s] %s %s %vms",
			statusCodeColor(lrw.statusCode), r.Method, r.URL.Path,
			time.Since(start).Milliseconds())
	})
}
