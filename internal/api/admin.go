package api

import (
	"bytes"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"tailscale.com/tsweb"

	"github.com/banshee-data/helmetmap/internal/httputil"
	"github.com/banshee-data/helmetmap/internal/relay"
)

var sendCoordsTemplate = template.Must(template.New("send-coords").Parse(`<!DOCTYPE html>
<html>
<head><title>send coordinates</title></head>
<body>
  <h1>Queue a map transmission</h1>
  <form method="POST" action="send-coords-api">
    <input type="text" name="coords" placeholder="47.4979,19.0402" size="30">
    <button type="submit">Send</button>
  </form>
</body>
</html>
`))

// AttachAdminRoutes attaches admin debugging endpoints to the given
// HTTP mux served at /debug/. These routes are accessible only over
// localhost/via Tailscale and are not publicly accessible.
func (s *Server) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	// Minimal form for queueing a transmission by hand.
	debug.HandleFunc("send-coords", "queue a map transmission", func(w http.ResponseWriter, r *http.Request) {
		buf := bytes.NewBuffer(nil)
		if err := sendCoordsTemplate.Execute(buf, nil); err != nil {
			http.Error(w, "Failed to render template", http.StatusInternalServerError)
			return
		}
		io.Copy(w, buf)
	})

	debug.HandleSilentFunc("send-coords-api", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		coords := strings.TrimSpace(r.FormValue("coords"))
		if coords == "" {
			http.Error(w, "Missing coords", http.StatusBadRequest)
			return
		}
		req := relay.Request{ID: uuid.NewString(), Coords: coords}
		select {
		case s.requests <- req:
			io.WriteString(w, "Queued transmission "+req.ID+" for "+coords)
		case <-r.Context().Done():
		}
	})

	// Recent transmission outcomes as JSON.
	debug.HandleSilentFunc("recent-sends", func(w http.ResponseWriter, r *http.Request) {
		if s.history == nil {
			httputil.WriteJSONOK(w, nil)
			return
		}
		records, err := s.history.RecentSends(50)
		if err != nil {
			httputil.InternalServerError(w, "failed to load send history")
			return
		}
		httputil.WriteJSONOK(w, records)
	})
}
