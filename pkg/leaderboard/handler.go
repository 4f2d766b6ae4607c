package leaderboard

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/ripixel/fitglue-leaderboard/pkg/snapshot"
)

// Handler serves the rendered page at "/" and the raw document at
// "/weekly.json".
type Handler struct {
	Renderer *Renderer
	Source   Source
	Logger   *slog.Logger
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/", "/index.html":
		h.servePage(w, r)
	case "/weekly.json", "/data/weekly.json":
		h.serveData(w, r)
	default:
		http.NotFound(w, r)
	}
}

// servePage always answers 200; load failures are part of the page.
func (h *Handler) servePage(w http.ResponseWriter, r *http.Request) {
	page := h.Renderer.Render(r.Context(), h.Source)

	var buf bytes.Buffer
	if err := WritePage(&buf, page); err != nil {
		h.logger().Error("Failed to render page", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(buf.Bytes())
}

func (h *Handler) serveData(w http.ResponseWriter, r *http.Request) {
	s, err := h.Source.Load(r.Context())
	if err != nil {
		h.logger().Error("Failed to load snapshot", "error", err)
		http.Error(w, snapshot.Describe(err), http.StatusBadGateway)
		return
	}
	data, err := snapshot.Encode(s)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default().With("component", "leaderboard")
}
