package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wavecap/internal/library"
	"github.com/desertthunder/wavecap/internal/shared"
)

//go:embed player.html
var playerHTML []byte

// LibraryHandler serves the captured library: the embedded player page, the
// track index, star ratings, weighted-random stream picks and the audio
// files themselves. Implements the [Handler] interface.
type LibraryHandler struct {
	store  *library.Store
	logger *log.Logger
	rng    *rand.Rand
}

// NewLibraryHandler creates a handler over a library store.
//
// rng seeds the stream-mode track picker and may be nil outside of tests.
func NewLibraryHandler(store *library.Store, logger *log.Logger, rng *rand.Rand) *LibraryHandler {
	return &LibraryHandler{store: store, logger: logger, rng: rng}
}

// Routes returns the HTTP routes this handler serves.
func (h *LibraryHandler) Routes() []string {
	return []string{"/", "/api/tracks", "/api/stream", "/api/rate", "/mp3/", "/favicon.ico"}
}

// ServeHTTP dispatches library endpoints.
func (h *LibraryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	switch {
	case path == "/" && r.Method == http.MethodGet:
		h.servePlayer(w)
	case path == "/api/tracks" && r.Method == http.MethodGet:
		h.serveTracks(w, r)
	case path == "/api/stream" && r.Method == http.MethodGet:
		h.serveStreamPick(w)
	case path == "/api/rate" && r.Method == http.MethodPost:
		h.serveRate(w, r)
	case strings.HasPrefix(path, "/mp3/") && r.Method == http.MethodGet:
		h.serveAudio(w, r, strings.TrimPrefix(path, "/mp3/"))
	case path == "/favicon.ico":
		w.WriteHeader(http.StatusNoContent)
	case path == "/" || path == "/api/tracks" || path == "/api/stream" || path == "/api/rate" || strings.HasPrefix(path, "/mp3/"):
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		http.NotFound(w, r)
	}
}

func (h *LibraryHandler) servePlayer(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(playerHTML)
}

// serveTracks rescans the library and returns the fresh snapshot, so newly
// published captures show up without a restart.
func (h *LibraryHandler) serveTracks(w http.ResponseWriter, r *http.Request) {
	idx, err := h.store.Rescan()
	if err != nil {
		h.logger.Error("library scan failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "scan failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, idx)
}

func (h *LibraryHandler) serveStreamPick(w http.ResponseWriter) {
	track, ok := h.store.Index().Pick(h.rng)
	if !ok {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no tracks"})
		return
	}
	h.writeJSON(w, http.StatusOK, track)
}

type rateRequest struct {
	Path   string `json:"path"`
	Rating int    `json:"rating"`
}

func (h *LibraryHandler) serveRate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.store.Rate(req.Path, req.Rating); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, shared.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		h.writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	h.logger.Info("track rated", "path", req.Path, "rating", req.Rating)
	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// serveAudio streams one library file, honoring Range requests. rel is
// already percent-decoded by the mux.
func (h *LibraryHandler) serveAudio(w http.ResponseWriter, r *http.Request, rel string) {
	full, err := h.store.Resolve(rel)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeFile(w, r, full)
}

func (h *LibraryHandler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "err", err)
	}
}

// Serve runs an HTTP server for the given handler until ctx is canceled,
// then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *log.Logger) error {
	srv := &http.Server{Addr: addr, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("library server listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}
