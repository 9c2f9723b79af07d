// Package crawl exposes the Hybrid Search Orchestrator and Progress
// Stream over HTTP: POST /crawl kicks off a search+gap-fill crawl, and the
// two GET endpoints let a client observe its progress.
package crawl

import (
	"log/slog"
	"net/http"

	"hybridnews/internal/usecase/progress"
	"hybridnews/internal/usecase/search"
)

// Register wires the crawl endpoints onto mux.
func Register(mux *http.ServeMux, orchestrator *search.Orchestrator, stream *progress.Stream, logger *slog.Logger) {
	mux.Handle("POST /crawl", CreateHandler{Orchestrator: orchestrator, Logger: logger})
	mux.Handle("GET /crawl/status/{id}", StatusHandler{Stream: stream})
	mux.Handle("GET /crawl/stream-status/{id}", StreamHandler{Stream: stream, Logger: logger})
}
