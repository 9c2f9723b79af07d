// Package admin exposes operator controls over the Topic Scheduler: an
// on-demand site trigger and the tick-interval reconfiguration.
package admin

import (
	"log/slog"
	"net/http"

	"hybridnews/internal/handler/http/auth"
	"hybridnews/internal/usecase/topic"
)

// Register wires the admin endpoints onto mux, gated behind auth.Authz.
func Register(mux *http.ServeMux, scheduler *topic.Scheduler, logger *slog.Logger) {
	mux.Handle("POST /admin/auto-crawl/{website}", auth.Authz(AutoCrawlHandler{Scheduler: scheduler, Logger: logger}))
	mux.Handle("POST /admin/schedule", auth.Authz(ScheduleHandler{Scheduler: scheduler}))
}
