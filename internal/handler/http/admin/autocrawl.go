package admin

import (
	"context"
	"log/slog"
	"net/http"

	"hybridnews/internal/handler/http/respond"
	"hybridnews/internal/usecase/topic"
)

// AutoCrawlHandler handles POST /admin/auto-crawl/{website}, an on-demand
// Topic Scheduler tick scoped to one site.
type AutoCrawlHandler struct {
	Scheduler *topic.Scheduler
	Logger    *slog.Logger
}

// ServeHTTP triggers an immediate scheduler tick for one website. The scan
// runs in the background; the response only acknowledges the trigger.
//
// @Summary      Trigger an on-demand topic crawl for a website
// @Tags         admin
// @Produce      json
// @Param        website path string true "website identifier"
// @Success      202 {string} string "accepted"
// @Router       /admin/auto-crawl/{website} [post]
func (h AutoCrawlHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	website := r.PathValue("website")
	if website == "" {
		respond.Error(w, http.StatusBadRequest, errMissingWebsite)
		return
	}
	if _, ok := h.Scheduler.Registry.Adapter(website); !ok {
		respond.Error(w, http.StatusBadRequest, errUnknownWebsite)
		return
	}

	go func() {
		if err := h.Scheduler.TriggerSite(context.Background(), website); err != nil {
			h.Logger.Error("admin: triggered topic crawl failed", slog.String("website", website), slog.Any("error", err))
		}
	}()

	respond.JSON(w, http.StatusAccepted, map[string]string{"status": "triggered", "website": website})
}

type adminError string

func (e adminError) Error() string { return string(e) }

const (
	errMissingWebsite = adminError("website is required")
	errUnknownWebsite = adminError("unknown website")
)
