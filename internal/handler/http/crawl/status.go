package crawl

import (
	"net/http"
	"time"

	"hybridnews/internal/handler/http/respond"
	"hybridnews/internal/usecase/progress"
)

// StatusResponse is the poll-once snapshot response for clients that
// cannot hold an SSE stream open.
type StatusResponse struct {
	SearchID   string `json:"search_id"`
	Status     string `json:"status"`
	TotalSaved int    `json:"total_saved"`
	UpdatedAt  string `json:"updated_at"`
}

// StatusHandler handles GET /crawl/status/{id}.
type StatusHandler struct {
	Stream *progress.Stream
}

// ServeHTTP returns the current (status, total_saved) for a search_id.
//
// @Summary      Poll crawl status once
// @Tags         crawl
// @Produce      json
// @Param        id path string true "search_id"
// @Success      200 {object} StatusResponse
// @Router       /crawl/status/{id} [get]
func (h StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	searchID := r.PathValue("id")
	snap, err := h.Stream.Snapshot(r.Context(), searchID)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	if snap.SearchID == "" {
		respond.Error(w, http.StatusNotFound, errInvalid("search_id"))
		return
	}
	respond.JSON(w, http.StatusOK, StatusResponse{
		SearchID:   snap.SearchID,
		Status:     string(snap.Status),
		TotalSaved: snap.TotalSaved,
		UpdatedAt:  snap.UpdatedAt.UTC().Format(time.RFC3339),
	})
}
