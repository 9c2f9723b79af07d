package crawl

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"hybridnews/internal/usecase/progress"
)

// StreamHandler handles GET /crawl/stream-status/{id}, a server-sent-events
// push of progress.Event frames.
type StreamHandler struct {
	Stream *progress.Stream
	Logger *slog.Logger
}

type streamFrame struct {
	Type       string `json:"type"`
	SearchID   string `json:"search_id"`
	Status     string `json:"status,omitempty"`
	TotalSaved int    `json:"total_saved,omitempty"`
	FinalCount int    `json:"final_count,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// ServeHTTP streams progress events as text/event-stream frames until the
// session completes or the client disconnects.
//
// @Summary      Stream crawl progress
// @Tags         crawl
// @Produce      text/event-stream
// @Param        id path string true "search_id"
// @Router       /crawl/stream-status/{id} [get]
func (h StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	searchID := r.PathValue("id")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	err := h.Stream.Subscribe(r.Context(), searchID, func(ev progress.Event) error {
		frame := streamFrame{
			Type:       ev.Type,
			SearchID:   ev.SearchID,
			Status:     string(ev.Status),
			TotalSaved: ev.TotalSaved,
			FinalCount: ev.FinalCount,
			Timestamp:  ev.Timestamp.UTC().Format(time.RFC3339),
		}
		payload, err := json.Marshal(frame)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil && r.Context().Err() == nil {
		h.Logger.Warn("crawl: progress stream ended with error", slog.String("search_id", searchID), slog.Any("error", err))
	}
}
