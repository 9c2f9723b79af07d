package chatbot

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"hybridnews/internal/handler/http/respond"
	"hybridnews/internal/usecase/retrieve"
)

// RetrieveRequest is the POST /chatbot/retrieve-context body.
type RetrieveRequest struct {
	Question string `json:"question"`
	UserID   string `json:"user_id"`
	TopK     int    `json:"top_k"`
}

// HitDTO mirrors retrieve.Hit over the wire.
type HitDTO struct {
	Text        string  `json:"text"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Score       float64 `json:"score"`
	PublishDate string  `json:"publish_date,omitempty"`
	Sentiment   string  `json:"sentiment,omitempty"`
}

// RetrieveHandler handles POST /chatbot/retrieve-context.
type RetrieveHandler struct {
	Svc    *retrieve.Service
	Logger *slog.Logger
}

// ServeHTTP runs vector-only semantic search for chat grounding context.
//
// @Summary      Retrieve semantic search context for the chat assistant
// @Tags         chatbot
// @Accept       json
// @Produce      json
// @Param        body body RetrieveRequest true "retrieval request"
// @Success      200 {object} RetrieveResponse
// @Router       /chatbot/retrieve-context [post]
func (h RetrieveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Question == "" {
		respond.Error(w, http.StatusBadRequest, errEmptyQuery)
		return
	}
	topK := req.TopK
	if topK <= 0 {
		topK = 5
	}

	hits, err := h.Svc.RetrieveContext(r.Context(), req.Question, req.UserID, topK)
	if err != nil {
		h.Logger.Error("chatbot: retrieve context failed", slog.Any("error", err))
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]HitDTO, 0, len(hits))
	for _, hit := range hits {
		out = append(out, HitDTO{
			Text:        hit.Text,
			Title:       hit.Title,
			URL:         hit.URL,
			Score:       hit.Score,
			PublishDate: hit.PublishDate,
			Sentiment:   hit.Sentiment,
		})
	}
	respond.JSON(w, http.StatusOK, RetrieveResponse{Contexts: out})
}

// RetrieveResponse wraps the ranked context hits.
type RetrieveResponse struct {
	Contexts []HitDTO `json:"contexts"`
}

type queryError string

func (e queryError) Error() string { return string(e) }

const errEmptyQuery = queryError("question is required")
