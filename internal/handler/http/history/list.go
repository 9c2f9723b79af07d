package history

import (
	"net/http"

	"hybridnews/internal/domain/entity"
	"hybridnews/internal/handler/http/respond"
	"hybridnews/internal/repository"
)

// SessionDTO is the wire shape of a SearchSession in history listings.
type SessionDTO struct {
	SearchID      string   `json:"search_id"`
	KeywordSearch string   `json:"keyword_search"`
	Status        string   `json:"status"`
	TotalSaved    int      `json:"total_saved"`
	MaxRequested  int      `json:"max_articles_requested"`
	Websites      []string `json:"websites"`
	CreatedAt     string   `json:"created_at"`
	DataCleared   bool     `json:"data_cleared"`
}

// ListHandler handles GET /history?user_id=...
type ListHandler struct {
	Sessions repository.SearchSessionRepository
}

// ServeHTTP lists a user's SearchSessions, newest first.
//
// @Summary      List a user's search history
// @Tags         history
// @Produce      json
// @Param        user_id query string true "user id"
// @Success      200 {array} SessionDTO
// @Router       /history [get]
func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respond.Error(w, http.StatusBadRequest, errMissingUserID)
		return
	}

	sessions, err := h.Sessions.ListByUser(r.Context(), userID)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	// The retention sweep runs asynchronously, so the listing may briefly
	// hold more than the retained count; cap it here.
	if len(sessions) > entity.DefaultHistoryRetention {
		sessions = sessions[:entity.DefaultHistoryRetention]
	}

	out := make([]SessionDTO, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toDTO(s))
	}
	respond.JSON(w, http.StatusOK, out)
}

func toDTO(s *entity.SearchSession) SessionDTO {
	return SessionDTO{
		SearchID:      s.SearchID,
		KeywordSearch: s.KeywordSearch,
		Status:        string(s.Status),
		TotalSaved:    s.TotalSaved,
		MaxRequested:  s.MaxArticlesRequested,
		Websites:      s.Websites,
		CreatedAt:     s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		DataCleared:   s.DataCleared,
	}
}

type missingParamError string

func (e missingParamError) Error() string { return string(e) }

const errMissingUserID = missingParamError("user_id is required")
