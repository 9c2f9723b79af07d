package crawl

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"hybridnews/internal/handler/http/respond"
	"hybridnews/internal/usecase/search"
)

// CreateRequest is the POST /crawl body.
type CreateRequest struct {
	Websites       []string `json:"websites"`
	KeywordSearch  string   `json:"keyword_search"`
	KeywordContent string   `json:"keyword_content"`
	StartDate      string   `json:"start_date"`
	EndDate        string   `json:"end_date"`
	MaxArticles    int      `json:"max_articles"`
	Page           int      `json:"page"`
	PageSize       int      `json:"page_size"`
	UserID         string   `json:"user_id"`
}

// CreateResponse is the immediate POST /crawl response.
type CreateResponse struct {
	SearchID          string `json:"search_id"`
	Status            string `json:"status"`
	TotalAvailableNow int    `json:"total_available_now"`
	Page              int    `json:"page"`
	PageSize          int    `json:"page_size"`
	StreamURL         string `json:"stream_url"`
}

// CreateHandler handles POST /crawl.
type CreateHandler struct {
	Orchestrator *search.Orchestrator
	Logger       *slog.Logger
}

// ServeHTTP triggers the Hybrid Search Orchestrator for a new search
// request, returning immediately with the partial result and a stream URL
// to observe completion.
//
// @Summary      Start a hybrid search + gap-fill crawl
// @Tags         crawl
// @Accept       json
// @Produce      json
// @Param        body body CreateRequest true "search request"
// @Success      200 {object} CreateResponse
// @Failure      400 {string} string "bad request"
// @Router       /crawl [post]
func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if req.UserID == "" {
		respond.Error(w, http.StatusBadRequest, errRequired("user_id"))
		return
	}
	if req.MaxArticles <= 0 {
		respond.Error(w, http.StatusBadRequest, errRequired("max_articles must be positive"))
		return
	}

	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.Orchestrator.Orchestrate(r.Context(), search.Request{
		Websites:       req.Websites,
		KeywordSearch:  req.KeywordSearch,
		KeywordContent: req.KeywordContent,
		StartDate:      start,
		EndDate:        end,
		MaxArticles:    req.MaxArticles,
		Page:           req.Page,
		PageSize:       req.PageSize,
		UserID:         req.UserID,
	})
	if err != nil {
		h.Logger.Error("crawl: orchestrate failed", slog.String("user_id", req.UserID), slog.Any("error", err))
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	respond.JSON(w, http.StatusOK, CreateResponse{
		SearchID:          result.SearchID,
		Status:            string(result.Status),
		TotalAvailableNow: result.TotalAvailableNow,
		Page:              result.Page,
		PageSize:          result.PageSize,
		StreamURL:         result.StreamURL,
	})
}

// dateLayout is the DD/MM/YYYY wire format search requests carry.
const dateLayout = "02/01/2006"

func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if startStr != "" {
		start, err = time.Parse(dateLayout, startStr)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalid("start_date")
		}
	}
	if endStr != "" {
		end, err = time.Parse(dateLayout, endStr)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalid("end_date")
		}
		// End of the requested day, so the range is inclusive.
		end = end.Add(24*time.Hour - time.Second)
	}
	return start, end, nil
}

type fieldError string

func (e fieldError) Error() string { return string(e) }

func errRequired(field string) error { return fieldError(field + " is required") }
func errInvalid(field string) error  { return fieldError("invalid " + field) }
