package topics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"hybridnews/internal/domain/entity"
	"hybridnews/internal/handler/http/respond"
	"hybridnews/internal/repository"

	"github.com/PuerkitoBio/goquery"
)

// InitRequest is the POST /topics/init-from-html body: a navigation page
// to scan for category links, and the CSS selector that isolates them.
type InitRequest struct {
	Website  string `json:"website"`
	NavURL   string `json:"nav_url"`
	Selector string `json:"selector"`
}

// InitResponse reports how many Topics were registered or skipped.
type InitResponse struct {
	Registered int `json:"registered"`
	Skipped    int `json:"skipped"`
}

// InitHandler handles POST /topics/init-from-html.
type InitHandler struct {
	Topics repository.TopicRepository
	Client *http.Client
}

// ServeHTTP fetches nav_url, extracts every link matching selector, and
// upserts one active Topic per distinct absolute URL.
//
// @Summary      Seed Topics from a publisher's navigation page
// @Tags         topics
// @Accept       json
// @Produce      json
// @Param        body body InitRequest true "navigation scan request"
// @Success      200 {object} InitResponse
// @Router       /topics/init-from-html [post]
func (h InitHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req InitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Website == "" || req.NavURL == "" || req.Selector == "" {
		respond.Error(w, http.StatusBadRequest, errMissingFields)
		return
	}

	base, err := url.Parse(req.NavURL)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, fmt.Errorf("invalid nav_url: %w", err))
		return
	}

	httpReq, err := http.NewRequestWithContext(r.Context(), http.MethodGet, req.NavURL, nil)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	resp, err := h.Client.Do(httpReq)
	if err != nil {
		respond.SafeError(w, http.StatusBadGateway, fmt.Errorf("fetch nav_url: %w", err))
		return
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		respond.SafeError(w, http.StatusBadGateway, fmt.Errorf("parse nav_url: %w", err))
		return
	}

	seen := make(map[string]bool)
	registered, skipped := 0, 0
	doc.Find(req.Selector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		resolved, err := base.Parse(strings.TrimSpace(href))
		if err != nil {
			skipped++
			return
		}
		absURL := resolved.String()
		if seen[absURL] {
			return
		}
		seen[absURL] = true

		name := strings.TrimSpace(sel.Text())
		if name == "" {
			name = absURL
		}

		err = h.Topics.Upsert(r.Context(), &entity.Topic{
			URL:      absURL,
			Name:     name,
			Website:  req.Website,
			IsActive: true,
		})
		if err != nil {
			skipped++
			return
		}
		registered++
	})

	respond.JSON(w, http.StatusOK, InitResponse{Registered: registered, Skipped: skipped})
}

type initError string

func (e initError) Error() string { return string(e) }

const errMissingFields = initError("website, nav_url and selector are required")
