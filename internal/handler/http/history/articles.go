package history

import (
	"net/http"

	"hybridnews/internal/common/pagination"
	"hybridnews/internal/domain/entity"
	"hybridnews/internal/handler/http/respond"
	"hybridnews/internal/repository"
)

// ArticleDTO is the wire shape of an Article in a paginated history listing.
type ArticleDTO struct {
	ArticleID   string   `json:"article_id"`
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Website     string   `json:"website"`
	Status      string   `json:"status"`
	AISummary   []string `json:"ai_summary,omitempty"`
	Sentiment   string   `json:"sentiment,omitempty"`
	PublishDate string   `json:"publish_date,omitempty"`
}

// ArticlesResponse is the paginated GET /history/{search_id}/articles body.
type ArticlesResponse struct {
	Data       []ArticleDTO        `json:"data"`
	Pagination pagination.Metadata `json:"pagination"`
}

// ArticlesHandler handles GET /history/{search_id}/articles.
type ArticlesHandler struct {
	Articles      repository.ArticleRepository
	PaginationCfg pagination.Config
}

// ServeHTTP returns the page of articles a SearchSession saved.
//
// @Summary      List the articles a search session saved
// @Tags         history
// @Produce      json
// @Param        search_id path string true "search_id"
// @Param        page query int false "page number"
// @Param        limit query int false "page size"
// @Success      200 {object} ArticlesResponse
// @Router       /history/{search_id}/articles [get]
func (h ArticlesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	searchID := r.PathValue("search_id")

	params, err := pagination.ParseQueryParams(r, h.PaginationCfg)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	offset := (params.Page - 1) * params.Limit
	articles, total, err := h.Articles.ListBySearchIDPaginated(r.Context(), searchID, offset, params.Limit)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	totalPages := int(total) / params.Limit
	if int(total)%params.Limit != 0 {
		totalPages++
	}

	out := make([]ArticleDTO, 0, len(articles))
	for _, a := range articles {
		out = append(out, toArticleDTO(a))
	}

	respond.JSON(w, http.StatusOK, ArticlesResponse{
		Data: out,
		Pagination: pagination.Metadata{
			Total:      total,
			Page:       params.Page,
			Limit:      params.Limit,
			TotalPages: totalPages,
		},
	})
}

func toArticleDTO(a *entity.Article) ArticleDTO {
	dto := ArticleDTO{
		ArticleID: a.ArticleID,
		URL:       a.URL,
		Title:     a.Title,
		Summary:   a.Summary,
		Website:   a.Website,
		Status:    string(a.Status),
		AISummary: a.AISummary,
		Sentiment: string(a.AISentimentLabel),
	}
	if a.PublishDate != nil {
		dto.PublishDate = a.PublishDate.Format("2006-01-02T15:04:05Z07:00")
	}
	return dto
}
