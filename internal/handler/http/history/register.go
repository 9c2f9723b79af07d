// Package history exposes a user's SearchSession history and the paged
// articles each session saved.
package history

import (
	"net/http"

	"hybridnews/internal/common/pagination"
	"hybridnews/internal/repository"
)

// Register wires the history endpoints onto mux.
func Register(mux *http.ServeMux, sessions repository.SearchSessionRepository, articles repository.ArticleRepository, paginationCfg pagination.Config) {
	mux.Handle("GET /history", ListHandler{Sessions: sessions})
	mux.Handle("GET /history/{search_id}/articles", ArticlesHandler{Articles: articles, PaginationCfg: paginationCfg})
}
