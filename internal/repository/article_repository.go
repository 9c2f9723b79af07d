// Package repository declares the document-store contracts consumed by the
// usecase layer. Implementations live under internal/infra/adapter.
package repository

import (
	"context"
	"time"

	"hybridnews/internal/domain/entity"
)

// ArticleFilter narrows ListByStatus / Search results.
type ArticleFilter struct {
	Websites    []string
	StartDate   *time.Time
	EndDate     *time.Time
	SearchID    string
}

// ArticleRepository is the document-store contract for Article. It is the
// source of truth: lexical and vector stores are repaired from it.
type ArticleRepository interface {
	// GetByURL returns (nil, nil) if no article has this URL.
	GetByURL(ctx context.Context, url string) (*entity.Article, error)
	GetByID(ctx context.Context, articleID string) (*entity.Article, error)
	GetByIDs(ctx context.Context, articleIDs []string) ([]*entity.Article, error)

	// Upsert inserts or updates an article keyed by URL ($addToSet
	// semantics on search_id are applied by the caller via
	// AddSearchIDs before calling Upsert, or via AddSearchID below for an
	// existing row).
	Upsert(ctx context.Context, article *entity.Article) error

	// AddSearchID appends searchID to every article's search_id set.
	// A no-op for an article whose set already contains it.
	AddSearchID(ctx context.Context, articleIDs []string, searchID string) error

	// RemoveSearchID removes searchID from every article's search_id set,
	// used by history retention.
	RemoveSearchID(ctx context.Context, searchID string) error

	// ListEmptySearchIDArticles returns ids of articles whose search_id set
	// is currently empty, candidates for deletion by retention.
	ListEmptySearchIDArticles(ctx context.Context) ([]string, error)

	// ClaimForEnrichment atomically transitions up to limit articles whose
	// status is raw or ai_error to processing, and returns them.
	ClaimForEnrichment(ctx context.Context, limit int) ([]*entity.Article, error)

	// MarkEnriched writes through the five enrichment fields and sets
	// status=enriched.
	MarkEnriched(ctx context.Context, article *entity.Article) error

	// MarkAIError sets status=ai_error so the article is retried on the
	// next enrichment tick.
	MarkAIError(ctx context.Context, articleID string) error

	// Search runs the lexical-equivalent filter directly against the
	// document store; used only as a fallback when the lexical index is
	// unavailable (search returns whatever it has).
	Search(ctx context.Context, filter ArticleFilter, limit int) ([]*entity.Article, error)

	DeleteByArticleIDs(ctx context.Context, articleIDs []string) error

	ExistsByURLBatch(ctx context.Context, urls []string) (map[string]bool, error)

	// CountBySearchID counts articles whose search_id set contains id, used
	// by the Progress Stream.
	CountBySearchID(ctx context.Context, searchID string) (int64, error)

	// ListBySearchIDPaginated backs GET /history/{search_id}/articles.
	ListBySearchIDPaginated(ctx context.Context, searchID string, offset, limit int) ([]*entity.Article, int64, error)
}
