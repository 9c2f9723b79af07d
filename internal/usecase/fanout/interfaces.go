// Package fanout implements the Store Fanout component: it keeps the
// document store, lexical index and vector index in eventual agreement,
// treating the document store as the source of truth.
package fanout

import (
	"context"

	"hybridnews/internal/domain/entity"
)

// LexicalIndex is the narrow contract the Service needs from Meilisearch.
type LexicalIndex interface {
	// EnsureAttributes configures filterable/searchable attributes. It must
	// be safe to call on every fanout invocation (idempotent
	// attribute configuration).
	EnsureAttributes(ctx context.Context) error

	UpsertArticles(ctx context.Context, articles []*entity.Article) error
	AddSearchID(ctx context.Context, articleIDs []string, searchID string) error
	DeleteByArticleIDs(ctx context.Context, articleIDs []string) error
}

// VectorIndex is the narrow contract the Service needs from Qdrant.
type VectorIndex interface {
	EnsureCollection(ctx context.Context) error

	UpsertPoints(ctx context.Context, points []entity.VectorPoint, vectors map[string][]float32) error
	AddSearchID(ctx context.Context, articleIDs []string, searchID string) error
	DeleteByArticleIDs(ctx context.Context, articleIDs []string) error
}

// EmbeddingProvider is the slice of internal/usecase/enrich's provider
// contract that fanout needs to vectorize new/updated articles.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
