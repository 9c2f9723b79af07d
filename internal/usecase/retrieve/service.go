// Package retrieve implements the Retrieval Interface consumed by the chat
// assistant layer: vector-only semantic search with optional
// user_id scoping.
package retrieve

import (
	"context"
	"fmt"
)

// EmbeddingProvider turns a query into the same vector space the chunk and
// summary points were embedded into.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Hit is one retrieval result, read from a chunk payload or joined
// summary_text when the underlying point is of type ai_summary.
type Hit struct {
	Text        string
	Title       string
	URL         string
	Score       float64
	PublishDate string
	Sentiment   string
}

// VectorIndex is the slice of the Qdrant adapter the Retrieval Interface
// needs.
type VectorIndex interface {
	SimilaritySearch(ctx context.Context, vector []float32, topK int, userID string) ([]Hit, error)
}

// Service is the Retrieval Interface.
type Service struct {
	Vector   VectorIndex
	Embedder EmbeddingProvider
}

// NewService builds a Retrieval Interface Service.
func NewService(vector VectorIndex, embedder EmbeddingProvider) *Service {
	return &Service{Vector: vector, Embedder: embedder}
}

// RetrieveContext runs vector-only semantic search for the chat assistant
// layer: at most topK hits, optionally scoped to userID ∈ {caller,
// "system", "system_auto"}.
func (s *Service) RetrieveContext(ctx context.Context, query string, userID string, topK int) ([]Hit, error) {
	vec, err := s.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.Vector.SimilaritySearch(ctx, vec, topK, userID)
}
