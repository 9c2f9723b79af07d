// Package fixtures provides reusable test data generators for integration tests.
package fixtures

import (
	"math"
	"time"

	"hybridnews/internal/domain/entity"
)

// VectorPointOption is a functional option for customizing test vector points.
type VectorPointOption func(*entity.VectorPoint)

// NewTestChunkPoint creates a valid chunk-type VectorPoint with sensible
// defaults. Use functional options to customize it for specific test cases.
//
// Example:
//
//	point := NewTestChunkPoint()
//	point := NewTestChunkPoint(WithArticleID("abc123"), WithUserID("u1"))
func NewTestChunkPoint(opts ...VectorPointOption) entity.VectorPoint {
	articleID := entity.DeriveArticleID("https://vnexpress.net/fixture-article")
	chunk := entity.Chunk{
		ChunkID:   entity.ChunkIDFor(articleID, 0),
		ArticleID: articleID,
		Index:     0,
		Text:      GenerateShortArticle(),
	}
	article := &entity.Article{
		ArticleID:   articleID,
		URL:         "https://vnexpress.net/fixture-article",
		Title:       "Bài viết thử nghiệm",
		Website:     "vnexpress",
		Status:      entity.StatusEnriched,
		PublishDate: timePtr(time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC)),
		SearchIDs:   []string{"system_auto"},
	}
	p := entity.ChunkVectorPoint(article, chunk, "kinh-te", "system")

	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// NewTestSummaryPoint creates a valid ai_summary-type VectorPoint.
func NewTestSummaryPoint(opts ...VectorPointOption) entity.VectorPoint {
	articleID := entity.DeriveArticleID("https://vnexpress.net/fixture-article")
	article := &entity.Article{
		ArticleID:        articleID,
		URL:              "https://vnexpress.net/fixture-article",
		Title:            "Bài viết thử nghiệm",
		Website:          "vnexpress",
		Status:           entity.StatusEnriched,
		AISummary:        []string{"Câu tóm tắt thứ nhất của bài viết.", "Câu tóm tắt thứ hai của bài viết."},
		AISentimentLabel: entity.SentimentNeutral,
		SearchIDs:        []string{"system_auto"},
	}
	p := entity.SummaryVectorPoint(article, "kinh-te", "system")

	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// WithArticleID sets the ArticleID of the point.
func WithArticleID(id string) VectorPointOption {
	return func(p *entity.VectorPoint) {
		p.ArticleID = id
	}
}

// WithUserID sets the UserID of the point.
func WithUserID(userID string) VectorPointOption {
	return func(p *entity.VectorPoint) {
		p.UserID = userID
	}
}

// WithSearchIDs sets the SearchIDs of the point.
func WithSearchIDs(ids ...string) VectorPointOption {
	return func(p *entity.VectorPoint) {
		p.SearchIDs = ids
	}
}

func timePtr(t time.Time) *time.Time { return &t }

// GenerateTestVector creates a deterministic vector of the specified dimension.
// The seed value is used to generate predictable but different vectors for testing.
//
// Example:
//
//	vec := GenerateTestVector(384, 0.1) // [0.1, 0.101, 0.102, ...]
//	vec := GenerateTestVector(384, 0.5) // [0.5, 0.501, 0.502, ...]
func GenerateTestVector(dimension int, seed float32) []float32 {
	vec := make([]float32, dimension)
	for i := 0; i < dimension; i++ {
		vec[i] = seed + float32(i)*0.001
	}
	return vec
}

// ZeroVector creates a vector of zeros with the specified dimension.
// Useful for testing edge cases with zero vectors.
func ZeroVector(dimension int) []float32 {
	return make([]float32, dimension)
}

// UnitVector creates a unit vector with 1.0 at the specified index and 0.0 elsewhere.
// Useful for testing specific similarity calculations.
//
// Example:
//
//	vec := UnitVector(384, 0)    // [1.0, 0.0, 0.0, ...]
//	vec := UnitVector(384, 100)  // [0.0, ..., 1.0, 0.0, ...]
func UnitVector(dimension int, index int) []float32 {
	vec := make([]float32, dimension)
	if index >= 0 && index < dimension {
		vec[index] = 1.0
	}
	return vec
}

// NormalizedVector creates a normalized vector (unit length) from the seed.
// The resulting vector has a magnitude of 1.0, suitable for cosine similarity tests.
func NormalizedVector(dimension int, seed float32) []float32 {
	vec := GenerateTestVector(dimension, seed)

	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	m := float32(math.Sqrt(magnitude))

	if m > 0 {
		for i := range vec {
			vec[i] /= m
		}
	}
	return vec
}

// SimilarVector creates a vector directionally similar to the base vector.
// The retentionRatio parameter controls how much of the base vector is retained:
//   - 1.0 = identical to base vector (no perturbation)
//   - 0.0 = maximum perturbation (least similar)
//
// Note: This produces an approximate directionally similar vector for testing purposes.
// It does NOT guarantee a specific cosine similarity value.
func SimilarVector(base []float32, retentionRatio float32) []float32 {
	dimension := len(base)
	result := make([]float32, dimension)

	perturbation := 1.0 - retentionRatio
	for i := 0; i < dimension; i++ {
		noise := perturbation * float32(i%10) * 0.01
		result[i] = base[i]*retentionRatio + noise
	}
	return result
}
