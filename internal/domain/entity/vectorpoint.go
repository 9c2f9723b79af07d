package entity

import (
	"time"

	"github.com/google/uuid"
)

// VectorPointType discriminates the two payload shapes the vector index
// stores; points are one of two kinds, distinguished by the payload field
// "type".
type VectorPointType string

const (
	VectorPointChunk     VectorPointType = "chunk"
	VectorPointAISummary VectorPointType = "ai_summary"
)

// vectorPointNamespace is the UUIDv5 namespace for deriving stable point
// IDs from logical keys (chunk_id or f"{article_id}_summary"). Point IDs
// must remain stable across re-enrichment passes for idempotent upserts.
var vectorPointNamespace = uuid.MustParse("6f1b3d0a-6e1e-4e2f-9d0a-8b6a2e6a6a6a")

// VectorPointID derives the deterministic UUIDv5 point ID for a logical key.
func VectorPointID(logicalKey string) string {
	return uuid.NewSHA1(vectorPointNamespace, []byte(logicalKey)).String()
}

// VectorPoint is the closed variant of the two payload shapes a vector
// index entry can take. Exactly one of Chunk/Summary fields is populated,
// selected by Type.
type VectorPoint struct {
	Type        VectorPointType
	PointID     string
	ArticleID   string
	Title       string
	URL         string
	Website     string
	PublishDate string // ISO-8601, may be empty
	Sentiment   SentimentLabel
	Topic       string
	SearchIDs   []string
	UserID      string

	// Populated when Type == VectorPointChunk.
	ChunkID string
	Text    string

	// Populated when Type == VectorPointAISummary.
	SummaryText []string
}

// ChunkVectorPoint builds the VectorPoint for a Chunk.
func ChunkVectorPoint(a *Article, c Chunk, topic, userID string) VectorPoint {
	return VectorPoint{
		Type:        VectorPointChunk,
		PointID:     VectorPointID(c.ChunkID),
		ArticleID:   a.ArticleID,
		ChunkID:     c.ChunkID,
		Text:        c.Text,
		Title:       a.Title,
		URL:         a.URL,
		Website:     a.Website,
		PublishDate: isoOrEmpty(a.PublishDate),
		Sentiment:   a.AISentimentLabel,
		Topic:       topic,
		SearchIDs:   append([]string(nil), a.SearchIDs...),
		UserID:      userID,
	}
}

// SummaryVectorPoint builds the VectorPoint for an article's ai_summary,
// when one exists. Call sites must check len(a.AISummary) > 0 first.
func SummaryVectorPoint(a *Article, topic, userID string) VectorPoint {
	return VectorPoint{
		Type:        VectorPointAISummary,
		PointID:     VectorPointID(a.ArticleID + "_summary"),
		ArticleID:   a.ArticleID,
		SummaryText: append([]string(nil), a.AISummary...),
		Title:       a.Title,
		URL:         a.URL,
		Website:     a.Website,
		PublishDate: isoOrEmpty(a.PublishDate),
		Sentiment:   a.AISentimentLabel,
		Topic:       topic,
		SearchIDs:   append([]string(nil), a.SearchIDs...),
		UserID:      userID,
	}
}

func isoOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02T15:04:05Z07:00")
}
