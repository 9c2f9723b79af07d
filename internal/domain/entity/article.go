// Package entity defines the core domain entities and validation logic for the application.
// It contains the fundamental business objects (Article, Chunk, SearchSession and Topic)
// along with their validation rules and domain-specific errors.
package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// ArticleStatus is the enrichment lifecycle state of an Article.
// Transitions are monotonic and serialized through the document store:
// raw -> processing -> enriched | ai_error.
type ArticleStatus string

const (
	StatusRaw        ArticleStatus = "raw"
	StatusProcessing ArticleStatus = "processing"
	StatusEnriched   ArticleStatus = "enriched"
	StatusAIError    ArticleStatus = "ai_error"
)

// SentimentLabel is the classified sentiment of an article's text.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "Positive"
	SentimentNegative SentimentLabel = "Negative"
	SentimentNeutral  SentimentLabel = "Neutral"
)

// MinEnrichableContentLength is the content-length threshold below which
// enrichment synthesizes a Neutral result without invoking any model.
const MinEnrichableContentLength = 50

// ChunkSize is the default character-window size used to derive Chunks from content.
const ChunkSize = 1000

// MinChunkLength is the minimum length a trailing chunk slice must have to be kept.
const MinChunkLength = 50

// Article is the canonical crawled-news unit. Identity is article_id, a
// deterministic function of URL; url is a unique secondary key.
type Article struct {
	ArticleID        string
	URL              string
	Title            string
	Summary          string
	Content          string
	SiteCategories   []string
	Tags             []string
	PublishDate      *time.Time
	CrawledAt        time.Time
	Website          string
	Status           ArticleStatus
	AISummary        []string
	AISentimentScore float64
	AISentimentLabel SentimentLabel
	LastEnrichedAt   *time.Time
	SearchIDs        []string
}

// DeriveArticleID computes the stable opaque article_id for a URL.
// It is a pure function of the normalized URL; re-crawling the same page
// always maps to the same article.
func DeriveArticleID(url string) string {
	normalized := normalizeURL(url)
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// normalizeURL trims whitespace and a trailing slash so that trivially
// equivalent URLs hash to the same article_id.
func normalizeURL(url string) string {
	u := strings.TrimSpace(url)
	u = strings.TrimSuffix(u, "/")
	return strings.ToLower(u)
}

// HasSearchID reports whether the article's search_id set already contains id.
func (a *Article) HasSearchID(id string) bool {
	for _, existing := range a.SearchIDs {
		if existing == id {
			return true
		}
	}
	return false
}

// AddSearchID grows the search_id set, a no-op if id is already present.
// search_id only grows; elements are removed solely by history retention.
func (a *Article) AddSearchID(id string) {
	if !a.HasSearchID(id) {
		a.SearchIDs = append(a.SearchIDs, id)
	}
}

// IsEnrichable reports whether content is long enough to run the
// extractive-summary + sentiment pipeline instead of the short-circuit path.
func (a *Article) IsEnrichable() bool {
	return utf8.RuneCountInString(a.Content) >= MinEnrichableContentLength
}

// EnrichmentInput selects the text enrichment should operate on: prefer
// content, fall back to summary.
func (a *Article) EnrichmentInput() string {
	if a.Content != "" {
		return a.Content
	}
	return a.Summary
}

// Chunk is a fixed-size text window derived from an Article's content.
type Chunk struct {
	ChunkID   string
	ArticleID string
	Index     int
	Text      string
}

// ChunkIDFor returns the "<article_id>_<index>" identity for a chunk.
func ChunkIDFor(articleID string, index int) string {
	return articleID + "_" + strconv.Itoa(index)
}

// ChunkContent splits content into fixed-size windows of size chunkSize,
// dropping any trailing slice shorter than MinChunkLength. Idempotent
// under stable content.
func ChunkContent(articleID, content string, chunkSize int) []Chunk {
	if chunkSize <= 0 {
		chunkSize = ChunkSize
	}
	runes := []rune(content)
	var chunks []Chunk
	idx := 0
	for start := 0; start < len(runes); start += chunkSize {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		if end-start < MinChunkLength {
			break
		}
		text := string(runes[start:end])
		chunks = append(chunks, Chunk{
			ChunkID:   ChunkIDFor(articleID, idx),
			ArticleID: articleID,
			Index:     idx,
			Text:      text,
		})
		idx++
	}
	return chunks
}
