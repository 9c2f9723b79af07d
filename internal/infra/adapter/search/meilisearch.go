// Package search adapts Meilisearch to the lexical-index contracts the
// Store Fanout and Hybrid Search Orchestrator depend on: article upserts,
// search_id set maintenance, deletion, and the date/website-filtered
// keyword query.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"hybridnews/internal/domain/entity"
	"hybridnews/internal/resilience/circuitbreaker"
	"hybridnews/internal/resilience/retry"
	searchuc "hybridnews/internal/usecase/search"

	"github.com/meilisearch/meilisearch-go"
	"github.com/sony/gobreaker"
)

// filterableAttributes and searchableAttributes are configured idempotently
// on every fanout call; Meilisearch treats a no-op update as cheap.
var (
	filterableAttributes = []string{"website", "publish_date_ts", "search_ids"}
	searchableAttributes = []string{"title", "content", "summary"}
)

// document is the flattened shape an Article is projected into for
// indexing. publish_date_ts is a Unix-seconds mirror of publish_date kept
// purely so Meilisearch can filter on it as a number.
type document struct {
	ArticleID      string   `json:"article_id"`
	URL            string   `json:"url"`
	Title          string   `json:"title"`
	Summary        string   `json:"summary"`
	Content        string   `json:"content"`
	Website        string   `json:"website"`
	PublishDate    string   `json:"publish_date"`
	PublishDateTS  int64    `json:"publish_date_ts"`
	SiteCategories []string `json:"site_categories"`
	Tags           []string `json:"tags"`
	SearchIDs      []string `json:"search_ids"`
}

// Index is a Meilisearch-backed implementation of fanout.LexicalIndex and
// search.LexicalIndex. Every outbound call runs behind the shared circuit
// breaker + retry wrapping.
type Index struct {
	client         meilisearch.ServiceManager
	index          meilisearch.IndexManager
	uid            string
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// Config configures a Meilisearch deployment connection.
type Config struct {
	Host      string
	APIKey    string
	IndexName string
}

// New connects to Meilisearch and binds to the named index (created lazily
// by the server on first document write).
func New(cfg Config) *Index {
	client := meilisearch.New(cfg.Host, meilisearch.WithAPIKey(cfg.APIKey))
	return &Index{
		client:         client,
		index:          client.Index(cfg.IndexName),
		uid:            cfg.IndexName,
		circuitBreaker: circuitbreaker.New(circuitbreaker.LexicalIndexConfig()),
		retryConfig:    retry.IndexStoreConfig(),
	}
}

// execute runs one outbound Meilisearch interaction behind the circuit
// breaker and retry policy.
func (idx *Index) execute(ctx context.Context, fn func() error) error {
	return retry.WithBackoff(ctx, idx.retryConfig, func() error {
		_, err := idx.circuitBreaker.Execute(func() (interface{}, error) {
			return nil, fn()
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("meilisearch: circuit breaker open, request rejected",
					slog.String("index", idx.uid),
					slog.String("state", idx.circuitBreaker.State().String()))
				return fmt.Errorf("lexical index unavailable: circuit breaker open")
			}
		}
		return err
	})
}

// EnsureAttributes configures filterable/searchable attributes. Safe to
// call repeatedly; Meilisearch settings updates are idempotent.
func (idx *Index) EnsureAttributes(ctx context.Context) error {
	return idx.execute(ctx, func() error {
		if _, err := idx.index.UpdateFilterableAttributes(&filterableAttributes); err != nil {
			return fmt.Errorf("meilisearch: update filterable attributes: %w", err)
		}
		if _, err := idx.index.UpdateSearchableAttributes(&searchableAttributes); err != nil {
			return fmt.Errorf("meilisearch: update searchable attributes: %w", err)
		}
		return nil
	})
}

// UpsertArticles indexes the given articles, replacing any existing
// documents that share an article_id.
func (idx *Index) UpsertArticles(ctx context.Context, articles []*entity.Article) error {
	if len(articles) == 0 {
		return nil
	}
	docs := make([]document, 0, len(articles))
	for _, a := range articles {
		docs = append(docs, toDocument(a))
	}
	return idx.execute(ctx, func() error {
		if _, err := idx.index.UpdateDocuments(docs, "article_id"); err != nil {
			return fmt.Errorf("meilisearch: update documents: %w", err)
		}
		return nil
	})
}

func toDocument(a *entity.Article) document {
	d := document{
		ArticleID:      a.ArticleID,
		URL:            a.URL,
		Title:          a.Title,
		Summary:        a.Summary,
		Content:        a.Content,
		Website:        a.Website,
		SiteCategories: a.SiteCategories,
		Tags:           a.Tags,
		SearchIDs:      a.SearchIDs,
	}
	if a.PublishDate != nil {
		d.PublishDate = a.PublishDate.Format(time.RFC3339)
		d.PublishDateTS = a.PublishDate.Unix()
	}
	return d
}

// AddSearchID performs a partial update of search_ids for each article,
// merging searchID into whatever set Meilisearch currently holds.
// Meilisearch's UpdateDocuments is a field-level merge, so only search_ids
// needs to be present in the partial document.
func (idx *Index) AddSearchID(ctx context.Context, articleIDs []string, searchID string) error {
	if len(articleIDs) == 0 {
		return nil
	}
	var lastErr error
	for _, id := range articleIDs {
		err := idx.execute(ctx, func() error {
			var current document
			if err := idx.index.GetDocument(id, nil, &current); err != nil {
				return err
			}
			if containsString(current.SearchIDs, searchID) {
				return nil
			}
			partial := map[string]any{
				"article_id": id,
				"search_ids": append(current.SearchIDs, searchID),
			}
			if _, err := idx.index.UpdateDocuments([]map[string]any{partial}, "article_id"); err != nil {
				return err
			}
			return nil
		})
		if err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func containsString(ss []string, target string) bool {
	for _, s := range ss {
		if s == target {
			return true
		}
	}
	return false
}

// DeleteByArticleIDs removes the documents for the given article ids so
// retention sweeps clear the lexical mirror too.
func (idx *Index) DeleteByArticleIDs(ctx context.Context, articleIDs []string) error {
	if len(articleIDs) == 0 {
		return nil
	}
	return idx.execute(ctx, func() error {
		if _, err := idx.index.DeleteDocuments(articleIDs); err != nil {
			return fmt.Errorf("meilisearch: delete documents: %w", err)
		}
		return nil
	})
}

// Query runs the date/website-filtered keyword search. An empty Websites
// slice means no website filter; keyword matching itself is
// title/content substring logic the Orchestrator applies client-side on
// the returned set, so this query is intentionally permissive (a plain
// date/website-scoped browse).
func (idx *Index) Query(ctx context.Context, q searchuc.LexicalQuery) ([]*entity.Article, error) {
	limit := int64(q.Limit)
	if limit <= 0 {
		limit = 100
	}

	var clauses []string
	if !q.StartDate.IsZero() {
		clauses = append(clauses, fmt.Sprintf("publish_date_ts >= %d", q.StartDate.Unix()))
	}
	if !q.EndDate.IsZero() {
		clauses = append(clauses, fmt.Sprintf("publish_date_ts <= %d", q.EndDate.Unix()))
	}
	if len(q.Websites) > 0 {
		sites := make([]string, len(q.Websites))
		for i, w := range q.Websites {
			sites[i] = strconv.Quote(w)
		}
		clauses = append(clauses, "website IN ["+strings.Join(sites, ",")+"]")
	}

	var resp *meilisearch.SearchResponse
	err := idx.execute(ctx, func() error {
		var searchErr error
		resp, searchErr = idx.index.Search("", &meilisearch.SearchRequest{
			Filter: strings.Join(clauses, " AND "),
			Limit:  limit,
		})
		if searchErr != nil {
			return fmt.Errorf("meilisearch: search: %w", searchErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]*entity.Article, 0, len(resp.Hits))
	for _, raw := range resp.Hits {
		hitBytes, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, fromDocumentMap(hitBytes))
	}
	return out, nil
}

func fromDocumentMap(m map[string]any) *entity.Article {
	a := &entity.Article{
		ArticleID: stringField(m, "article_id"),
		URL:       stringField(m, "url"),
		Title:     stringField(m, "title"),
		Summary:   stringField(m, "summary"),
		Content:   stringField(m, "content"),
		Website:   stringField(m, "website"),
		Tags:      stringSliceField(m, "tags"),
	}
	a.SiteCategories = stringSliceField(m, "site_categories")
	a.SearchIDs = stringSliceField(m, "search_ids")
	if ts, ok := m["publish_date_ts"].(float64); ok && ts > 0 {
		t := time.Unix(int64(ts), 0).UTC()
		a.PublishDate = &t
	}
	return a
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func stringSliceField(m map[string]any, key string) []string {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
