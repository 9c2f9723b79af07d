// Package search implements the Hybrid Search Orchestrator: it
// reconciles a user query against the lexical and vector indices, persists
// a SearchSession, and, when short of the requested count, dispatches a
// background crawl task without blocking the caller.
package search

import (
	"context"
	"time"

	"hybridnews/internal/domain/entity"
)

// LexicalQuery is the filter the Orchestrator sends to the lexical index.
type LexicalQuery struct {
	StartDate time.Time
	EndDate   time.Time
	Websites  []string
	Limit     int
}

// LexicalIndex is the slice of the Meilisearch adapter the Orchestrator
// needs to run the date/website-filtered keyword query.
type LexicalIndex interface {
	Query(ctx context.Context, q LexicalQuery) ([]*entity.Article, error)
}

// CrawlRequest parameterizes a background gap-fill crawl task, a copy of
// the original search request with MaxArticles reduced to the gap.
type CrawlRequest struct {
	SearchID       string
	Websites       []string
	KeywordSearch  string
	KeywordContent string
	StartDate      time.Time
	EndDate        time.Time
	MaxArticles    int
	UserID         string
}

// CrawlDispatcher enqueues a background crawl task onto the worker pool.
// Dispatch must not block the caller; the Orchestrator never blocks
// on crawling.
type CrawlDispatcher interface {
	Dispatch(req CrawlRequest)
}
