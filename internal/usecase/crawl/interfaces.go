// Package crawl implements the Crawl Executor: given a gap-fill or
// explicit crawl request, it iterates sites sequentially, pages each site's
// search endpoint, and fetches article details concurrently under a
// process-wide semaphore.
package crawl

import (
	"context"
	"time"
)

// LinkStub is one listing-page hit: a candidate article to fetch in detail.
type LinkStub struct {
	URL         string
	Title       string
	PublishDate *time.Time
}

// ParsedDoc is the opaque listing document an adapter parses a page into;
// its shape is adapter-specific and only ExtractLinks interprets it.
type ParsedDoc any

// SiteAdapter is the per-publisher crawling contract. Implementations live
// under internal/infra/crawl/site.
type SiteAdapter interface {
	// FetchSearchPage returns the page-th page of keyword search results,
	// or nil if the page is beyond the site's result set.
	FetchSearchPage(ctx context.Context, keyword string, page int, startISO, endISO string) (ParsedDoc, error)

	// FetchCategoryPage returns the page-th page of a category listing.
	FetchCategoryPage(ctx context.Context, categoryURL string, page int) (ParsedDoc, error)

	ExtractLinks(doc ParsedDoc, isSearchPage bool) ([]LinkStub, error)

	// CrawlDetail fetches and parses a full article. contentFilter is a
	// comma-separated OR-of-substrings list; an empty string disables
	// filtering. Returns (nil, nil) when the filter excludes the article.
	CrawlDetail(ctx context.Context, stub LinkStub, contentFilter string) (*Article, error)
}

// Article is the adapter-facing detail result, converted to entity.Article
// by the Executor once article_id is derived.
type Article struct {
	URL            string
	Title          string
	Summary        string
	Content        string
	SiteCategories []string
	Tags           []string
	PublishDate    *time.Time
	Website        string
}

// Registry resolves a website identifier to its SiteAdapter. Websites
// enumerates every registered site, used when a request names none.
type Registry interface {
	Adapter(website string) (SiteAdapter, bool)
	Websites() []string
}

// NotifyCrawlFailure reports a degraded crawl so ops channels can alert on
// crawl health.
type NotifyCrawlFailure interface {
	NotifyCrawlFailure(ctx context.Context, website string, failed, attempted int)
}
