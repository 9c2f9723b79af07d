package site

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"hybridnews/internal/resilience/circuitbreaker"
	"hybridnews/internal/resilience/retry"
	"hybridnews/internal/usecase/crawl"

	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
)

// RSSConfig points an RSSAdapter at the single topic feed a publisher
// exposes in place of an HTML category page.
type RSSConfig struct {
	Website string
	FeedURL string
}

// RSSAdapter implements crawl.SiteAdapter for publishers whose category
// listings are only available as an RSS/Atom feed; it has no search-page
// capability, so FetchSearchPage always returns (nil, nil).
type RSSAdapter struct {
	cfg            RSSConfig
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewRSSAdapter builds an RSSAdapter for one site's topic feed.
func NewRSSAdapter(cfg RSSConfig, client *http.Client) *RSSAdapter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &RSSAdapter{
		cfg:            cfg,
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
	}
}

// FetchSearchPage implements crawl.SiteAdapter: keyword search is
// unsupported for RSS-backed sites.
func (a *RSSAdapter) FetchSearchPage(ctx context.Context, keyword string, page int, startISO, endISO string) (crawl.ParsedDoc, error) {
	return nil, nil
}

// FetchCategoryPage implements crawl.SiteAdapter. RSS feeds are not paged;
// page > 1 returns (nil, nil) so the Topic Scheduler stops after one pass.
func (a *RSSAdapter) FetchCategoryPage(ctx context.Context, categoryURL string, page int) (crawl.ParsedDoc, error) {
	if page > 1 {
		return nil, nil
	}

	feedURL := a.cfg.FeedURL
	if categoryURL != "" {
		feedURL = categoryURL
	}

	var links []crawl.LinkStub
	retryErr := retry.WithBackoff(ctx, a.retryConfig, func() error {
		result, err := a.circuitBreaker.Execute(func() (interface{}, error) {
			return a.doFetch(ctx, feedURL)
		})
		if err != nil {
			return err
		}
		links, _ = result.([]crawl.LinkStub)
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}
	return links, nil
}

func (a *RSSAdapter) doFetch(ctx context.Context, feedURL string) ([]crawl.LinkStub, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = browserUA
	fp.Client = a.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	links := make([]crawl.LinkStub, 0, len(feed.Items))
	for _, item := range feed.Items {
		var publishDate *time.Time
		if item.PublishedParsed != nil {
			publishDate = item.PublishedParsed
		}
		links = append(links, crawl.LinkStub{URL: item.Link, Title: item.Title, PublishDate: publishDate})
	}
	return links, nil
}

// ExtractLinks implements crawl.SiteAdapter: FetchCategoryPage already
// produces []crawl.LinkStub, so this is a type assertion pass-through.
func (a *RSSAdapter) ExtractLinks(doc crawl.ParsedDoc, isSearchPage bool) ([]crawl.LinkStub, error) {
	links, _ := doc.([]crawl.LinkStub)
	return links, nil
}

// CrawlDetail fetches the full article page and extracts readable content,
// since RSS items usually carry only a teaser.
func (a *RSSAdapter) CrawlDetail(ctx context.Context, stub crawl.LinkStub, contentFilter string) (*crawl.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, stub.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUA)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rss site: unexpected status %d fetching detail %s", resp.StatusCode, stub.URL)
	}

	parsedURL, err := url.Parse(stub.URL)
	if err != nil {
		return nil, err
	}
	art, err := readability.FromReader(io.LimitReader(resp.Body, maxBodySize), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("readability parse %s: %w", stub.URL, err)
	}

	title := art.Title
	if title == "" {
		title = stub.Title
	}
	if contentFilter != "" && !matchesAny(title+" "+art.TextContent, contentFilter) {
		return nil, nil
	}

	return &crawl.Article{
		URL:         stub.URL,
		Title:       title,
		Summary:     art.Excerpt,
		Content:     art.TextContent,
		PublishDate: stub.PublishDate,
		Website:     a.cfg.Website,
	}, nil
}
