// Package site provides the per-publisher crawl.SiteAdapter
// implementations for the search and category pages the Crawl Executor
// and Topic Scheduler walk.
package site

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hybridnews/internal/resilience/circuitbreaker"
	"hybridnews/internal/resilience/retry"
	"hybridnews/internal/usecase/crawl"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/araddon/dateparse"
	"github.com/sony/gobreaker"
)

const maxBodySize = 10 * 1024 * 1024

// browserUA is sent on every listing and detail request. Publisher sites
// serve degraded or empty markup to obvious bot agents.
const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// HTMLConfig describes how to drive a single server-rendered news site's
// search and category pages with goquery selectors. Placeholders {keyword},
// {page}, {start} and {end} are substituted into SearchURLTemplate;
// {page} into CategoryURLTemplate.
type HTMLConfig struct {
	Website             string
	SearchURLTemplate   string
	CategoryURLTemplate string
	ItemSelector        string
	LinkAttr            string // defaults to "href" when empty
	TitleSelector       string // relative to the item, empty uses the link text
	DateSelector        string // relative to the item; empty disables date extraction
	DateAttr            string // attribute to read the date from, empty reads text
}

// HTMLAdapter implements crawl.SiteAdapter over a goquery-parsed listing
// page and a go-readability detail extraction, with the same circuit
// breaker and retry wrapping as every other outbound call.
type HTMLAdapter struct {
	cfg            HTMLConfig
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewHTMLAdapter builds an HTMLAdapter for one site.
func NewHTMLAdapter(cfg HTMLConfig, client *http.Client) *HTMLAdapter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.LinkAttr == "" {
		cfg.LinkAttr = "href"
	}
	return &HTMLAdapter{
		cfg:            cfg,
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.WebScraperConfig()),
		retryConfig:    retry.WebScraperConfig(),
	}
}

func (a *HTMLAdapter) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	var doc *goquery.Document

	retryErr := retry.WithBackoff(ctx, a.retryConfig, func() error {
		result, err := a.circuitBreaker.Execute(func() (interface{}, error) {
			return a.doFetch(ctx, pageURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("site: circuit breaker open, request rejected",
					slog.String("website", a.cfg.Website), slog.String("url", pageURL))
			}
			return err
		}
		doc, _ = result.(*goquery.Document)
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}
	return doc, nil
}

func (a *HTMLAdapter) doFetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUA)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("site: unexpected status %d fetching %s", resp.StatusCode, pageURL)
	}

	return goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodySize))
}

func substitute(template string, repl map[string]string) string {
	out := template
	for k, v := range repl {
		out = strings.ReplaceAll(out, "{"+k+"}", url.QueryEscape(v))
	}
	return out
}

// FetchSearchPage implements crawl.SiteAdapter.
func (a *HTMLAdapter) FetchSearchPage(ctx context.Context, keyword string, page int, startISO, endISO string) (crawl.ParsedDoc, error) {
	if a.cfg.SearchURLTemplate == "" {
		return nil, nil
	}
	pageURL := substitute(a.cfg.SearchURLTemplate, map[string]string{
		"keyword": keyword,
		"page":    fmt.Sprintf("%d", page),
		"start":   startISO,
		"end":     endISO,
	})
	doc, err := a.fetchDocument(ctx, pageURL)
	if err != nil || doc == nil {
		return nil, err
	}
	return doc, nil
}

// FetchCategoryPage implements crawl.SiteAdapter.
func (a *HTMLAdapter) FetchCategoryPage(ctx context.Context, categoryURL string, page int) (crawl.ParsedDoc, error) {
	target := categoryURL
	if a.cfg.CategoryURLTemplate != "" {
		// The category URL is substituted verbatim; only scalar values go
		// through query escaping.
		target = strings.ReplaceAll(a.cfg.CategoryURLTemplate, "{url}", categoryURL)
		target = substitute(target, map[string]string{
			"page": fmt.Sprintf("%d", page),
		})
	}
	doc, err := a.fetchDocument(ctx, target)
	if err != nil || doc == nil {
		return nil, err
	}
	return doc, nil
}

// ExtractLinks implements crawl.SiteAdapter over the goquery.Document
// produced by FetchSearchPage/FetchCategoryPage.
func (a *HTMLAdapter) ExtractLinks(doc crawl.ParsedDoc, isSearchPage bool) ([]crawl.LinkStub, error) {
	d, ok := doc.(*goquery.Document)
	if !ok || d == nil {
		return nil, nil
	}

	var links []crawl.LinkStub
	d.Find(a.cfg.ItemSelector).Each(func(_ int, item *goquery.Selection) {
		href, exists := item.Attr(a.cfg.LinkAttr)
		if !exists || href == "" {
			href, exists = item.Find("a").First().Attr("href")
			if !exists || href == "" {
				return
			}
		}

		title := strings.TrimSpace(item.Text())
		if a.cfg.TitleSelector != "" {
			if t := strings.TrimSpace(item.Find(a.cfg.TitleSelector).First().Text()); t != "" {
				title = t
			}
		}

		var publishDate *time.Time
		if a.cfg.DateSelector != "" {
			sel := item.Find(a.cfg.DateSelector).First()
			raw := strings.TrimSpace(sel.Text())
			if a.cfg.DateAttr != "" {
				if v, ok := sel.Attr(a.cfg.DateAttr); ok {
					raw = v
				}
			}
			if raw != "" {
				if t, err := dateparse.ParseAny(raw); err == nil {
					publishDate = &t
				}
			}
		}

		links = append(links, crawl.LinkStub{URL: href, Title: title, PublishDate: publishDate})
	})

	return links, nil
}

// CrawlDetail fetches an article's detail page and extracts its readable
// content via go-readability. contentFilter is an OR-of-substrings applied
// case-insensitively against title+content; a match failure returns
// (nil, nil) so the caller does not count it toward its quota.
func (a *HTMLAdapter) CrawlDetail(ctx context.Context, stub crawl.LinkStub, contentFilter string) (*crawl.Article, error) {
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
		return nil, fmt.Errorf("site: unexpected status %d fetching detail %s", resp.StatusCode, stub.URL)
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
	content := art.TextContent

	if contentFilter != "" && !matchesAny(title+" "+content, contentFilter) {
		return nil, nil
	}

	publishDate := stub.PublishDate
	if publishDate == nil && art.PublishedTime != nil {
		publishDate = art.PublishedTime
	}

	return &crawl.Article{
		URL:         stub.URL,
		Title:       title,
		Summary:     art.Excerpt,
		Content:     content,
		PublishDate: publishDate,
		Website:     a.cfg.Website,
	}, nil
}

func matchesAny(haystack, commaSeparatedNeedles string) bool {
	haystack = strings.ToLower(haystack)
	for _, needle := range strings.Split(commaSeparatedNeedles, ",") {
		needle = strings.ToLower(strings.TrimSpace(needle))
		if needle != "" && strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
