package crawl

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"hybridnews/internal/domain/entity"
	"hybridnews/internal/observability/tracing"
	"hybridnews/internal/repository"
	"hybridnews/internal/usecase/fanout"
	"hybridnews/internal/usecase/search"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the process-wide detail-fetch semaphore size used
// when CRAWL_CONCURRENCY is unset.
const DefaultConcurrency = 20

// MaxPages bounds how many search/category pages are walked per site
// for a single site within one crawl run.
const MaxPages = 50

// InterPageSleep throttles successive page requests against a site
// to avoid burst behaviour against a site.
const InterPageSleep = time.Second

// DetailFetchTimeout bounds each detail fetch.
const DetailFetchTimeout = 60 * time.Second

// Executor is the Crawl Executor.
type Executor struct {
	Registry Registry
	Fanout   *fanout.Service
	Sessions repository.SearchSessionRepository
	Notify   NotifyCrawlFailure

	// semaphore bounds concurrent detail fetches across every Executor
	// instance in the process.
	semaphore chan struct{}
}

// NewExecutor builds a Crawl Executor with a process-wide detail-fetch
// semaphore of the given size (DefaultConcurrency if <= 0).
func NewExecutor(registry Registry, fan *fanout.Service, sessions repository.SearchSessionRepository, notify NotifyCrawlFailure, concurrency int) *Executor {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Executor{
		Registry:  registry,
		Fanout:    fan,
		Sessions:  sessions,
		Notify:    notify,
		semaphore: make(chan struct{}, concurrency),
	}
}

// Dispatch implements search.CrawlDispatcher: it runs Execute in a
// background goroutine so the caller never blocks on crawling.
func (e *Executor) Dispatch(req search.CrawlRequest) {
	go func() {
		ctx := context.Background()
		if err := e.Execute(ctx, req); err != nil {
			slog.Error("crawl: background execution failed", slog.String("search_id", req.SearchID), slog.Any("error", err))
		}
	}()
}

// Execute runs the gap-fill crawl: sites are walked
// sequentially so the quota is respected exactly; within a site, pages are
// walked sequentially but detail fetches within a page run concurrently
// under the shared semaphore.
func (e *Executor) Execute(ctx context.Context, req search.CrawlRequest) error {
	ctx, span := tracing.GetTracer().Start(ctx, "crawl.execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("search_id", req.SearchID),
		attribute.Int("quota", req.MaxArticles),
	)

	remaining := int64(req.MaxArticles)
	var saved int64
	var attempted, failed int64

	websites := req.Websites
	if len(websites) == 0 {
		websites = e.Registry.Websites()
	}

	for _, website := range websites {
		if atomic.LoadInt64(&remaining) <= 0 {
			break
		}
		adapter, ok := e.Registry.Adapter(website)
		if !ok {
			slog.Warn("crawl: no adapter registered", slog.String("website", website))
			continue
		}

		n, a, f := e.crawlSite(ctx, adapter, website, req, &remaining)
		saved += n
		attempted += a
		failed += f
	}

	if attempted > 0 && e.Notify != nil && failureRate(failed, attempted) >= 0.5 {
		e.Notify.NotifyCrawlFailure(ctx, strings.Join(websites, ","), int(failed), int(attempted))
	}

	if req.SearchID != "" && e.Sessions != nil {
		return e.Sessions.SetStatus(ctx, req.SearchID, entity.SearchStatusCompleted, int(saved))
	}
	return nil
}

func failureRate(failed, attempted int64) float64 {
	if attempted == 0 {
		return 0
	}
	return float64(failed) / float64(attempted)
}

// crawlSite pages a single site's search endpoint, bounded by MaxPages and
// by the caller's remaining quota, and returns counts for saved/attempted/
// failed detail fetches.
func (e *Executor) crawlSite(ctx context.Context, adapter SiteAdapter, website string, req search.CrawlRequest, remaining *int64) (saved, attempted, failed int64) {
	startISO := req.StartDate.Format("2006-01-02")
	endISO := req.EndDate.Format("2006-01-02")

	for page := 1; page <= MaxPages; page++ {
		if atomic.LoadInt64(remaining) <= 0 {
			return
		}

		doc, err := adapter.FetchSearchPage(ctx, req.KeywordSearch, page, startISO, endISO)
		if err != nil {
			slog.Warn("crawl: fetch search page failed", slog.String("website", website), slog.Int("page", page), slog.Any("error", err))
			return
		}
		if doc == nil {
			return
		}

		links, err := adapter.ExtractLinks(doc, true)
		if err != nil || len(links) == 0 {
			return
		}

		var quota []LinkStub
		for _, l := range links {
			if atomic.LoadInt64(remaining) <= 0 {
				break
			}
			quota = append(quota, l)
			atomic.AddInt64(remaining, -1)
		}

		s, a, f := e.fetchDetailsConcurrently(ctx, adapter, quota, req.KeywordContent, website, req.SearchID, req.UserID, remaining)
		saved += s
		attempted += a
		failed += f

		time.Sleep(InterPageSleep)
	}
	return
}

// fetchDetailsConcurrently fetches each stub's detail page concurrently,
// bounded by the shared process-wide semaphore. Stubs the content filter
// excludes, and stubs whose fetch fails, refund their quota reservation so
// they do not count toward the run's target.
func (e *Executor) fetchDetailsConcurrently(ctx context.Context, adapter SiteAdapter, stubs []LinkStub, contentFilter, website, searchID, userID string, remaining *int64) (saved, attempted, failed int64) {
	var mu sync.Mutex
	var articles []*entity.Article
	eg, egCtx := errgroup.WithContext(ctx)

	for _, stub := range stubs {
		s := stub
		eg.Go(func() error {
			e.semaphore <- struct{}{}
			defer func() { <-e.semaphore }()

			atomic.AddInt64(&attempted, 1)
			detailCtx, cancel := context.WithTimeout(egCtx, DetailFetchTimeout)
			defer cancel()

			detail, err := adapter.CrawlDetail(detailCtx, s, contentFilter)
			if err != nil {
				atomic.AddInt64(&failed, 1)
				atomic.AddInt64(remaining, 1)
				slog.Warn("crawl: detail fetch failed", slog.String("website", website), slog.String("url", s.URL), slog.Any("error", err))
				return nil
			}
			if detail == nil {
				// content_filter excluded this article; does not count
				// toward the quota.
				atomic.AddInt64(remaining, 1)
				return nil
			}

			a := &entity.Article{
				ArticleID:      entity.DeriveArticleID(detail.URL),
				URL:            detail.URL,
				Title:          detail.Title,
				Summary:        detail.Summary,
				Content:        detail.Content,
				SiteCategories: detail.SiteCategories,
				Tags:           detail.Tags,
				PublishDate:    detail.PublishDate,
				CrawledAt:      time.Now(),
				Website:        website,
				Status:         entity.StatusRaw,
			}
			if searchID != "" {
				a.AddSearchID(searchID)
			}

			mu.Lock()
			articles = append(articles, a)
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	if len(articles) > 0 {
		outcome := e.Fanout.UpsertArticles(ctx, articles, fanout.Options{UserID: userID})
		if outcome.DocumentErr != nil {
			slog.Error("crawl: fanout document write failed", slog.String("website", website), slog.Any("error", outcome.DocumentErr))
		}
	}
	saved = int64(len(articles))
	return
}
