// Package topic implements the Topic Scheduler: a periodic re-scan
// of registered category pages, each with its own watermark, stopping
// early once it reaches previously-seen content.
package topic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"hybridnews/internal/domain/entity"
	"hybridnews/internal/repository"
	"hybridnews/internal/usecase/crawl"
	"hybridnews/internal/usecase/fanout"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

// SystemAutoSearchID tags articles ingested by the Topic Scheduler lane,
// distinct from any user-triggered SearchSession.
const SystemAutoSearchID = "system_auto"

// SystemUserID attributes topic-scheduler detail fetches to a synthetic
// user.
const SystemUserID = "system"

// DefaultConcurrency is the per-tick topic concurrency cap.
const DefaultConcurrency = 5

// MinRescheduleMinutes is the floor Reschedule enforces.
const MinRescheduleMinutes = 5

// DefaultIntervalMinutes is the schedule used when not explicitly
// reconfigured.
const DefaultIntervalMinutes = 120

// ErrRescheduleTooFrequent is returned when Reschedule is asked for a
// cadence below MinRescheduleMinutes.
var ErrRescheduleTooFrequent = errors.New("topic: reschedule interval below minimum of 5 minutes")

// Scheduler is the Topic Scheduler.
type Scheduler struct {
	Topics   repository.TopicRepository
	Articles repository.ArticleRepository
	Registry crawl.Registry
	Fanout   *fanout.Service

	concurrency int

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
	tick    func()
}

// NewScheduler builds a Topic Scheduler with the given per-tick
// concurrency cap (DefaultConcurrency if <= 0).
func NewScheduler(topics repository.TopicRepository, articles repository.ArticleRepository, registry crawl.Registry, fan *fanout.Service, concurrency int) *Scheduler {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Scheduler{Topics: topics, Articles: articles, Registry: registry, Fanout: fan, concurrency: concurrency}
}

// StartCron registers the tick on c at the given cadence and remembers the
// entry so Reschedule can move it later.
func (s *Scheduler) StartCron(c *cron.Cron, minutes int, tick func()) error {
	if minutes < MinRescheduleMinutes {
		return ErrRescheduleTooFrequent
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := c.AddFunc(cronSpec(minutes), tick)
	if err != nil {
		return err
	}
	s.cron, s.entryID, s.tick = c, id, tick
	return nil
}

// Reschedule moves the tick to a new cadence, rejecting any interval below
// MinRescheduleMinutes. Without an attached cron (StartCron not called, as
// in tests) it only validates.
func (s *Scheduler) Reschedule(minutes int) error {
	if minutes < MinRescheduleMinutes {
		return ErrRescheduleTooFrequent
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return nil
	}
	id, err := s.cron.AddFunc(cronSpec(minutes), s.tick)
	if err != nil {
		return err
	}
	s.cron.Remove(s.entryID)
	s.entryID = id
	return nil
}

func cronSpec(minutes int) string {
	return fmt.Sprintf("@every %dm", minutes)
}

// Tick selects active Topics, optionally filtered by website, and crawls
// each under the per-tick concurrency cap.
func (s *Scheduler) Tick(ctx context.Context, website string) error {
	topics, err := s.Topics.ListActive(ctx, website)
	if err != nil {
		return fmt.Errorf("list active topics: %w", err)
	}

	sem := make(chan struct{}, s.concurrency)
	eg, egCtx := errgroup.WithContext(ctx)
	for _, t := range topics {
		topic := t
		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()
			s.crawlTopic(egCtx, topic)
			return nil
		})
	}
	return eg.Wait()
}

// TriggerSite runs a Tick scoped to a single website, for the
// POST /admin/auto-crawl/{website} endpoint.
func (s *Scheduler) TriggerSite(ctx context.Context, website string) error {
	return s.Tick(ctx, website)
}

// crawlTopic walks one topic: compute the cutoff,
// page the category (up to MaxPages), early-stop on previously-seen
// content, and enqueue detail fetches for everything else.
func (s *Scheduler) crawlTopic(ctx context.Context, t *entity.Topic) {
	adapter, ok := s.Registry.Adapter(t.Website)
	if !ok {
		slog.Warn("topic: no adapter registered", slog.String("website", t.Website))
		return
	}

	cutoff := t.Cutoff(time.Now(), nil)

	for page := 1; page <= crawl.MaxPages; page++ {
		doc, err := adapter.FetchCategoryPage(ctx, t.URL, page)
		if err != nil {
			slog.Warn("topic: fetch category page failed", slog.String("topic", t.URL), slog.Int("page", page), slog.Any("error", err))
			return
		}
		if doc == nil {
			break
		}

		links, err := adapter.ExtractLinks(doc, false)
		if err != nil || len(links) == 0 {
			break
		}

		stop := false
		for _, link := range links {
			existing, err := s.Articles.GetByURL(ctx, link.URL)
			seenBefore := err == nil && existing != nil && existing.HasSearchID(SystemAutoSearchID)

			if link.PublishDate != nil && link.PublishDate.Before(cutoff) && seenBefore {
				stop = true
				break
			}
			if seenBefore {
				continue
			}

			s.fetchAndStore(ctx, adapter, t, link)
		}

		if stop {
			break
		}
		time.Sleep(crawl.InterPageSleep)
	}

	if err := s.Topics.TouchCrawledAt(ctx, t.URL, time.Now()); err != nil {
		slog.Error("topic: touch crawled_at failed", slog.String("topic", t.URL), slog.Any("error", err))
	}
}

func (s *Scheduler) fetchAndStore(ctx context.Context, adapter crawl.SiteAdapter, t *entity.Topic, link crawl.LinkStub) {
	detail, err := adapter.CrawlDetail(ctx, link, "")
	if err != nil || detail == nil {
		if err != nil {
			slog.Warn("topic: detail fetch failed", slog.String("url", link.URL), slog.Any("error", err))
		}
		return
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
		Website:        t.Website,
		Status:         entity.StatusRaw,
	}
	a.AddSearchID(SystemAutoSearchID)

	outcome := s.Fanout.UpsertArticles(ctx, []*entity.Article{a}, fanout.Options{Topic: t.Name, UserID: SystemUserID})
	if outcome.DocumentErr != nil {
		slog.Error("topic: fanout document write failed", slog.String("url", a.URL), slog.Any("error", outcome.DocumentErr))
	}
}
