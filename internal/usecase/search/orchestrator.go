package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"hybridnews/internal/domain/entity"
	"hybridnews/internal/observability/tracing"
	"hybridnews/internal/repository"
	"hybridnews/internal/usecase/fanout"

	"go.opentelemetry.io/otel/attribute"
)

// lexicalOverfetchMargin is added to max_articles when querying the lexical
// index, since post-filtering (title/content substring match) happens
// client-side after the raw hits come back.
const lexicalOverfetchMargin = 100

// StreamURLFor builds the SSE endpoint path for a search_id.
func StreamURLFor(searchID string) string {
	return "/crawl/stream-status/" + searchID
}

// Request is the input to Orchestrate, mirroring the POST /crawl body.
type Request struct {
	Websites       []string
	KeywordSearch  string
	KeywordContent string
	StartDate      time.Time
	EndDate        time.Time
	MaxArticles    int
	Page           int
	PageSize       int
	UserID         string
}

// Result is returned immediately to the caller.
type Result struct {
	SearchID          string
	Status            entity.SearchSessionStatus
	TotalAvailableNow int
	Page              int
	PageSize          int
	StreamURL         string
}

// HistorySweeper enforces per-user SearchSession retention after a
// new session is persisted.
type HistorySweeper interface {
	EnforceRetention(ctx context.Context, userID string) error
}

// Orchestrator is the Hybrid Search Orchestrator.
type Orchestrator struct {
	Lexical  LexicalIndex
	Sessions repository.SearchSessionRepository
	Fanout   *fanout.Service
	Crawl    CrawlDispatcher
	History  HistorySweeper
}

// NewOrchestrator builds a Hybrid Search Orchestrator.
func NewOrchestrator(lexical LexicalIndex, sessions repository.SearchSessionRepository, fan *fanout.Service, crawl CrawlDispatcher, history HistorySweeper) *Orchestrator {
	return &Orchestrator{Lexical: lexical, Sessions: sessions, Fanout: fan, Crawl: crawl, History: history}
}

// Orchestrate runs the hybrid search: lexical query, post-filter, dedupe,
// date sort, search_id fanout, session persist, and gap-fill dispatch.
func (o *Orchestrator) Orchestrate(ctx context.Context, req Request) (Result, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "search.orchestrate")
	defer span.End()

	searchID := allocateSearchID(req.UserID)
	span.SetAttributes(
		attribute.String("search_id", searchID),
		attribute.Int("max_articles", req.MaxArticles),
	)

	hits, err := o.Lexical.Query(ctx, LexicalQuery{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Websites:  req.Websites,
		Limit:     req.MaxArticles + lexicalOverfetchMargin,
	})
	if err != nil {
		return Result{}, fmt.Errorf("lexical query: %w", err)
	}

	matched := filterByKeywords(hits, req.KeywordSearch, req.KeywordContent)
	matched = dedupeByURL(matched)
	sortByPublishDateDesc(matched)
	if len(matched) > req.MaxArticles {
		matched = matched[:req.MaxArticles]
	}

	if len(matched) > 0 {
		ids := make([]string, len(matched))
		for i, a := range matched {
			ids[i] = a.ArticleID
		}
		outcome := o.Fanout.AddSearchID(ctx, ids, searchID)
		if outcome.AnyFailed() {
			slog.Warn("search: add_search_id had partial failures", slog.String("search_id", searchID))
		}
	}

	status := entity.SearchStatusCompleted
	if len(matched) < req.MaxArticles {
		status = entity.SearchStatusProcessing
	}

	session := &entity.SearchSession{
		SearchID:             searchID,
		UserID:               req.UserID,
		KeywordSearch:        req.KeywordSearch,
		KeywordContent:       req.KeywordContent,
		MaxArticlesRequested: req.MaxArticles,
		TotalSaved:           len(matched),
		Status:               status,
		TimeRange:            entity.TimeRange{Start: req.StartDate, End: req.EndDate},
		Websites:             req.Websites,
		CreatedAt:            time.Now(),
		UpdatedAt:            time.Now(),
	}
	if err := o.Sessions.Create(ctx, session); err != nil {
		return Result{}, fmt.Errorf("persist search session: %w", err)
	}
	if o.History != nil {
		go func() {
			if err := o.History.EnforceRetention(context.Background(), req.UserID); err != nil {
				slog.Warn("search: history retention sweep failed", slog.String("user_id", req.UserID), slog.Any("error", err))
			}
		}()
	}

	gap := req.MaxArticles - len(matched)
	if gap > 0 {
		o.Crawl.Dispatch(CrawlRequest{
			SearchID:       searchID,
			Websites:       req.Websites,
			KeywordSearch:  req.KeywordSearch,
			KeywordContent: req.KeywordContent,
			StartDate:      req.StartDate,
			EndDate:        req.EndDate,
			MaxArticles:    gap,
			UserID:         req.UserID,
		})
	}

	return Result{
		SearchID:          searchID,
		Status:            status,
		TotalAvailableNow: len(matched),
		Page:              req.Page,
		PageSize:          req.PageSize,
		StreamURL:         StreamURLFor(searchID),
	}, nil
}

func allocateSearchID(userID string) string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + "_" + userID
}

// filterByKeywords applies the title-substring match of keyword_search and
// the keyword_content OR-of-substrings over content∪summary.
func filterByKeywords(articles []*entity.Article, keywordSearch, keywordContent string) []*entity.Article {
	needle := strings.ToLower(strings.TrimSpace(keywordSearch))
	var orTerms []string
	for _, t := range strings.Split(keywordContent, ",") {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			orTerms = append(orTerms, t)
		}
	}

	out := make([]*entity.Article, 0, len(articles))
	for _, a := range articles {
		if needle != "" && !strings.Contains(strings.ToLower(a.Title), needle) {
			continue
		}
		if len(orTerms) > 0 {
			haystack := strings.ToLower(a.Content + " " + a.Summary)
			matched := false
			for _, term := range orTerms {
				if strings.Contains(haystack, term) {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, a)
	}
	return out
}

func dedupeByURL(articles []*entity.Article) []*entity.Article {
	seen := make(map[string]bool, len(articles))
	out := make([]*entity.Article, 0, len(articles))
	for _, a := range articles {
		if seen[a.URL] {
			continue
		}
		seen[a.URL] = true
		out = append(out, a)
	}
	return out
}

// sortByPublishDateDesc sorts descending by publish_date; articles with no
// publish_date sort last.
func sortByPublishDateDesc(articles []*entity.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		a, b := articles[i].PublishDate, articles[j].PublishDate
		if a == nil && b == nil {
			return false
		}
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})
}
