package enrich

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"hybridnews/internal/domain/entity"
	"hybridnews/internal/repository"
	"hybridnews/internal/usecase/fanout"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize is the number of raw/ai_error articles claimed per tick
// when ENRICH_BATCH_SIZE is unset.
const DefaultBatchSize = 20

// maxConcurrentTicks bounds how many Service.Tick calls may run at once,
// so overlapping ticks cannot pile up.
const maxConcurrentTicks = 2

// Service is the Enrichment Pipeline.
type Service struct {
	Articles  repository.ArticleRepository
	Fanout    *fanout.Service
	Embedder  EmbeddingProvider
	Sentiment SentimentProvider
	BatchSize int

	tickGate chan struct{}
}

// NewService builds an Enrichment Pipeline Service.
func NewService(articles repository.ArticleRepository, fan *fanout.Service, embedder EmbeddingProvider, sentiment SentimentProvider, batchSize int) *Service {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Service{
		Articles:  articles,
		Fanout:    fan,
		Embedder:  embedder,
		Sentiment: sentiment,
		BatchSize: batchSize,
		tickGate:  make(chan struct{}, maxConcurrentTicks),
	}
}

// Tick claims a batch of raw/ai_error articles and enriches each one. It is
// safe to call concurrently; beyond maxConcurrentTicks instances the extra
// calls return immediately without doing work, matching the cron scheduler
// firing a new tick before the previous one finished.
func (s *Service) Tick(ctx context.Context) (int, error) {
	select {
	case s.tickGate <- struct{}{}:
	default:
		slog.Debug("enrich: tick skipped, already at max concurrency")
		return 0, nil
	}
	defer func() { <-s.tickGate }()

	articles, err := s.Articles.ClaimForEnrichment(ctx, s.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(articles) == 0 {
		return 0, nil
	}

	eg, egCtx := errgroup.WithContext(context.WithoutCancel(ctx))
	for _, a := range articles {
		article := a
		eg.Go(func() error {
			s.enrichOne(egCtx, article)
			return nil
		})
	}
	_ = eg.Wait()

	return len(articles), nil
}

// enrichOne runs the five-step algorithm for a single article. It
// never returns an error to the caller: failures mark the article ai_error
// so the next tick retries it, rather than aborting the batch.
func (s *Service) enrichOne(ctx context.Context, a *entity.Article) {
	start := time.Now()
	input := a.EnrichmentInput()

	if utf8.RuneCountInString(input) < entity.MinEnrichableContentLength {
		a.AISummary = nil
		a.AISentimentScore = 0
		a.AISentimentLabel = entity.SentimentNeutral
		s.finish(ctx, a, start)
		return
	}

	summary, err := ExtractiveSummary(ctx, s.Embedder, input)
	if err != nil {
		slog.Warn("enrich: extractive summary failed", slog.String("article_id", a.ArticleID), slog.Any("error", err))
		s.fail(ctx, a)
		return
	}

	label, score, err := s.Sentiment.Classify(ctx, sentimentInput(summary, input))
	if err != nil {
		slog.Warn("enrich: sentiment classification unavailable, falling back to neutral",
			slog.String("article_id", a.ArticleID), slog.Any("error", err))
		label, score = string(entity.SentimentNeutral), 0
	}

	a.AISummary = summary
	a.AISentimentScore = score
	a.AISentimentLabel = entity.SentimentLabel(label)
	s.finish(ctx, a, start)
}

func (s *Service) finish(ctx context.Context, a *entity.Article, start time.Time) {
	now := time.Now()
	a.LastEnrichedAt = &now
	a.Status = entity.StatusEnriched

	if err := s.Articles.MarkEnriched(ctx, a); err != nil {
		slog.Error("enrich: mark enriched failed", slog.String("article_id", a.ArticleID), slog.Any("error", err))
		recordEnrichment(false, time.Since(start))
		return
	}

	outcome := s.Fanout.UpsertArticles(ctx, []*entity.Article{a}, fanout.Options{})
	if outcome.AnyFailed() {
		slog.Warn("enrich: fanout after enrichment had partial failures",
			slog.String("article_id", a.ArticleID),
			slog.Any("lexical_err", outcome.LexicalErr),
			slog.Any("vector_err", outcome.VectorErr))
	}
	recordEnrichment(true, time.Since(start))
}

// maxSentimentInputChars caps the text handed to the sentiment provider
// when no summary is available to classify instead.
const maxSentimentInputChars = 1500

// sentimentInput prefers the joined extractive summary; with no summary it
// falls back to the first maxSentimentInputChars characters of the content.
func sentimentInput(summary []string, content string) string {
	if len(summary) > 0 {
		return strings.Join(summary, " ")
	}
	runes := []rune(content)
	if len(runes) > maxSentimentInputChars {
		runes = runes[:maxSentimentInputChars]
	}
	return string(runes)
}

func (s *Service) fail(ctx context.Context, a *entity.Article) {
	if err := s.Articles.MarkAIError(ctx, a.ArticleID); err != nil {
		slog.Error("enrich: mark ai_error failed", slog.String("article_id", a.ArticleID), slog.Any("error", err))
	}
	recordEnrichment(false, 0)
}
