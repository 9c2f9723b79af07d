package fanout

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"hybridnews/internal/domain/entity"
	"hybridnews/internal/repository"
)

// FanoutOutcome records the independent result of writing to each store,
// an explicit outcome per store rather than a single collapsed error. A nil
// field means that store succeeded or was not
// attempted because the document-store write itself failed first.
type FanoutOutcome struct {
	DocumentErr error
	LexicalErr  error
	VectorErr   error
}

// AnyFailed reports whether at least one store failed to apply the write.
func (o FanoutOutcome) AnyFailed() bool {
	return o.DocumentErr != nil || o.LexicalErr != nil || o.VectorErr != nil
}

// Options carries the per-call context fanout needs to build vector points
// for chunks/summaries. Topic and UserID are attached to every point's
// payload so later search can filter by them; both may be empty for
// crawl-sourced articles with no associated user.
type Options struct {
	Topic  string
	UserID string
}

// Service is the Store Fanout component. The document store is
// authoritative: if the document-store write fails, the call returns early
// without touching the lexical or vector index. Lexical and vector writes
// are each attempted independently and their errors are logged but do not
// fail the call; consistency is eventual and best-effort.
type Service struct {
	Documents repository.ArticleRepository
	Lexical   LexicalIndex
	Vector    VectorIndex
	Embedder  EmbeddingProvider
}

// NewService builds a Store Fanout Service over the three backing stores.
func NewService(documents repository.ArticleRepository, lexical LexicalIndex, vector VectorIndex, embedder EmbeddingProvider) *Service {
	return &Service{Documents: documents, Lexical: lexical, Vector: vector, Embedder: embedder}
}

// UpsertArticles writes articles to the document store, then mirrors them
// into the lexical index. Vector points are emitted only for articles that
// have reached status enriched: chunk points derived from content, plus an
// ai_summary point when a summary exists. Raw and processing articles get
// no vector presence until the enrichment pass writes them back through
// here.
func (s *Service) UpsertArticles(ctx context.Context, articles []*entity.Article, opts Options) FanoutOutcome {
	start := time.Now()
	var outcome FanoutOutcome

	for _, a := range articles {
		if err := s.Documents.Upsert(ctx, a); err != nil {
			outcome.DocumentErr = err
			recordOutcome("document", false, time.Since(start))
			slog.Error("fanout: document store upsert failed", slog.String("article_id", a.ArticleID), slog.Any("error", err))
			return outcome
		}
	}
	recordOutcome("document", true, time.Since(start))

	if err := s.Lexical.EnsureAttributes(ctx); err != nil {
		slog.Warn("fanout: lexical attribute configuration failed", slog.Any("error", err))
	}
	if err := s.Lexical.UpsertArticles(ctx, articles); err != nil {
		outcome.LexicalErr = err
		recordOutcome("lexical", false, time.Since(start))
		slog.Warn("fanout: lexical upsert failed", slog.Int("count", len(articles)), slog.Any("error", err))
	} else {
		recordOutcome("lexical", true, time.Since(start))
	}

	points, vectors, err := s.buildVectorPoints(ctx, articles, opts)
	if err != nil {
		outcome.VectorErr = err
		recordOutcome("vector", false, time.Since(start))
		slog.Warn("fanout: vector point derivation failed", slog.Any("error", err))
		return outcome
	}
	if len(points) > 0 {
		if err := s.Vector.EnsureCollection(ctx); err != nil {
			slog.Warn("fanout: vector collection ensure failed", slog.Any("error", err))
		}
		if err := s.Vector.UpsertPoints(ctx, points, vectors); err != nil {
			outcome.VectorErr = err
			recordOutcome("vector", false, time.Since(start))
			slog.Warn("fanout: vector upsert failed", slog.Int("points", len(points)), slog.Any("error", err))
		} else {
			recordOutcome("vector", true, time.Since(start))
		}
	}

	return outcome
}

// buildVectorPoints derives chunk and ai_summary VectorPoints for each
// enriched article and embeds their text. Articles that have not completed
// enrichment are skipped entirely. A single embedding failure for one
// article's text does not abort the others; it is collected and the last
// one is returned as the outcome's vector error so the caller sees the
// batch was only partially vectorized.
func (s *Service) buildVectorPoints(ctx context.Context, articles []*entity.Article, opts Options) ([]entity.VectorPoint, map[string][]float32, error) {
	points := make([]entity.VectorPoint, 0, len(articles)*2)
	vectors := make(map[string][]float32, len(articles)*2)
	var lastErr error

	for _, a := range articles {
		if a.Status != entity.StatusEnriched {
			continue
		}
		for _, c := range entity.ChunkContent(a.ArticleID, a.Content, entity.ChunkSize) {
			vec, err := s.Embedder.Embed(ctx, c.Text)
			if err != nil {
				lastErr = err
				continue
			}
			p := entity.ChunkVectorPoint(a, c, opts.Topic, opts.UserID)
			points = append(points, p)
			vectors[p.PointID] = vec
		}
		if len(a.AISummary) > 0 {
			summaryText := joinSummary(a.AISummary)
			vec, err := s.Embedder.Embed(ctx, summaryText)
			if err != nil {
				lastErr = err
			} else {
				p := entity.SummaryVectorPoint(a, opts.Topic, opts.UserID)
				points = append(points, p)
				vectors[p.PointID] = vec
			}
		}
	}

	return points, vectors, lastErr
}

func joinSummary(sentences []string) string {
	return strings.Join(sentences, " ")
}

// AddSearchID appends searchID to every store's record for each article,
// called by the Search Orchestrator once a SearchSession has claimed its
// matched articles.
func (s *Service) AddSearchID(ctx context.Context, articleIDs []string, searchID string) FanoutOutcome {
	var outcome FanoutOutcome
	if err := s.Documents.AddSearchID(ctx, articleIDs, searchID); err != nil {
		outcome.DocumentErr = err
		slog.Error("fanout: document store add_search_id failed", slog.String("search_id", searchID), slog.Any("error", err))
		return outcome
	}
	if err := s.Lexical.AddSearchID(ctx, articleIDs, searchID); err != nil {
		outcome.LexicalErr = err
		slog.Warn("fanout: lexical add_search_id failed", slog.String("search_id", searchID), slog.Any("error", err))
	}
	if err := s.Vector.AddSearchID(ctx, articleIDs, searchID); err != nil {
		outcome.VectorErr = err
		slog.Warn("fanout: vector add_search_id failed", slog.String("search_id", searchID), slog.Any("error", err))
	}
	return outcome
}

// DeleteByArticleIDs removes articles from every store, used by history
// retention once an article's search_id set becomes empty.
func (s *Service) DeleteByArticleIDs(ctx context.Context, articleIDs []string) FanoutOutcome {
	var outcome FanoutOutcome
	if len(articleIDs) == 0 {
		return outcome
	}
	if err := s.Documents.DeleteByArticleIDs(ctx, articleIDs); err != nil {
		outcome.DocumentErr = err
		slog.Error("fanout: document store delete failed", slog.Int("count", len(articleIDs)), slog.Any("error", err))
		return outcome
	}
	if err := s.Lexical.DeleteByArticleIDs(ctx, articleIDs); err != nil {
		outcome.LexicalErr = err
		slog.Warn("fanout: lexical delete failed", slog.Int("count", len(articleIDs)), slog.Any("error", err))
	}
	if err := s.Vector.DeleteByArticleIDs(ctx, articleIDs); err != nil {
		outcome.VectorErr = err
		slog.Warn("fanout: vector delete failed", slog.Int("count", len(articleIDs)), slog.Any("error", err))
	}
	return outcome
}
