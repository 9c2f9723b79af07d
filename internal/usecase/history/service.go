// Package history implements SearchSession retention: after each new
// session, a user keeps at most N sessions; articles orphaned by retention
// (empty search_id) are deleted from every store.
package history

import (
	"context"
	"fmt"
	"log/slog"

	"hybridnews/internal/domain/entity"
	"hybridnews/internal/repository"
	"hybridnews/internal/usecase/fanout"
)

// Service is the history retention sweep.
type Service struct {
	Sessions   repository.SearchSessionRepository
	Articles   repository.ArticleRepository
	Fanout     *fanout.Service
	KeepNewest int
}

// NewService builds a history retention Service. keepNewest defaults to
// entity.DefaultHistoryRetention when <= 0.
func NewService(sessions repository.SearchSessionRepository, articles repository.ArticleRepository, fan *fanout.Service, keepNewest int) *Service {
	if keepNewest <= 0 {
		keepNewest = entity.DefaultHistoryRetention
	}
	return &Service{Sessions: sessions, Articles: articles, Fanout: fan, KeepNewest: keepNewest}
}

// EnforceRetention drops every session for userID beyond the newest
// KeepNewest, removes their search_id from every article's set across all
// three stores, and deletes any article whose search_id set becomes
// empty. It is invoked after every new SearchSession is persisted.
func (s *Service) EnforceRetention(ctx context.Context, userID string) error {
	overRetention, err := s.Sessions.ListOverRetention(ctx, userID, s.KeepNewest)
	if err != nil {
		return fmt.Errorf("list sessions over retention: %w", err)
	}
	if len(overRetention) == 0 {
		return nil
	}

	for _, searchID := range overRetention {
		if err := s.Articles.RemoveSearchID(ctx, searchID); err != nil {
			slog.Error("history: remove search_id failed", slog.String("search_id", searchID), slog.Any("error", err))
			continue
		}
		if err := s.Sessions.Delete(ctx, searchID); err != nil {
			slog.Error("history: delete session failed", slog.String("search_id", searchID), slog.Any("error", err))
		}
	}

	orphaned, err := s.Articles.ListEmptySearchIDArticles(ctx)
	if err != nil {
		return fmt.Errorf("list orphaned articles: %w", err)
	}
	if len(orphaned) == 0 {
		return nil
	}

	outcome := s.Fanout.DeleteByArticleIDs(ctx, orphaned)
	if outcome.AnyFailed() {
		slog.Warn("history: delete orphaned articles had partial failures",
			slog.Int("count", len(orphaned)),
			slog.Any("lexical_err", outcome.LexicalErr),
			slog.Any("vector_err", outcome.VectorErr))
	}
	return nil
}
