package repository

import (
	"context"

	"hybridnews/internal/domain/entity"
)

// SearchSessionRepository is the document-store contract for SearchSession.
type SearchSessionRepository interface {
	Create(ctx context.Context, session *entity.SearchSession) error
	Get(ctx context.Context, searchID string) (*entity.SearchSession, error)

	// SetStatus updates status, total_saved and updated_at.
	SetStatus(ctx context.Context, searchID string, status entity.SearchSessionStatus, totalSaved int) error

	// ListByUser returns sessions for a user, newest first.
	ListByUser(ctx context.Context, userID string) ([]*entity.SearchSession, error)

	// ListOverRetention returns the search_ids of sessions beyond the newest
	// N for a user, oldest first; these are the retention sweep candidates.
	ListOverRetention(ctx context.Context, userID string, keepNewest int) ([]string, error)

	// Delete removes a session record (used after retention sweep).
	Delete(ctx context.Context, searchID string) error

	// MarkDataCleared flags a session whose articles were swept by retention.
	MarkDataCleared(ctx context.Context, searchID string) error
}
