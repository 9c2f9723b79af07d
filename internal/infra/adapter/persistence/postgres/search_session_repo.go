package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"hybridnews/internal/domain/entity"
	"hybridnews/internal/repository"

	"github.com/lib/pq"
)

// SearchSessionRepo is the Postgres-backed SearchSessionRepository.
type SearchSessionRepo struct{ db *sql.DB }

// NewSearchSessionRepo builds a SearchSessionRepo.
func NewSearchSessionRepo(db *sql.DB) repository.SearchSessionRepository {
	return &SearchSessionRepo{db: db}
}

const searchSessionColumns = `search_id, user_id, keyword_search, keyword_content,
	max_articles_requested, total_saved, status, time_range_start, time_range_end,
	websites, created_at, updated_at, data_cleared`

func (repo *SearchSessionRepo) Create(ctx context.Context, s *entity.SearchSession) error {
	const query = `
INSERT INTO search_sessions (` + searchSessionColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := repo.db.ExecContext(ctx, query,
		s.SearchID, s.UserID, s.KeywordSearch, s.KeywordContent,
		s.MaxArticlesRequested, s.TotalSaved, string(s.Status),
		s.TimeRange.Start, s.TimeRange.End, pq.Array(s.Websites),
		s.CreatedAt, s.UpdatedAt, s.DataCleared,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *SearchSessionRepo) Get(ctx context.Context, searchID string) (*entity.SearchSession, error) {
	query := `SELECT ` + searchSessionColumns + ` FROM search_sessions WHERE search_id = $1`
	var s entity.SearchSession
	var status string
	err := repo.db.QueryRowContext(ctx, query, searchID).Scan(
		&s.SearchID, &s.UserID, &s.KeywordSearch, &s.KeywordContent,
		&s.MaxArticlesRequested, &s.TotalSaved, &status,
		&s.TimeRange.Start, &s.TimeRange.End, pq.Array(&s.Websites),
		&s.CreatedAt, &s.UpdatedAt, &s.DataCleared,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	s.Status = entity.SearchSessionStatus(status)
	return &s, nil
}

func (repo *SearchSessionRepo) SetStatus(ctx context.Context, searchID string, status entity.SearchSessionStatus, totalSaved int) error {
	const query = `
UPDATE search_sessions SET status = $2, total_saved = $3, updated_at = now()
WHERE search_id = $1`
	_, err := repo.db.ExecContext(ctx, query, searchID, string(status), totalSaved)
	if err != nil {
		return fmt.Errorf("SetStatus: %w", err)
	}
	return nil
}

func (repo *SearchSessionRepo) ListByUser(ctx context.Context, userID string) ([]*entity.SearchSession, error) {
	query := `SELECT ` + searchSessionColumns + ` FROM search_sessions WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := repo.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ListByUser: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.SearchSession
	for rows.Next() {
		var s entity.SearchSession
		var status string
		if err := rows.Scan(
			&s.SearchID, &s.UserID, &s.KeywordSearch, &s.KeywordContent,
			&s.MaxArticlesRequested, &s.TotalSaved, &status,
			&s.TimeRange.Start, &s.TimeRange.End, pq.Array(&s.Websites),
			&s.CreatedAt, &s.UpdatedAt, &s.DataCleared,
		); err != nil {
			return nil, fmt.Errorf("ListByUser: scan: %w", err)
		}
		s.Status = entity.SearchSessionStatus(status)
		out = append(out, &s)
	}
	return out, rows.Err()
}

// ListOverRetention returns the search_ids of sessions beyond the newest
// keepNewest for userID, oldest first.
func (repo *SearchSessionRepo) ListOverRetention(ctx context.Context, userID string, keepNewest int) ([]string, error) {
	const query = `
SELECT search_id FROM (
	SELECT search_id, row_number() OVER (ORDER BY created_at DESC) AS rn
	FROM search_sessions WHERE user_id = $1
) ranked WHERE rn > $2`
	rows, err := repo.db.QueryContext(ctx, query, userID, keepNewest)
	if err != nil {
		return nil, fmt.Errorf("ListOverRetention: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ListOverRetention: scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (repo *SearchSessionRepo) Delete(ctx context.Context, searchID string) error {
	const query = `DELETE FROM search_sessions WHERE search_id = $1`
	_, err := repo.db.ExecContext(ctx, query, searchID)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

func (repo *SearchSessionRepo) MarkDataCleared(ctx context.Context, searchID string) error {
	const query = `UPDATE search_sessions SET data_cleared = TRUE WHERE search_id = $1`
	_, err := repo.db.ExecContext(ctx, query, searchID)
	if err != nil {
		return fmt.Errorf("MarkDataCleared: %w", err)
	}
	return nil
}
