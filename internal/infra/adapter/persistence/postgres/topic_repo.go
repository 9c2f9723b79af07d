package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hybridnews/internal/domain/entity"
	"hybridnews/internal/repository"
)

// TopicRepo is the Postgres-backed TopicRepository.
type TopicRepo struct{ db *sql.DB }

// NewTopicRepo builds a TopicRepo.
func NewTopicRepo(db *sql.DB) repository.TopicRepository {
	return &TopicRepo{db: db}
}

func (repo *TopicRepo) Upsert(ctx context.Context, t *entity.Topic) error {
	const query = `
INSERT INTO topics (url, name, website, is_active, last_crawled_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (url) DO UPDATE SET
	name       = EXCLUDED.name,
	website    = EXCLUDED.website,
	is_active  = EXCLUDED.is_active`
	_, err := repo.db.ExecContext(ctx, query, t.URL, t.Name, t.Website, t.IsActive, t.LastCrawledAt)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}

func (repo *TopicRepo) Get(ctx context.Context, url string) (*entity.Topic, error) {
	const query = `SELECT url, name, website, is_active, last_crawled_at FROM topics WHERE url = $1`
	var t entity.Topic
	var lastCrawledAt sql.NullTime
	err := repo.db.QueryRowContext(ctx, query, url).Scan(&t.URL, &t.Name, &t.Website, &t.IsActive, &lastCrawledAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	if lastCrawledAt.Valid {
		t.LastCrawledAt = &lastCrawledAt.Time
	}
	return &t, nil
}

func (repo *TopicRepo) ListActive(ctx context.Context, website string) ([]*entity.Topic, error) {
	query := `SELECT url, name, website, is_active, last_crawled_at FROM topics WHERE is_active = TRUE`
	args := []any{}
	if website != "" {
		query += ` AND website = $1`
		args = append(args, website)
	}
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListActive: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.Topic
	for rows.Next() {
		var t entity.Topic
		var lastCrawledAt sql.NullTime
		if err := rows.Scan(&t.URL, &t.Name, &t.Website, &t.IsActive, &lastCrawledAt); err != nil {
			return nil, fmt.Errorf("ListActive: scan: %w", err)
		}
		if lastCrawledAt.Valid {
			t.LastCrawledAt = &lastCrawledAt.Time
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (repo *TopicRepo) TouchCrawledAt(ctx context.Context, url string, crawledAt time.Time) error {
	const query = `UPDATE topics SET last_crawled_at = $2 WHERE url = $1`
	_, err := repo.db.ExecContext(ctx, query, url, crawledAt)
	if err != nil {
		return fmt.Errorf("TouchCrawledAt: %w", err)
	}
	return nil
}
