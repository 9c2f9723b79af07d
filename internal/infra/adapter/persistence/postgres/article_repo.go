// Package postgres provides PostgreSQL implementations of the document-store
// repository interfaces (the document store is the source of truth that
// the lexical and vector indexes are repaired from).
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"hybridnews/internal/domain/entity"
	"hybridnews/internal/repository"

	"github.com/lib/pq"
)

// ArticleRepo is the Postgres-backed ArticleRepository.
type ArticleRepo struct{ db *sql.DB }

// NewArticleRepo builds an ArticleRepo.
func NewArticleRepo(db *sql.DB) repository.ArticleRepository {
	return &ArticleRepo{db: db}
}

const articleColumns = `article_id, url, title, summary, content, site_categories, tags,
	publish_date, crawled_at, website, status, ai_summary, ai_sentiment_score,
	ai_sentiment_label, last_enriched_at, search_ids`

func scanArticle(row interface{ Scan(...any) error }) (*entity.Article, error) {
	var a entity.Article
	var publishDate, lastEnrichedAt sql.NullTime
	var status, sentimentLabel string
	err := row.Scan(
		&a.ArticleID, &a.URL, &a.Title, &a.Summary, &a.Content,
		pq.Array(&a.SiteCategories), pq.Array(&a.Tags),
		&publishDate, &a.CrawledAt, &a.Website, &status,
		pq.Array(&a.AISummary), &a.AISentimentScore, &sentimentLabel,
		&lastEnrichedAt, pq.Array(&a.SearchIDs),
	)
	if err != nil {
		return nil, err
	}
	a.Status = entity.ArticleStatus(status)
	a.AISentimentLabel = entity.SentimentLabel(sentimentLabel)
	if publishDate.Valid {
		a.PublishDate = &publishDate.Time
	}
	if lastEnrichedAt.Valid {
		a.LastEnrichedAt = &lastEnrichedAt.Time
	}
	return &a, nil
}

func (repo *ArticleRepo) GetByURL(ctx context.Context, url string) (*entity.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE url = $1`
	a, err := scanArticle(repo.db.QueryRowContext(ctx, query, url))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByURL: %w", err)
	}
	return a, nil
}

func (repo *ArticleRepo) GetByID(ctx context.Context, articleID string) (*entity.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE article_id = $1`
	a, err := scanArticle(repo.db.QueryRowContext(ctx, query, articleID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

func (repo *ArticleRepo) GetByIDs(ctx context.Context, articleIDs []string) ([]*entity.Article, error) {
	if len(articleIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + articleColumns + ` FROM articles WHERE article_id = ANY($1)`
	rows, err := repo.db.QueryContext(ctx, query, pq.Array(articleIDs))
	if err != nil {
		return nil, fmt.Errorf("GetByIDs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByIDs: scan: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Upsert inserts or updates an article keyed by url. search_ids is merged
// with the $addToSet semantics the document store owns:
// the incoming slice is unioned with whatever is already stored, never
// overwritten wholesale.
func (repo *ArticleRepo) Upsert(ctx context.Context, article *entity.Article) error {
	const query = `
INSERT INTO articles (` + articleColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
ON CONFLICT (url) DO UPDATE SET
	title               = EXCLUDED.title,
	summary             = EXCLUDED.summary,
	content             = EXCLUDED.content,
	site_categories     = EXCLUDED.site_categories,
	tags                = EXCLUDED.tags,
	publish_date        = EXCLUDED.publish_date,
	crawled_at          = EXCLUDED.crawled_at,
	website             = EXCLUDED.website,
	status              = EXCLUDED.status,
	ai_summary          = EXCLUDED.ai_summary,
	ai_sentiment_score  = EXCLUDED.ai_sentiment_score,
	ai_sentiment_label  = EXCLUDED.ai_sentiment_label,
	last_enriched_at    = EXCLUDED.last_enriched_at,
	search_ids          = (
		SELECT COALESCE(array_agg(DISTINCT e), '{}') FROM unnest(
			COALESCE(articles.search_ids, '{}') || COALESCE(EXCLUDED.search_ids, '{}')
		) AS e
	)`
	_, err := repo.db.ExecContext(ctx, query,
		article.ArticleID, article.URL, article.Title, article.Summary, article.Content,
		pq.Array(article.SiteCategories), pq.Array(article.Tags),
		article.PublishDate, article.CrawledAt, article.Website, string(article.Status),
		pq.Array(article.AISummary), article.AISentimentScore, string(article.AISentimentLabel),
		article.LastEnrichedAt, pq.Array(article.SearchIDs),
	)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}

func (repo *ArticleRepo) AddSearchID(ctx context.Context, articleIDs []string, searchID string) error {
	if len(articleIDs) == 0 {
		return nil
	}
	const query = `
UPDATE articles SET search_ids = (
	SELECT COALESCE(array_agg(DISTINCT e), '{}')
	FROM unnest(COALESCE(search_ids, '{}') || ARRAY[$2::text]) AS e
)
WHERE article_id = ANY($1)`
	_, err := repo.db.ExecContext(ctx, query, pq.Array(articleIDs), searchID)
	if err != nil {
		return fmt.Errorf("AddSearchID: %w", err)
	}
	return nil
}

func (repo *ArticleRepo) RemoveSearchID(ctx context.Context, searchID string) error {
	const query = `
UPDATE articles SET search_ids = array_remove(search_ids, $1)
WHERE $1 = ANY(search_ids)`
	_, err := repo.db.ExecContext(ctx, query, searchID)
	if err != nil {
		return fmt.Errorf("RemoveSearchID: %w", err)
	}
	return nil
}

func (repo *ArticleRepo) ListEmptySearchIDArticles(ctx context.Context) ([]string, error) {
	const query = `SELECT article_id FROM articles WHERE search_ids IS NULL OR array_length(search_ids, 1) IS NULL`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListEmptySearchIDArticles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ListEmptySearchIDArticles: scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ClaimForEnrichment atomically transitions up to limit raw/ai_error
// articles to processing and returns them, using SELECT ... FOR UPDATE
// SKIP LOCKED so concurrent tick goroutines (and concurrent worker
// replicas) never double-claim the same row.
func (repo *ArticleRepo) ClaimForEnrichment(ctx context.Context, limit int) ([]*entity.Article, error) {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ClaimForEnrichment: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const selectQuery = `
SELECT article_id FROM articles
WHERE status IN ('raw', 'ai_error')
ORDER BY crawled_at ASC
LIMIT $1
FOR UPDATE SKIP LOCKED`
	rows, err := tx.QueryContext(ctx, selectQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("ClaimForEnrichment: select: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("ClaimForEnrichment: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()
	if len(ids) == 0 {
		return nil, tx.Commit()
	}

	const updateQuery = `UPDATE articles SET status = 'processing' WHERE article_id = ANY($1)`
	if _, err := tx.ExecContext(ctx, updateQuery, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("ClaimForEnrichment: update: %w", err)
	}

	claimedQuery := `SELECT ` + articleColumns + ` FROM articles WHERE article_id = ANY($1)`
	claimedRows, err := tx.QueryContext(ctx, claimedQuery, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("ClaimForEnrichment: reselect: %w", err)
	}
	defer func() { _ = claimedRows.Close() }()

	var out []*entity.Article
	for claimedRows.Next() {
		a, err := scanArticle(claimedRows)
		if err != nil {
			return nil, fmt.Errorf("ClaimForEnrichment: scan claimed: %w", err)
		}
		out = append(out, a)
	}
	if err := claimedRows.Err(); err != nil {
		return nil, err
	}
	return out, tx.Commit()
}

func (repo *ArticleRepo) MarkEnriched(ctx context.Context, article *entity.Article) error {
	const query = `
UPDATE articles SET
	ai_summary          = $2,
	ai_sentiment_score  = $3,
	ai_sentiment_label  = $4,
	last_enriched_at    = $5,
	status              = 'enriched'
WHERE article_id = $1`
	_, err := repo.db.ExecContext(ctx, query,
		article.ArticleID, pq.Array(article.AISummary), article.AISentimentScore,
		string(article.AISentimentLabel), article.LastEnrichedAt,
	)
	if err != nil {
		return fmt.Errorf("MarkEnriched: %w", err)
	}
	return nil
}

func (repo *ArticleRepo) MarkAIError(ctx context.Context, articleID string) error {
	const query = `UPDATE articles SET status = 'ai_error' WHERE article_id = $1`
	_, err := repo.db.ExecContext(ctx, query, articleID)
	if err != nil {
		return fmt.Errorf("MarkAIError: %w", err)
	}
	return nil
}

// Search runs the lexical-equivalent filter directly against the document
// store, used only as a fallback when the lexical index is unavailable
// (log and continue; the next scheduled pass retries).
func (repo *ArticleRepo) Search(ctx context.Context, filter repository.ArticleFilter, limit int) ([]*entity.Article, error) {
	var where []string
	var args []any
	idx := 1

	if len(filter.Websites) > 0 {
		where = append(where, fmt.Sprintf("website = ANY($%d)", idx))
		args = append(args, pq.Array(filter.Websites))
		idx++
	}
	if filter.StartDate != nil {
		where = append(where, fmt.Sprintf("publish_date >= $%d", idx))
		args = append(args, *filter.StartDate)
		idx++
	}
	if filter.EndDate != nil {
		where = append(where, fmt.Sprintf("publish_date <= $%d", idx))
		args = append(args, *filter.EndDate)
		idx++
	}
	if filter.SearchID != "" {
		where = append(where, fmt.Sprintf("$%d = ANY(search_ids)", idx))
		args = append(args, filter.SearchID)
		idx++
	}

	query := `SELECT ` + articleColumns + ` FROM articles`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(` ORDER BY publish_date DESC NULLS LAST LIMIT $%d`, idx)
	args = append(args, limit)

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("Search: scan: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (repo *ArticleRepo) DeleteByArticleIDs(ctx context.Context, articleIDs []string) error {
	if len(articleIDs) == 0 {
		return nil
	}
	const query = `DELETE FROM articles WHERE article_id = ANY($1)`
	_, err := repo.db.ExecContext(ctx, query, pq.Array(articleIDs))
	if err != nil {
		return fmt.Errorf("DeleteByArticleIDs: %w", err)
	}
	return nil
}

func (repo *ArticleRepo) ExistsByURLBatch(ctx context.Context, urls []string) (map[string]bool, error) {
	if len(urls) == 0 {
		return make(map[string]bool), nil
	}
	const query = `SELECT url FROM articles WHERE url = ANY($1)`
	rows, err := repo.db.QueryContext(ctx, query, pq.Array(urls))
	if err != nil {
		return nil, fmt.Errorf("ExistsByURLBatch: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]bool)
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("ExistsByURLBatch: scan: %w", err)
		}
		result[url] = true
	}
	return result, rows.Err()
}

func (repo *ArticleRepo) CountBySearchID(ctx context.Context, searchID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM articles WHERE $1 = ANY(search_ids)`
	var count int64
	err := repo.db.QueryRowContext(ctx, query, searchID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("CountBySearchID: %w", err)
	}
	return count, nil
}

func (repo *ArticleRepo) ListBySearchIDPaginated(ctx context.Context, searchID string, offset, limit int) ([]*entity.Article, int64, error) {
	total, err := repo.CountBySearchID(ctx, searchID)
	if err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + articleColumns + ` FROM articles WHERE $1 = ANY(search_ids)
ORDER BY publish_date DESC NULLS LAST LIMIT $2 OFFSET $3`
	rows, err := repo.db.QueryContext(ctx, query, searchID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ListBySearchIDPaginated: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ListBySearchIDPaginated: scan: %w", err)
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}
