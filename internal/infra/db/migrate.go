package db

import "database/sql"

// MigrateUp creates the document-store schema: articles (the source of
// truth the lexical and vector indexes are repaired from),
// search_sessions (retrieval intent + crawl-gap bookkeeping),
// and topics (the per-category pages the topic scheduler rescans).
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS articles (
    article_id          TEXT PRIMARY KEY,
    url                  TEXT NOT NULL UNIQUE,
    title                TEXT NOT NULL,
    summary              TEXT,
    content              TEXT,
    site_categories      TEXT[],
    tags                 TEXT[],
    publish_date         TIMESTAMPTZ,
    crawled_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
    website              TEXT NOT NULL,
    status               TEXT NOT NULL DEFAULT 'raw',
    ai_summary           TEXT[],
    ai_sentiment_score   DOUBLE PRECISION NOT NULL DEFAULT 0,
    ai_sentiment_label   TEXT NOT NULL DEFAULT '',
    last_enriched_at     TIMESTAMPTZ,
    search_ids           TEXT[] NOT NULL DEFAULT '{}'
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
DO $$
BEGIN
    IF NOT EXISTS (
        SELECT 1 FROM pg_constraint WHERE conname = 'chk_article_status'
    ) THEN
        ALTER TABLE articles ADD CONSTRAINT chk_article_status
        CHECK (status IN ('raw', 'processing', 'enriched', 'ai_error'));
    END IF;
END $$;`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS search_sessions (
    search_id              TEXT PRIMARY KEY,
    user_id                TEXT NOT NULL,
    keyword_search         TEXT,
    keyword_content        TEXT,
    max_articles_requested INT NOT NULL,
    total_saved            INT NOT NULL DEFAULT 0,
    status                 TEXT NOT NULL DEFAULT 'processing',
    time_range_start       TIMESTAMPTZ,
    time_range_end         TIMESTAMPTZ,
    websites               TEXT[],
    created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
    data_cleared           BOOLEAN NOT NULL DEFAULT FALSE
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS topics (
    url             TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    website         TEXT NOT NULL,
    is_active       BOOLEAN NOT NULL DEFAULT TRUE,
    last_crawled_at TIMESTAMPTZ
)`); err != nil {
		return err
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_articles_publish_date ON articles(publish_date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_website ON articles(website)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_status ON articles(status)`,
		// Accelerates the document-store Search fallback's search_id membership
		// test and the Progress Stream's CountBySearchID.
		`CREATE INDEX IF NOT EXISTS idx_articles_search_ids ON articles USING gin(search_ids)`,
		`CREATE INDEX IF NOT EXISTS idx_search_sessions_user_created ON search_sessions(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_topics_website_active ON topics(website) WHERE is_active = TRUE`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown drops the document-store schema. Use with caution: this
// deletes all crawled articles, search history and topic registrations.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP TABLE IF EXISTS search_sessions CASCADE`,
		`DROP TABLE IF EXISTS articles CASCADE`,
		`DROP TABLE IF EXISTS topics CASCADE`,
	}
	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
