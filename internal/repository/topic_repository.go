package repository

import (
	"context"
	"time"

	"hybridnews/internal/domain/entity"
)

// TopicRepository is the document-store contract for Topic.
type TopicRepository interface {
	Upsert(ctx context.Context, topic *entity.Topic) error
	Get(ctx context.Context, url string) (*entity.Topic, error)

	// ListActive returns active topics, optionally filtered by website.
	ListActive(ctx context.Context, website string) ([]*entity.Topic, error)

	TouchCrawledAt(ctx context.Context, url string, crawledAt time.Time) error
}
