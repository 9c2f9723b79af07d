// Package vector adapts the Qdrant gRPC client to the narrow VectorIndex
// contracts the Store Fanout and Retrieval Interface components depend on.
package vector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"hybridnews/internal/domain/entity"
	"hybridnews/internal/resilience/circuitbreaker"
	"hybridnews/internal/resilience/retry"
	"hybridnews/internal/usecase/retrieve"

	"github.com/qdrant/go-client/qdrant"
	"github.com/sony/gobreaker"
)

const (
	fieldArticleID   = "article_id"
	fieldSearchIDs   = "search_ids"
	fieldTitle       = "title"
	fieldURL         = "url"
	fieldWebsite     = "website"
	fieldPublishDate = "publish_date"
	fieldSentiment   = "sentiment"
	fieldTopic       = "topic"
	fieldUserID      = "user_id"
	fieldType        = "type"
	fieldChunkID     = "chunk_id"
	fieldText        = "text"
	fieldSummaryText = "summary_text"

	scrollBatchLimit = 256
)

// Index is a Qdrant-backed implementation of fanout.VectorIndex and
// retrieve.VectorIndex, communicating over the gRPC client (default port
// 6334).
type Index struct {
	client         *qdrant.Client
	collection     string
	dimension      uint64
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// Config is the dial configuration for a Qdrant deployment.
type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	Dimension  uint64
}

// New dials Qdrant and returns an Index bound to the given collection. It
// does not create the collection; callers must invoke EnsureCollection
// before the first upsert.
func New(cfg Config) (*Index, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant: collection name is required")
	}
	if cfg.Dimension == 0 {
		cfg.Dimension = 384
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: create client: %w", err)
	}
	return &Index{
		client:         client,
		collection:     cfg.Collection,
		dimension:      cfg.Dimension,
		circuitBreaker: circuitbreaker.New(circuitbreaker.VectorIndexConfig()),
		retryConfig:    retry.IndexStoreConfig(),
	}, nil
}

// execute runs one outbound Qdrant interaction behind the circuit breaker
// and retry policy.
func (idx *Index) execute(ctx context.Context, fn func() error) error {
	return retry.WithBackoff(ctx, idx.retryConfig, func() error {
		_, err := idx.circuitBreaker.Execute(func() (interface{}, error) {
			return nil, fn()
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("qdrant: circuit breaker open, request rejected",
					slog.String("collection", idx.collection),
					slog.String("state", idx.circuitBreaker.State().String()))
				return fmt.Errorf("vector index unavailable: circuit breaker open")
			}
		}
		return err
	})
}

// Close releases the underlying gRPC connection.
func (idx *Index) Close() error {
	return idx.client.Close()
}

// EnsureCollection creates the collection with a cosine-distance vector
// config if it does not already exist, and keeps the keyword payload
// indexes in place for the fields search and deletion filter on.
func (idx *Index) EnsureCollection(ctx context.Context) error {
	return idx.execute(ctx, func() error {
		exists, err := idx.client.CollectionExists(ctx, idx.collection)
		if err != nil {
			return fmt.Errorf("qdrant: check collection exists: %w", err)
		}
		if !exists {
			err = idx.client.CreateCollection(ctx, &qdrant.CreateCollection{
				CollectionName: idx.collection,
				VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
					Size:     idx.dimension,
					Distance: qdrant.Distance_Cosine,
				}),
			})
			if err != nil {
				return fmt.Errorf("qdrant: create collection: %w", err)
			}
		}
		for _, field := range []string{fieldType, fieldArticleID, fieldWebsite, fieldUserID} {
			_, err := idx.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
				CollectionName: idx.collection,
				FieldName:      field,
				FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
			})
			if err != nil {
				return fmt.Errorf("qdrant: create payload index %s: %w", field, err)
			}
		}
		return nil
	})
}

// UpsertPoints writes chunk/ai_summary points with their embedded vectors
// during enrichment write-through. Point IDs are the deterministic
// UUIDv5 ids entity.VectorPointID derives, so re-enrichment overwrites the
// same points instead of duplicating them.
func (idx *Index) UpsertPoints(ctx context.Context, points []entity.VectorPoint, vectors map[string][]float32) error {
	if len(points) == 0 {
		return nil
	}
	structs := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		vec, ok := vectors[p.PointID]
		if !ok {
			continue
		}
		structs = append(structs, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(p.PointID),
			Vectors: qdrant.NewVectorsDense(vec),
			Payload: qdrant.NewValueMap(payloadOf(p)),
		})
	}
	if len(structs) == 0 {
		return nil
	}
	return idx.execute(ctx, func() error {
		_, err := idx.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: idx.collection,
			Points:         structs,
		})
		if err != nil {
			return fmt.Errorf("qdrant: upsert points: %w", err)
		}
		return nil
	})
}

func payloadOf(p entity.VectorPoint) map[string]any {
	m := map[string]any{
		fieldArticleID:   p.ArticleID,
		fieldType:        string(p.Type),
		fieldTitle:       p.Title,
		fieldURL:         p.URL,
		fieldWebsite:     p.Website,
		fieldPublishDate: p.PublishDate,
		fieldSentiment:   string(p.Sentiment),
		fieldTopic:       p.Topic,
		fieldUserID:      p.UserID,
		fieldSearchIDs:   toAnyList(p.SearchIDs),
	}
	switch p.Type {
	case entity.VectorPointChunk:
		m[fieldChunkID] = p.ChunkID
		m[fieldText] = p.Text
	case entity.VectorPointAISummary:
		m[fieldSummaryText] = toAnyList(p.SummaryText)
	}
	return m
}

func toAnyList(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// AddSearchID appends searchID to the search_ids payload of every point
// belonging to the given article ids. Qdrant has no atomic array-append, so
// each matching point is scrolled, merged client-side, and written back
// individually.
func (idx *Index) AddSearchID(ctx context.Context, articleIDs []string, searchID string) error {
	if len(articleIDs) == 0 {
		return nil
	}
	limit := uint32(scrollBatchLimit)
	var result []*qdrant.RetrievedPoint
	err := idx.execute(ctx, func() error {
		var scrollErr error
		result, scrollErr = idx.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: idx.collection,
			Filter: &qdrant.Filter{
				Must: []*qdrant.Condition{qdrant.NewMatchKeywords(fieldArticleID, articleIDs...)},
			},
			Limit:       &limit,
			WithPayload: qdrant.NewWithPayload(true),
		})
		if scrollErr != nil {
			return fmt.Errorf("qdrant: scroll for add_search_id: %w", scrollErr)
		}
		return nil
	})
	if err != nil {
		return err
	}

	var lastErr error
	for _, point := range result {
		current := listValue(point.Payload[fieldSearchIDs])
		if containsID(current, searchID) {
			continue
		}
		updated := toAnyList(append(current, searchID))
		p := point
		err := idx.execute(ctx, func() error {
			_, setErr := idx.client.SetPayload(ctx, &qdrant.SetPayloadPoints{
				CollectionName: idx.collection,
				Payload:        qdrant.NewValueMap(map[string]any{fieldSearchIDs: updated}),
				PointsSelector: qdrant.NewPointsSelector(p.Id),
			})
			return setErr
		})
		if err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// listValue reads a string-list payload value; a missing or non-list value
// yields nil.
func listValue(v *qdrant.Value) []string {
	if v == nil {
		return nil
	}
	lv := v.GetListValue()
	if lv == nil {
		return nil
	}
	out := make([]string, 0, len(lv.Values))
	for _, item := range lv.Values {
		if s := item.GetStringValue(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func containsID(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

// DeleteByArticleIDs removes every point (chunk and ai_summary) belonging
// to the given article ids.
func (idx *Index) DeleteByArticleIDs(ctx context.Context, articleIDs []string) error {
	if len(articleIDs) == 0 {
		return nil
	}
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatchKeywords(fieldArticleID, articleIDs...)},
	}
	return idx.execute(ctx, func() error {
		_, err := idx.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: idx.collection,
			Points:         qdrant.NewPointsSelectorFilter(filter),
		})
		if err != nil {
			return fmt.Errorf("qdrant: delete by article ids: %w", err)
		}
		return nil
	})
}

// SimilaritySearch runs vector-only semantic search. A non-empty userID
// scopes hits to that caller plus the scheduler-owned system lanes. A chunk
// point's Text is used directly; an ai_summary point's SummaryText
// sentences are joined into the Hit's Text.
func (idx *Index) SimilaritySearch(ctx context.Context, vector []float32, topK int, userID string) ([]retrieve.Hit, error) {
	if topK <= 0 {
		topK = 10
	}
	limit := uint64(topK)

	var filter *qdrant.Filter
	if userID != "" {
		filter = &qdrant.Filter{
			Should: []*qdrant.Condition{
				qdrant.NewMatch(fieldUserID, userID),
				qdrant.NewMatch(fieldUserID, "system"),
				qdrant.NewMatch(fieldUserID, "system_auto"),
			},
		}
	}

	var result []*qdrant.ScoredPoint
	err := idx.execute(ctx, func() error {
		var queryErr error
		result, queryErr = idx.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: idx.collection,
			Query:          qdrant.NewQueryDense(vector),
			Limit:          &limit,
			Filter:         filter,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if queryErr != nil {
			return fmt.Errorf("qdrant: similarity search: %w", queryErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	hits := make([]retrieve.Hit, 0, len(result))
	for _, sp := range result {
		payload := sp.Payload
		text := payload[fieldText].GetStringValue()
		if text == "" {
			text = strings.Join(listValue(payload[fieldSummaryText]), " ")
		}
		hits = append(hits, retrieve.Hit{
			Text:        text,
			Title:       payload[fieldTitle].GetStringValue(),
			URL:         payload[fieldURL].GetStringValue(),
			Score:       float64(sp.Score),
			PublishDate: payload[fieldPublishDate].GetStringValue(),
			Sentiment:   payload[fieldSentiment].GetStringValue(),
		})
	}
	return hits, nil
}
