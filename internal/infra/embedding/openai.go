// Package embedding implements the Embedding Provider: it turns a
// span of text into a 384-dimension dense vector, the common contract the
// Enrichment Pipeline, Store Fanout and Retrieval Interface all depend on.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"hybridnews/internal/resilience/circuitbreaker"
	"hybridnews/internal/resilience/retry"
)

// Dimension is the vector size every embedded point in the vector index
// shares: 384-dimension cosine vectors.
const Dimension = 384

// defaultModel supports the `dimensions` request parameter, letting a
// single call produce Dimension-sized vectors without a separate
// reduction step.
const defaultModel = openai.SmallEmbedding3

// Provider implements enrich.EmbeddingProvider, fanout.EmbeddingProvider
// and retrieve.EmbeddingProvider; all three declare the identical
// Embed(ctx, text) ([]float32, error) shape.
type Provider struct {
	client         *openai.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	model          openai.EmbeddingModel
}

// New creates an embedding Provider backed by the OpenAI embeddings API.
func New(apiKey string) *Provider {
	return &Provider{
		client:         openai.NewClient(apiKey),
		circuitBreaker: circuitbreaker.New(circuitbreaker.OpenAIAPIConfig()),
		retryConfig:    retry.AIAPIConfig(),
		model:          defaultModel,
	}
}

// Embed vectorizes text, retrying transient failures and short-circuiting
// through the circuit breaker when the API is degraded.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	var result []float32

	err := retry.WithBackoff(ctx, p.retryConfig, func() error {
		cbResult, err := p.circuitBreaker.Execute(func() (interface{}, error) {
			return p.doEmbed(ctx, text)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("embedding: circuit breaker open, request rejected",
					slog.String("service", "openai-embeddings"),
					slog.String("state", p.circuitBreaker.State().String()))
				return fmt.Errorf("embedding api unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.([]float32)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("embed failed after retries: %w", err)
	}
	return result, nil
}

func (p *Provider) doEmbed(ctx context.Context, text string) ([]float32, error) {
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:      []string{text},
		Model:      p.model,
		Dimensions: Dimension,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings api error: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embeddings api returned no data")
	}
	return resp.Data[0].Embedding, nil
}

// EmbedBatch vectorizes texts in one API round trip, with the same retry
// and circuit-breaker wrapping as Embed. The result preserves input order.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var result [][]float32

	err := retry.WithBackoff(ctx, p.retryConfig, func() error {
		cbResult, err := p.circuitBreaker.Execute(func() (interface{}, error) {
			resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
				Input:      texts,
				Model:      p.model,
				Dimensions: Dimension,
			})
			if err != nil {
				return nil, fmt.Errorf("openai embeddings api error: %w", err)
			}
			if len(resp.Data) != len(texts) {
				return nil, fmt.Errorf("openai embeddings api returned %d vectors for %d inputs", len(resp.Data), len(texts))
			}
			vectors := make([][]float32, len(resp.Data))
			for i, d := range resp.Data {
				vectors[i] = d.Embedding
			}
			return vectors, nil
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("embedding: circuit breaker open, batch request rejected",
					slog.String("service", "openai-embeddings"),
					slog.String("state", p.circuitBreaker.State().String()))
				return fmt.Errorf("embedding api unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.([][]float32)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("embed batch failed after retries: %w", err)
	}
	return result, nil
}
