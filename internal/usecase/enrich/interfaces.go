// Package enrich implements the Enrichment Pipeline: it turns a raw
// crawled Article into an extractive summary, a sentiment classification,
// and a set of embedded chunks, writing the result through the Store
// Fanout.
package enrich

import "context"

// EmbeddingProvider turns text into dense vectors, one-shot or batched.
// Implementations wrap an HTTP embeddings API (OpenAI) or a local gRPC
// model-serving sidecar.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// SentimentProvider classifies a span of text into one of the three
// sentiment labels, with a confidence score in [0,1].
type SentimentProvider interface {
	Classify(ctx context.Context, text string) (label string, score float64, err error)
}
