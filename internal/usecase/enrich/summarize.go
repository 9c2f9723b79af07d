package enrich

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// minSentenceLength is the shortest sentence extractive summarization will
// consider; shorter fragments are noise for the centroid.
const minSentenceLength = 25

// maxCandidateSentences caps the number of leading sentences embedded for
// the centroid computation.
const maxCandidateSentences = 50

// summaryLength is the number of top-scoring sentences kept.
const summaryLength = 3

// splitSentences is a small rule-based Vietnamese-aware tokenizer: it
// breaks on runs of '.', '!', '?', '…' followed by whitespace, and trims
// each resulting piece. It intentionally does not attempt abbreviation
// detection; extractive summarization only needs approximate boundaries.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '…' {
			next := i + 1
			if next >= len(runes) || runes[next] == ' ' || runes[next] == '\n' || runes[next] == '\t' {
				if s := strings.TrimSpace(b.String()); s != "" {
					sentences = append(sentences, s)
				}
				b.Reset()
			}
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// ExtractiveSummary produces the extractive summary: split into sentences, keep
// those at least minSentenceLength long, embed the first
// maxCandidateSentences, compute their centroid, rank by cosine similarity
// to the centroid, keep the top summaryLength, and restore original order.
// Returns nil, nil if fewer than one qualifying sentence remains.
func ExtractiveSummary(ctx context.Context, embedder EmbeddingProvider, text string) ([]string, error) {
	var candidates []string
	for _, s := range splitSentences(text) {
		if utf8.RuneCountInString(s) >= minSentenceLength {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	if len(candidates) > maxCandidateSentences {
		candidates = candidates[:maxCandidateSentences]
	}
	if len(candidates) <= summaryLength {
		return candidates, nil
	}

	vectors, err := embedder.EmbedBatch(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("embed sentences: %w", err)
	}
	if len(vectors) != len(candidates) {
		return nil, fmt.Errorf("embedding batch returned %d vectors for %d sentences", len(vectors), len(candidates))
	}

	centroid := centroidOf(vectors)

	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, len(candidates))
	for i, vec := range vectors {
		ranked[i] = scored{index: i, score: cosineSimilarity(vec, centroid)}
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	kept := make(map[int]bool, summaryLength)
	for _, r := range ranked[:summaryLength] {
		kept[r.index] = true
	}

	out := make([]string, 0, summaryLength)
	for i, s := range candidates {
		if kept[i] {
			out = append(out, s)
		}
	}
	return out, nil
}

func centroidOf(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	dims := len(vectors[0])
	sum := make([]float64, dims)
	for _, v := range vectors {
		for i, x := range v {
			if i < dims {
				sum[i] += float64(x)
			}
		}
	}
	centroid := make([]float32, dims)
	for i, s := range sum {
		centroid[i] = float32(s / float64(len(vectors)))
	}
	return centroid
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
