// Package sentiment implements the Sentiment Provider: it classifies a
// span of text into Positive, Negative or Neutral with a confidence
// score, over a reliability-wrapped Claude client.
package sentiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sony/gobreaker"

	"hybridnews/internal/domain/entity"
	"hybridnews/internal/resilience/circuitbreaker"
	"hybridnews/internal/resilience/retry"
)

const (
	defaultModel     = anthropic.ModelClaudeSonnet4_5_20250929
	maxClassifyChars = 6000
	classifyTimeout  = 30 * time.Second
)

// Provider implements enrich.SentimentProvider over the Anthropic API.
type Provider struct {
	client         anthropic.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	model          anthropic.Model
}

// New creates a sentiment Provider backed by Claude.
func New(apiKey string) *Provider {
	return &Provider{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		circuitBreaker: circuitbreaker.New(circuitbreaker.ClaudeAPIConfig()),
		retryConfig:    retry.AIAPIConfig(),
		model:          defaultModel,
	}
}

// Classify returns one of entity.SentimentPositive/Negative/Neutral with a
// confidence in [0,1].
func (p *Provider) Classify(ctx context.Context, text string) (string, float64, error) {
	ctx, cancel := context.WithTimeout(ctx, classifyTimeout)
	defer cancel()

	type result struct {
		label string
		score float64
	}
	var res result

	err := retry.WithBackoff(ctx, p.retryConfig, func() error {
		cbResult, err := p.circuitBreaker.Execute(func() (interface{}, error) {
			return p.doClassify(ctx, text)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("sentiment: circuit breaker open, request rejected",
					slog.String("service", "claude-api"),
					slog.String("state", p.circuitBreaker.State().String()))
				return fmt.Errorf("sentiment api unavailable: circuit breaker open")
			}
			return err
		}
		res = cbResult.(result)
		return nil
	})
	if err != nil {
		return string(entity.SentimentNeutral), 0, fmt.Errorf("classify failed after retries: %w", err)
	}
	return res.label, res.score, nil
}

func (p *Provider) doClassify(ctx context.Context, inputText string) (interface{}, error) {
	type result struct {
		label string
		score float64
	}

	truncated := inputText
	if runes := []rune(truncated); len(runes) > maxClassifyChars {
		truncated = string(runes[:maxClassifyChars])
	}

	prompt := "Classify the sentiment of the following Vietnamese news text as exactly one of " +
		"Positive, Negative or Neutral, then give a confidence between 0 and 1. " +
		"Respond with exactly one line in the form \"label|confidence\" and nothing else.\n\n" + truncated

	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: 16,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude api error: %w", err)
	}
	if len(message.Content) == 0 {
		return nil, fmt.Errorf("claude api returned empty response")
	}
	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return nil, fmt.Errorf("claude api returned unexpected response type")
	}

	label, score := parseClassification(textBlock.Text)
	return result{label: label, score: score}, nil
}

func parseClassification(raw string) (string, float64) {
	raw = strings.TrimSpace(raw)
	parts := strings.SplitN(raw, "|", 2)
	label := normalizeLabel(parts[0])
	score := 0.5
	if len(parts) == 2 {
		if v, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err == nil {
			score = clamp01(v)
		}
	}
	return label, score
}

func normalizeLabel(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "positive":
		return string(entity.SentimentPositive)
	case "negative":
		return string(entity.SentimentNegative)
	default:
		return string(entity.SentimentNeutral)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
