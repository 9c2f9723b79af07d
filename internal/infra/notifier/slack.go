package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SlackConfig contains configuration for Slack webhook notifications.
type SlackConfig struct {
	// Enabled indicates whether Slack notifications are enabled
	Enabled bool

	// WebhookURL is the Slack Incoming Webhook URL (includes authentication token)
	WebhookURL string

	// Timeout is the HTTP request timeout for Slack API calls
	Timeout time.Duration
}

// SlackNotifier sends crawl-failure alerts to Slack via Incoming Webhook.
type SlackNotifier struct {
	config      SlackConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewSlackNotifier creates a new SlackNotifier with the specified configuration.
// The rate limiter is set to 1 request/second with burst of 1 (Slack
// Incoming Webhook limit).
func NewSlackNotifier(config SlackConfig) *SlackNotifier {
	return &SlackNotifier{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: NewRateLimiter(1.0, 1),
	}
}

// SlackWebhookPayload represents the JSON payload sent to Slack webhook using Block Kit.
type SlackWebhookPayload struct {
	Text   string       `json:"text"`
	Blocks []SlackBlock `json:"blocks"`
}

// SlackBlock represents a Slack Block Kit block.
type SlackBlock struct {
	Type     string            `json:"type"`
	Text     *SlackTextObject  `json:"text,omitempty"`
	Elements []SlackTextObject `json:"elements,omitempty"`
}

// SlackTextObject represents a text object in Slack Block Kit.
type SlackTextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const (
	maxFallbackLength      = 150
	slackTruncationSuffix  = "..."
)

// buildBlockKitPayload builds the crawl-failure-spike alert payload.
func (s *SlackNotifier) buildBlockKitPayload(website string, failed, attempted int) SlackWebhookPayload {
	rate := float64(failed) / float64(attempted) * 100
	fallbackText := fmt.Sprintf("Crawl failures on %s: %d/%d (%.0f%%)", website, failed, attempted, rate)
	if len(fallbackText) > maxFallbackLength {
		fallbackText = fallbackText[:maxFallbackLength-len(slackTruncationSuffix)] + slackTruncationSuffix
	}

	sectionBlock := SlackBlock{
		Type: "section",
		Text: &SlackTextObject{
			Type: "mrkdwn",
			Text: fmt.Sprintf("*Crawl failure spike on %s*\n%d of %d detail fetches failed (%.0f%%)", website, failed, attempted, rate),
		},
	}
	contextBlock := SlackBlock{
		Type: "context",
		Elements: []SlackTextObject{{
			Type: "mrkdwn",
			Text: time.Now().Format(time.RFC3339),
		}},
	}

	return SlackWebhookPayload{Text: fallbackText, Blocks: []SlackBlock{sectionBlock, contextBlock}}
}

// sendWebhookRequest posts the alert payload, classifying the response per
// the retryable/non-retryable error taxonomy.
func (s *SlackNotifier) sendWebhookRequest(ctx context.Context, website string, failed, attempted int) error {
	payload := s.buildBlockKitPayload(website, failed, attempted)

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.WebhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{Message: "Slack rate limit exceeded", RetryAfter: extractRetryAfter(resp, body)}
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return &ClientError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("Slack API client error: %s", string(body))}
	}
	if resp.StatusCode >= 500 {
		return &ServerError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("Slack API server error: %s", string(body))}
	}
	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
}

// sendWebhookRequestWithRetry retries transient failures with a small fixed
// backoff ladder, honoring Slack's own retry_after on 429s.
func (s *SlackNotifier) sendWebhookRequestWithRetry(ctx context.Context, website string, failed, attempted int) error {
	const (
		maxAttempts = 2
		baseDelay   = 5 * time.Second
	)

	requestID, _ := ctx.Value(requestIDKey).(string)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := s.sendWebhookRequest(ctx, website, failed, attempted)
		if err == nil {
			slog.Info("slack crawl-failure alert sent",
				slog.String("request_id", requestID), slog.String("website", website), slog.Int("attempt", attempt))
			return nil
		}
		lastErr = err

		if rateLimitErr, ok := is429Error(err); ok {
			slog.Warn("slack rate limit hit, backing off",
				slog.String("request_id", requestID), slog.Duration("retry_after", rateLimitErr.RetryAfter))
			select {
			case <-time.After(rateLimitErr.RetryAfter):
				continue
			case <-ctx.Done():
				return fmt.Errorf("context canceled during rate limit backoff: %w", ctx.Err())
			}
		}

		if !isRetryableError(err) {
			slog.Error("slack crawl-failure alert failed, non-retryable",
				slog.String("request_id", requestID), slog.String("website", website), slog.Any("error", err))
			return err
		}

		if attempt < maxAttempts {
			delay := baseDelay * time.Duration(attempt)
			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return fmt.Errorf("context canceled during retry backoff: %w", ctx.Err())
			}
		}
	}

	return fmt.Errorf("slack notification failed after %d attempts: %w", maxAttempts, lastErr)
}

// NotifyCrawlFailure implements notifier.Notifier.
func (s *SlackNotifier) NotifyCrawlFailure(ctx context.Context, website string, failed, attempted int) error {
	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	if err := s.rateLimiter.Allow(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}
	return s.sendWebhookRequestWithRetry(ctx, website, failed, attempted)
}
