package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// DiscordConfig contains configuration for Discord webhook notifications.
type DiscordConfig struct {
	// Enabled indicates whether Discord notifications are enabled
	Enabled bool

	// WebhookURL is the Discord webhook URL (includes authentication token)
	WebhookURL string

	// Timeout is the HTTP request timeout for Discord API calls
	Timeout time.Duration
}

// DiscordNotifier sends crawl-failure alerts to Discord via webhook.
type DiscordNotifier struct {
	config      DiscordConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewDiscordNotifier creates a new DiscordNotifier with the specified
// configuration. The rate limiter is 0.5 req/s with burst 3 (Discord
// webhook limit: 30 req/min).
func NewDiscordNotifier(config DiscordConfig) *DiscordNotifier {
	return &DiscordNotifier{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: NewRateLimiter(0.5, 3),
	}
}

// DiscordWebhookPayload represents the JSON payload sent to Discord webhook.
type DiscordWebhookPayload struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

// DiscordEmbed represents a Discord embed message.
type DiscordEmbed struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Color       int                `json:"color"`
	Footer      DiscordEmbedFooter `json:"footer"`
	Timestamp   string             `json:"timestamp"`
}

// DiscordEmbedFooter represents the footer of a Discord embed.
type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

// DiscordErrorResponse represents the error response from Discord API.
type DiscordErrorResponse struct {
	Message    string  `json:"message"`
	Code       int     `json:"code"`
	RetryAfter float64 `json:"retry_after"`
}

const (
	maxDescriptionLength = 4096
	truncationSuffix     = "..."
	discordRedColor      = 15548997
)

// buildEmbedPayload builds the crawl-failure-spike alert payload.
func (d *DiscordNotifier) buildEmbedPayload(website string, failed, attempted int) DiscordWebhookPayload {
	rate := float64(failed) / float64(attempted) * 100
	description := truncateSummary(
		fmt.Sprintf("%d of %d detail fetches failed on %s (%.0f%%)", failed, attempted, website, rate),
		maxDescriptionLength, truncationSuffix)

	embed := DiscordEmbed{
		Title:       "Crawl failure spike",
		Description: description,
		Color:       discordRedColor,
		Footer:      DiscordEmbedFooter{Text: website},
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	return DiscordWebhookPayload{Embeds: []DiscordEmbed{embed}}
}

// sendWebhookRequest posts the alert payload, classifying the response per
// the retryable/non-retryable error taxonomy.
func (d *DiscordNotifier) sendWebhookRequest(ctx context.Context, website string, failed, attempted int) error {
	payload := d.buildEmbedPayload(website, failed, attempted)

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.WebhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{Message: "Discord rate limit exceeded", RetryAfter: extractRetryAfter(resp, body)}
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return &ClientError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("Discord API client error: %s", string(body))}
	}
	if resp.StatusCode >= 500 {
		return &ServerError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("Discord API server error: %s", string(body))}
	}
	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
}

// extractRetryAfter extracts retry_after duration from a Discord error
// response, falling back to the Retry-After header, then a 5s default.
func extractRetryAfter(resp *http.Response, body []byte) time.Duration {
	var discordErr DiscordErrorResponse
	if err := json.Unmarshal(body, &discordErr); err == nil && discordErr.RetryAfter > 0 {
		return time.Duration(discordErr.RetryAfter * float64(time.Second))
	}
	if retryAfterHeader := resp.Header.Get("Retry-After"); retryAfterHeader != "" {
		if seconds, err := strconv.Atoi(retryAfterHeader); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return 5 * time.Second
}

// sendWebhookRequestWithRetry retries transient failures with a small fixed
// backoff ladder, honoring Discord's own retry_after on 429s.
func (d *DiscordNotifier) sendWebhookRequestWithRetry(ctx context.Context, website string, failed, attempted int) error {
	const (
		maxAttempts = 2
		baseDelay   = 5 * time.Second
	)

	requestID, _ := ctx.Value(requestIDKey).(string)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := d.sendWebhookRequest(ctx, website, failed, attempted)
		if err == nil {
			slog.Info("discord crawl-failure alert sent",
				slog.String("request_id", requestID), slog.String("website", website), slog.Int("attempt", attempt))
			return nil
		}
		lastErr = err

		if rateLimitErr, ok := is429Error(err); ok {
			slog.Warn("discord rate limit hit, backing off",
				slog.String("request_id", requestID), slog.Duration("retry_after", rateLimitErr.RetryAfter))
			select {
			case <-time.After(rateLimitErr.RetryAfter):
				continue
			case <-ctx.Done():
				return fmt.Errorf("context canceled during rate limit backoff: %w", ctx.Err())
			}
		}

		if !isRetryableError(err) {
			slog.Error("discord crawl-failure alert failed, non-retryable",
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

	return fmt.Errorf("discord notification failed after %d attempts: %w", maxAttempts, lastErr)
}

// NotifyCrawlFailure implements notifier.Notifier.
func (d *DiscordNotifier) NotifyCrawlFailure(ctx context.Context, website string, failed, attempted int) error {
	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	if err := d.rateLimiter.Allow(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}
	return d.sendWebhookRequestWithRetry(ctx, website, failed, attempted)
}
