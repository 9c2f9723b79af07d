// Package notifier sends ops alerts about degraded crawl runs. It defines
// the Notifier interface which allows different delivery mechanisms
// (Discord, Slack, a no-op) to be used interchangeably through dependency
// injection, implementing the Crawl Executor's failure-spike notification
// on crawl-failure spikes.
package notifier

import "context"

// Notifier reports a crawl-failure spike for a website.
// Implementations should handle rate limiting, retries, and error logging
// internally; a failed notification must never propagate back into the
// Crawl Executor's own error path.
type Notifier interface {
	// NotifyCrawlFailure alerts that failed/attempted detail fetches for
	// website crossed the failure-rate threshold during one crawl run.
	NotifyCrawlFailure(ctx context.Context, website string, failed, attempted int) error
}
