package notifier

import "context"

// NoOpNotifier is a no-operation implementation of the Notifier interface.
// It is used when notifications are disabled to avoid null checks in the code.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new NoOpNotifier instance.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// NotifyCrawlFailure does nothing and returns nil immediately.
func (n *NoOpNotifier) NotifyCrawlFailure(ctx context.Context, website string, failed, attempted int) error {
	return nil
}
