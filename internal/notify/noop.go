package notify

import (
	"context"
	"log/slog"
)

// NoOpNotifier implements Notifier by logging discarded alerts. It is used
// when no notification transport is configured.
type NoOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier creates a notifier that discards alerts with a log message.
func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &NoOpNotifier{log: log}
}

// Send logs and discards the alert.
func (n *NoOpNotifier) Send(_ context.Context, msg Message) error {
	n.log.Info("notification discarded (no transport configured)",
		"subject", msg.Subject,
		"link", msg.Link,
	)
	return nil
}
