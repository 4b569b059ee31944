package notify

import (
	"context"
	"time"

	"github.com/donaldgifford/collection-watcher/internal/metrics"
)

// Instrumented wraps a Notifier and records delivery metrics under the
// transport label.
type Instrumented struct {
	next      Notifier
	transport string
}

// NewInstrumented decorates next with delivery metrics.
func NewInstrumented(next Notifier, transport string) *Instrumented {
	return &Instrumented{next: next, transport: transport}
}

// Send implements Notifier.
func (i *Instrumented) Send(ctx context.Context, msg Message) error {
	start := time.Now()
	err := i.next.Send(ctx, msg)
	metrics.NotificationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.NotificationFailuresTotal.WithLabelValues(i.transport).Inc()
		return err
	}
	metrics.NotificationsSentTotal.WithLabelValues(i.transport).Inc()
	return nil
}
