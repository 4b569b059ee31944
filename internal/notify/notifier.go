// Package notify defines the notification interface and the transports that
// deliver new-collection alerts.
package notify

import (
	"context"
	"errors"
	"net/http"
)

// ErrNotificationFailed classifies every failed delivery attempt.
var ErrNotificationFailed = errors.New("notification failed")

// Message is a transport-neutral alert.
type Message struct {
	Subject string
	Text    string
	Link    string
}

// Notifier defines the interface for sending alerts. Exactly one transport is
// active per deployment.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// httpSender holds the HTTP client shared by webhook-style transports.
type httpSender struct {
	client *http.Client
}

// HTTPOption configures an HTTP-based notifier.
type HTTPOption func(*httpSender)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *httpSender) {
		s.client = c
	}
}

func newHTTPSender(opts []HTTPOption) httpSender {
	s := httpSender{client: http.DefaultClient}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
