package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"
)

// discordMaxContent is Discord's limit on message content, in characters.
const discordMaxContent = 2000

// DiscordNotifier implements Notifier via Discord webhook.
type DiscordNotifier struct {
	httpSender
	webhookURL string
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(webhookURL string, opts ...HTTPOption) *DiscordNotifier {
	return &DiscordNotifier{
		httpSender: newHTTPSender(opts),
		webhookURL: webhookURL,
	}
}

type discordWebhookPayload struct {
	Content         string                 `json:"content"`
	AllowedMentions discordAllowedMentions `json:"allowed_mentions"`
}

// discordAllowedMentions with an empty Parse list stops collection names such
// as "@everyone" from pinging the channel.
type discordAllowedMentions struct {
	Parse []string `json:"parse"`
}

// Send posts the message text as plain webhook content.
func (d *DiscordNotifier) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(discordWebhookPayload{
		Content:         truncateChars(msg.Text, discordMaxContent),
		AllowedMentions: discordAllowedMentions{Parse: []string{}},
	})
	if err != nil {
		return fmt.Errorf("%w: marshaling discord payload: %w", ErrNotificationFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: creating discord request: %w", ErrNotificationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: sending discord webhook: %w", ErrNotificationFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: discord rate limited (429), retry after %q",
			ErrNotificationFailed, resp.Header.Get("Retry-After"))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: discord returned %d: %s", ErrNotificationFailed, resp.StatusCode, respBody)
	}
	return nil
}

// truncateChars cuts s to at most n characters without splitting a
// multi-byte UTF-8 sequence.
func truncateChars(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
