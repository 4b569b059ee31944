package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// TelegramNotifier implements Notifier via the Telegram Bot API sendMessage
// method.
type TelegramNotifier struct {
	httpSender
	apiURL   string
	botToken string
	chatID   string
}

// NewTelegramNotifier creates a notifier posting to chatID as the bot
// identified by botToken. apiURL is normally https://api.telegram.org.
func NewTelegramNotifier(apiURL, botToken, chatID string, opts ...HTTPOption) *TelegramNotifier {
	return &TelegramNotifier{
		httpSender: newHTTPSender(opts),
		apiURL:     strings.TrimRight(apiURL, "/"),
		botToken:   botToken,
		chatID:     chatID,
	}
}

type telegramSendMessage struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// Send delivers the message text to the configured chat.
func (n *TelegramNotifier) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(telegramSendMessage{ChatID: n.chatID, Text: msg.Text})
	if err != nil {
		return fmt.Errorf("%w: marshaling telegram payload: %w", ErrNotificationFailed, err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: creating telegram request: %w", ErrNotificationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		// The URL carries the bot token; keep it out of the error.
		return fmt.Errorf("%w: sending telegram message: %s", ErrNotificationFailed, redact(err.Error(), n.botToken))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading telegram response: %w", ErrNotificationFailed, err)
	}

	var tr telegramResponse
	decodeErr := json.Unmarshal(respBody, &tr)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && tr.Description != "" {
			return fmt.Errorf("%w: telegram returned %d: %s", ErrNotificationFailed, resp.StatusCode, tr.Description)
		}
		return fmt.Errorf("%w: telegram returned %d", ErrNotificationFailed, resp.StatusCode)
	}

	if decodeErr != nil {
		return fmt.Errorf("%w: parsing telegram response: %w", ErrNotificationFailed, decodeErr)
	}
	if !tr.OK {
		return fmt.Errorf("%w: telegram rejected message: %s", ErrNotificationFailed, tr.Description)
	}

	return nil
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, "<redacted>")
}
