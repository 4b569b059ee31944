package notify

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/donaldgifford/collection-watcher/internal/config"
)

const defaultHTTPTimeout = 15 * time.Second

// New builds the transport selected by cfg.Kind, wrapped with metrics.
func New(cfg *config.NotificationsConfig, log *slog.Logger) (Notifier, error) {
	httpClient := &http.Client{Timeout: defaultHTTPTimeout}

	var n Notifier
	switch cfg.Kind {
	case config.NotifierTelegram:
		n = NewTelegramNotifier(
			cfg.Telegram.APIURL,
			cfg.Telegram.BotToken,
			cfg.Telegram.ChatID,
			WithHTTPClient(httpClient),
		)
	case config.NotifierDiscord:
		n = NewDiscordNotifier(cfg.Discord.WebhookURL, WithHTTPClient(httpClient))
	case config.NotifierEmail:
		email, err := NewEmailNotifier(EmailConfig{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
			To:       cfg.Email.Recipients(),
			Subject:  cfg.Email.Subject,
			TLSMode:  cfg.Email.TLSMode,
		})
		if err != nil {
			return nil, err
		}
		n = email
	case config.NotifierNone, "":
		n = NewNoOpNotifier(log)
	default:
		return nil, fmt.Errorf("unknown notifier kind %q", cfg.Kind)
	}

	kind := cfg.Kind
	if kind == "" {
		kind = config.NotifierNone
	}
	return NewInstrumented(n, kind), nil
}
