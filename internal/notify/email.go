package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	mail "github.com/wneessen/go-mail"
)

// TLSMode determines how the SMTP client negotiates TLS.
type TLSMode string

const (
	// TLSModeAuto uses port-based defaults (implicit TLS on 465, STARTTLS otherwise).
	TLSModeAuto TLSMode = "auto"
	// TLSModeDisabled forces cleartext SMTP.
	TLSModeDisabled TLSMode = "disabled"
	// TLSModeStartTLS requires STARTTLS on the SMTP connection.
	TLSModeStartTLS TLSMode = "starttls"
	// TLSModeImplicit uses implicit TLS (SMTPS), typically on port 465.
	TLSModeImplicit TLSMode = "implicit"
)

const defaultSMTPTimeout = 15 * time.Second

// EmailConfig holds the SMTP relay settings for an EmailNotifier.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	Subject  string
	TLSMode  string
	Timeout  time.Duration
}

// EmailNotifier implements Notifier by sending plain-text mail over SMTP.
type EmailNotifier struct {
	cfg EmailConfig
}

// NewEmailNotifier validates the TLS mode and returns an EmailNotifier.
func NewEmailNotifier(cfg EmailConfig) (*EmailNotifier, error) {
	if _, err := ParseTLSMode(cfg.TLSMode); err != nil {
		return nil, err
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultSMTPTimeout
	}
	return &EmailNotifier{cfg: cfg}, nil
}

// Send delivers the message to every configured recipient in one mail.
func (n *EmailNotifier) Send(ctx context.Context, msg Message) error {
	m, err := n.buildMsg(msg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}

	opts, err := n.clientOptions()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}

	client, err := mail.NewClient(n.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("%w: creating SMTP client: %w", ErrNotificationFailed, err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("%w: sending email: %w", ErrNotificationFailed, err)
	}
	return nil
}

func (n *EmailNotifier) buildMsg(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(n.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", n.cfg.From, err)
	}
	if err := m.To(n.cfg.To...); err != nil {
		return nil, fmt.Errorf("invalid to address(es) %q: %w", strings.Join(n.cfg.To, ","), err)
	}

	subject := msg.Subject
	if subject == "" {
		subject = n.cfg.Subject
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	return m, nil
}

func (n *EmailNotifier) clientOptions() ([]mail.Option, error) {
	mode, err := n.resolveTLSMode()
	if err != nil {
		return nil, err
	}

	opts := []mail.Option{
		mail.WithPort(n.cfg.Port),
		mail.WithTimeout(n.cfg.Timeout),
		mail.WithTLSConfig(&tls.Config{
			ServerName: n.cfg.Host,
			MinVersion: tls.VersionTLS12,
		}),
	}

	switch mode {
	case TLSModeDisabled:
		opts = append(opts, mail.WithTLSPortPolicy(mail.NoTLS))
	case TLSModeStartTLS:
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	case TLSModeImplicit:
		opts = append(opts, mail.WithSSL())
	default:
		return nil, fmt.Errorf("unsupported smtp tls mode %q", mode)
	}

	if n.cfg.Username != "" {
		opts = append(opts,
			mail.WithUsername(n.cfg.Username),
			mail.WithPassword(n.cfg.Password),
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
		)
	}
	return opts, nil
}

// resolveTLSMode returns the configured TLS behavior, falling back to port defaults.
func (n *EmailNotifier) resolveTLSMode() (TLSMode, error) {
	mode, err := ParseTLSMode(n.cfg.TLSMode)
	if err != nil {
		return "", err
	}
	if mode == TLSModeAuto {
		if n.cfg.Port == 465 {
			return TLSModeImplicit, nil
		}
		return TLSModeStartTLS, nil
	}
	return mode, nil
}

// ParseTLSMode normalizes a TLS mode string. Empty means auto.
func ParseTLSMode(mode string) (TLSMode, error) {
	switch strings.TrimSpace(strings.ToLower(mode)) {
	case "", "auto":
		return TLSModeAuto, nil
	case "disabled", "off", "none":
		return TLSModeDisabled, nil
	case "starttls", "start_tls":
		return TLSModeStartTLS, nil
	case "implicit", "ssl", "smtps":
		return TLSModeImplicit, nil
	default:
		return "", fmt.Errorf("invalid smtp tls mode %q (expected: auto, disabled, starttls, implicit)", mode)
	}
}
