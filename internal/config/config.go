// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Marketplace   MarketplaceConfig   `yaml:"marketplace"`
	Schedule      ScheduleConfig      `yaml:"schedule"`
	State         StateConfig         `yaml:"state"`
	Output        OutputConfig        `yaml:"output"`
	Aggregate     AggregateConfig     `yaml:"aggregate"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Server        ServerConfig        `yaml:"server"`
	Tracing       TracingConfig       `yaml:"tracing"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// MarketplaceConfig defines the upstream marketplace API settings.
type MarketplaceConfig struct {
	Name      string          `yaml:"name"`
	BaseURL   string          `yaml:"base_url"`
	SiteURL   string          `yaml:"site_url"` // browse links; defaults to base_url
	Timeout   time.Duration   `yaml:"timeout"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig defines client-side request pacing.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// Overlap policies for cycles triggered while another is still running.
const (
	OverlapSkip  = "skip"
	OverlapQueue = "queue"
)

// ScheduleConfig defines the polling loop.
type ScheduleConfig struct {
	PollIntervalMinutes int           `yaml:"poll_interval_minutes"`
	OverlapPolicy       string        `yaml:"overlap_policy"` // skip, queue
	RunOnStart          *bool         `yaml:"run_on_start"`
	CycleTimeout        time.Duration `yaml:"cycle_timeout"`
}

// PollInterval returns the configured interval as a duration.
func (s *ScheduleConfig) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalMinutes) * time.Minute
}

// ShouldRunOnStart reports whether the first cycle runs eagerly.
func (s *ScheduleConfig) ShouldRunOnStart() bool {
	return s.RunOnStart == nil || *s.RunOnStart
}

// State backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// StateConfig selects and configures the persisted state backend.
type StateConfig struct {
	Backend  string         `yaml:"backend"` // file, postgres
	Path     string         `yaml:"path"`
	Postgres DatabaseConfig `yaml:"postgres"`
}

// DatabaseConfig defines PostgreSQL connection settings.
type DatabaseConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Name        string `yaml:"name"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	SSLMode     string `yaml:"sslmode"`
	PoolSize    int    `yaml:"pool_size"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s pool_max_conns=%d",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode, d.PoolSize,
	)
}

// OutputConfig defines where the aggregator writes its artifacts.
type OutputConfig struct {
	PayloadPath string `yaml:"payload_path"`
	CurlPath    string `yaml:"curl_path"`
}

// AggregateConfig defines aggregator request settings.
type AggregateConfig struct {
	PageSize  int    `yaml:"page_size"` // 0 omits limit and uses the marketplace default
	TargetURL string `yaml:"target_url"` // defaults to the items endpoint
}

// Notifier kinds.
const (
	NotifierTelegram = "telegram"
	NotifierEmail    = "email"
	NotifierDiscord  = "discord"
	NotifierNone     = "none"
)

// NotificationsConfig selects exactly one notification transport.
type NotificationsConfig struct {
	Kind     string         `yaml:"kind"`
	Telegram TelegramConfig `yaml:"telegram"`
	Email    EmailConfig    `yaml:"email"`
	Discord  DiscordConfig  `yaml:"discord"`
}

// TelegramConfig defines Telegram bot settings.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
	APIURL   string `yaml:"api_url"`
}

// EmailConfig defines SMTP settings.
type EmailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"` // comma separated
	Subject  string `yaml:"subject"`
	TLSMode  string `yaml:"tls_mode"` // auto, disabled, starttls, implicit
}

// Recipients splits To into trimmed, non-empty addresses.
func (e *EmailConfig) Recipients() []string {
	var out []string
	for _, r := range strings.Split(e.To, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Enabled      *bool         `yaml:"enabled"`
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// IsEnabled reports whether the HTTP server should be started.
func (s *ServerConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// TracingConfig defines OpenTelemetry trace export.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse expands environment variables in data, decodes it and applies
// defaults and validation.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyMarketplaceDefaults(&cfg.Marketplace)
	applyScheduleDefaults(&cfg.Schedule)
	applyStateDefaults(&cfg.State)
	applyOutputDefaults(&cfg.Output)
	applyNotificationDefaults(&cfg.Notifications)
	applyServerDefaults(&cfg.Server)
	applyTracingDefaults(&cfg.Tracing)
	applyLoggingDefaults(&cfg.Logging)
}

func applyMarketplaceDefaults(m *MarketplaceConfig) {
	m.BaseURL = strings.TrimRight(m.BaseURL, "/")
	if m.Name == "" {
		m.Name = "Ortak"
	}
	if m.SiteURL == "" {
		m.SiteURL = m.BaseURL
	}
	m.SiteURL = strings.TrimRight(m.SiteURL, "/")
	if m.Timeout == 0 {
		m.Timeout = 30 * time.Second
	}
	if m.RateLimit.PerSecond == 0 {
		m.RateLimit.PerSecond = 2
	}
	if m.RateLimit.Burst == 0 {
		m.RateLimit.Burst = 4
	}
}

func applyScheduleDefaults(s *ScheduleConfig) {
	if s.PollIntervalMinutes == 0 {
		s.PollIntervalMinutes = 10
	}
	if s.OverlapPolicy == "" {
		s.OverlapPolicy = OverlapSkip
	}
	if s.CycleTimeout == 0 {
		s.CycleTimeout = 2 * time.Minute
	}
}

func applyStateDefaults(s *StateConfig) {
	if s.Backend == "" {
		s.Backend = BackendFile
	}
	if s.Path == "" {
		s.Path = "data/latest_collection.json"
	}
	if s.Postgres.Port == 0 {
		s.Postgres.Port = 5432
	}
	if s.Postgres.SSLMode == "" {
		s.Postgres.SSLMode = "disable"
	}
	if s.Postgres.PoolSize == 0 {
		s.Postgres.PoolSize = 4
	}
}

func applyOutputDefaults(o *OutputConfig) {
	if o.PayloadPath == "" {
		o.PayloadPath = "output/buy_nft_payload.json"
	}
	if o.CurlPath == "" {
		o.CurlPath = "output/buy_nft_curl.txt"
	}
}

func applyNotificationDefaults(n *NotificationsConfig) {
	if n.Kind == "" {
		n.Kind = NotifierNone
	}
	n.Kind = strings.ToLower(n.Kind)
	if n.Telegram.APIURL == "" {
		n.Telegram.APIURL = "https://api.telegram.org"
	}
	if n.Email.Port == 0 {
		n.Email.Port = 587
	}
	if n.Email.Subject == "" {
		n.Email.Subject = "New marketplace collection"
	}
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyTracingDefaults(t *TracingConfig) {
	if t.Endpoint == "" {
		t.Endpoint = "localhost:4317"
	}
	if t.ServiceName == "" {
		t.ServiceName = "collection-watcher"
	}
	if t.SampleRatio == 0 {
		t.SampleRatio = 1
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Marketplace.BaseURL == "" {
		errs = append(errs, fmt.Errorf("marketplace.base_url is required"))
	}
	if cfg.Marketplace.RateLimit.PerSecond < 0 {
		errs = append(errs, fmt.Errorf("marketplace.rate_limit.per_second must be >= 0"))
	}

	if cfg.Schedule.PollIntervalMinutes < 0 {
		errs = append(errs, fmt.Errorf("schedule.poll_interval_minutes must be positive"))
	}
	switch cfg.Schedule.OverlapPolicy {
	case OverlapSkip, OverlapQueue:
	default:
		errs = append(errs, fmt.Errorf(
			"schedule.overlap_policy must be one of: skip, queue (got %q)",
			cfg.Schedule.OverlapPolicy,
		))
	}

	switch cfg.State.Backend {
	case BackendFile:
		if cfg.State.Path == "" {
			errs = append(errs, fmt.Errorf("state.path is required when backend is file"))
		}
	case BackendPostgres:
		if cfg.State.Postgres.Host == "" {
			errs = append(errs, fmt.Errorf("state.postgres.host is required when backend is postgres"))
		}
		if cfg.State.Postgres.Name == "" {
			errs = append(errs, fmt.Errorf("state.postgres.name is required when backend is postgres"))
		}
		if cfg.State.Postgres.User == "" {
			errs = append(errs, fmt.Errorf("state.postgres.user is required when backend is postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf(
			"state.backend must be one of: file, postgres (got %q)",
			cfg.State.Backend,
		))
	}

	if cfg.Aggregate.PageSize < 0 {
		errs = append(errs, fmt.Errorf("aggregate.page_size must not be negative"))
	}

	errs = append(errs, validateNotifications(&cfg.Notifications)...)

	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample_ratio must be between 0 and 1"))
	}

	return errors.Join(errs...)
}

func validateNotifications(n *NotificationsConfig) []error {
	var errs []error

	switch n.Kind {
	case NotifierTelegram:
		if n.Telegram.BotToken == "" {
			errs = append(errs, fmt.Errorf("notifications.telegram.bot_token is required when kind is telegram"))
		}
		if n.Telegram.ChatID == "" {
			errs = append(errs, fmt.Errorf("notifications.telegram.chat_id is required when kind is telegram"))
		}
	case NotifierEmail:
		if n.Email.Host == "" {
			errs = append(errs, fmt.Errorf("notifications.email.host is required when kind is email"))
		}
		if n.Email.Port <= 0 {
			errs = append(errs, fmt.Errorf("notifications.email.port must be positive"))
		}
		if len(n.Email.Recipients()) == 0 {
			errs = append(errs, fmt.Errorf("notifications.email.to is required when kind is email"))
		}
		if n.Email.From == "" && n.Email.Username == "" {
			errs = append(errs, fmt.Errorf("notifications.email.from or username is required when kind is email"))
		}
	case NotifierDiscord:
		if n.Discord.WebhookURL == "" {
			errs = append(errs, fmt.Errorf("notifications.discord.webhook_url is required when kind is discord"))
		}
	case NotifierNone:
	default:
		errs = append(errs, fmt.Errorf(
			"notifications.kind must be one of: telegram, email, discord, none (got %q)",
			n.Kind,
		))
	}

	return errs
}
