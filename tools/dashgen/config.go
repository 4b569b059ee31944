package main

import "errors"

// KnownMetrics is the set of metric names exported by collection-watcher
// plus recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"cw_http_request_duration_seconds": true,
	"cw_http_requests_total":           true,

	// Health metrics.
	"cw_healthz_up": true,
	"cw_readyz_up":  true,

	// Watcher metrics.
	"cw_cycles_total":                  true,
	"cw_cycles_skipped_total":          true,
	"cw_cycle_duration_seconds":        true,
	"cw_last_seen_collection_id":       true,
	"cw_persistence_failures_total":    true,
	"cw_scheduler_next_poll_timestamp": true,

	// Marketplace metrics.
	"cw_marketplace_requests_total":           true,
	"cw_marketplace_request_duration_seconds": true,

	// Notification metrics.
	"cw_notifications_sent_total":      true,
	"cw_notification_failures_total":   true,
	"cw_notification_duration_seconds": true,

	// Aggregator metrics.
	"cw_aggregate_runs_total": true,
	"cw_aggregate_items":      true,

	// Recording rules.
	"cw:http_requests:rate5m":         true,
	"cw:http_errors:rate5m":           true,
	"cw:cycles:rate5m":                true,
	"cw:marketplace_requests:rate5m":  true,
	"cw:notification_duration:p95_5m": true,

	// Standard Prometheus metrics referenced in alerts.
	"up": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
