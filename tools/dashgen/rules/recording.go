package rules

// RecordingRules returns the pre-computed rates used by the overview
// dashboard and the alert rules.
func RecordingRules() PrometheusRule {
	return newResource("cw-recording-rules", RuleGroup{
		Name: "cw-recording",
		Rules: []Rule{
			record("cw:http_requests:rate5m",
				`sum(rate(cw_http_requests_total[5m]))`),
			record("cw:http_errors:rate5m",
				`sum(rate(cw_http_requests_total{status=~"5.."}[5m]))`),
			record("cw:cycles:rate5m",
				`sum by (outcome) (rate(cw_cycles_total[5m]))`),
			record("cw:marketplace_requests:rate5m",
				`sum by (endpoint, outcome) (rate(cw_marketplace_requests_total[5m]))`),
			record("cw:notification_duration:p95_5m",
				`histogram_quantile(0.95, sum(rate(cw_notification_duration_seconds_bucket[5m])) by (le))`),
		},
	})
}
