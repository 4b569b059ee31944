package rules

// AlertRules returns the operational alerts for collection-watcher.
func AlertRules() PrometheusRule {
	return newResource("cw-alerts", RuleGroup{
		Name: "cw-alerts",
		Rules: []Rule{
			alert("CollectionWatcherDown",
				`absent(up{job="collection-watcher"})`, "5m", SeverityCritical,
				"Collection watcher is down",
				"The collection-watcher job has been absent for more than 5 minutes."),
			alert("CollectionWatcherStateUnavailable",
				`cw_readyz_up == 0`, "5m", SeverityCritical,
				"State backend unreachable",
				"The readiness probe has reported the state backend unreachable for more than 5 minutes."),
			alert("CollectionWatcherFetchFailing",
				`sum(cw:cycles:rate5m{outcome="fetch_failed"}) > 0 and sum(cw:cycles:rate5m{outcome!="fetch_failed"}) == 0`,
				"30m", SeverityWarning,
				"Every poll cycle is failing to fetch",
				"No poll cycle has reached the marketplace successfully for 30 minutes."),
			alert("CollectionWatcherPersistenceFailures",
				`increase(cw_persistence_failures_total[15m]) > 0`, "0m", SeverityWarning,
				"State could not be persisted",
				"The watcher failed to read or write its state; the same collection may be alerted again."),
			alert("CollectionWatcherNotificationFailures",
				`increase(cw_notification_failures_total[15m]) > 0`, "1m", SeverityWarning,
				"Alert delivery failures detected",
				"One or more new-collection alerts failed to send."),
			alert("CollectionWatcherHighErrorRate",
				`cw:http_errors:rate5m / cw:http_requests:rate5m > 0.05`, "5m", SeverityWarning,
				"High API error rate",
				"More than 5% of API requests are returning 5xx errors over the last 5 minutes."),
		},
	})
}
