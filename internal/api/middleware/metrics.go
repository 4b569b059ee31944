// Package middleware provides Echo middleware for the collection-watcher API.
package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/donaldgifford/collection-watcher/internal/metrics"
)

// probeGauges tracks the last outcome of each liveness and readiness probe.
var probeGauges = map[string]prometheus.Gauge{
	"/healthz": metrics.HealthzUp,
	"/readyz":  metrics.ReadyzUp,
}

// Metrics returns Echo middleware that records request duration and status
// for API routes. Probes only update their up gauge; scrapes are not recorded.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path, kind := routeOf(c)

			start := time.Now()
			err := next(c)
			status := c.Response().Status

			switch kind {
			case routeProbe:
				setProbeGauge(path, status)
				return err
			case routeScrape:
				return err
			case routeAPI:
			}

			labels := []string{c.Request().Method, path, strconv.Itoa(status)}
			metrics.HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			metrics.HTTPRequestsTotal.WithLabelValues(labels...).Inc()
			return err
		}
	}
}

func setProbeGauge(path string, status int) {
	gauge, ok := probeGauges[path]
	if !ok {
		return
	}
	up := 0.0
	if status >= 200 && status < 300 {
		up = 1
	}
	gauge.Set(up)
}
