package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistered(t *testing.T) {
	t.Parallel()

	// Registered via promauto on package init.
	assert.NotNil(t, HTTPRequestDuration)
	assert.NotNil(t, HTTPRequestsTotal)
	assert.NotNil(t, CyclesTotal)
	assert.NotNil(t, CyclesSkippedTotal)
	assert.NotNil(t, CycleDuration)
	assert.NotNil(t, LastSeenCollectionID)
	assert.NotNil(t, PersistenceFailuresTotal)
	assert.NotNil(t, MarketplaceRequestsTotal)
	assert.NotNil(t, NotificationsSentTotal)
	assert.NotNil(t, NotificationFailuresTotal)
	assert.NotNil(t, AggregateRunsTotal)
}

func TestMetricsNamespaced(t *testing.T) {
	t.Parallel()

	CyclesTotal.WithLabelValues("no_change").Add(0)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if mf.GetName() == "cw_cycles_total" {
			found = true
		}
	}
	assert.True(t, found, "cw_cycles_total should be exported")
}
