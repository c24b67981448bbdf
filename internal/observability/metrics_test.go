package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUnregisteredMetrics_IsolatedInstances(t *testing.T) {
	a := NewUnregisteredMetrics()
	b := NewUnregisteredMetrics()

	a.WidgetFetches.WithLabelValues("weather", "ok").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.WidgetFetches.WithLabelValues("weather", "ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.WidgetFetches.WithLabelValues("weather", "ok")))

	// Not in the default registry, so registering there still succeeds.
	require.NoError(t, prometheus.Register(a.CollectorRuns))
	t.Cleanup(func() { prometheus.Unregister(a.CollectorRuns) })
}
