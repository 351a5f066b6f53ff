package metrics_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/trafficvis-oss/metrics"
)

func TestCollectorHandler(t *testing.T) {
	c := metrics.NewCollector()
	c.Vehicles.Set(42)
	c.TicksTotal.Inc()
	c.CommandsTotal.WithLabelValues("start").Inc()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "trafficvis_vehicles 42")
	assert.Contains(t, body, "trafficvis_ticks_total 1")
	assert.Contains(t, body, `trafficvis_commands_total{op="start"} 1`)
}
