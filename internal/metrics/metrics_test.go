package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveCommand(t *testing.T) {
	m := New()

	m.ObserveCommand("GET", time.Millisecond, "")
	m.ObserveCommand("GET", time.Millisecond, "")
	m.ObserveCommand("INCR", time.Millisecond, "WRONGTYPE")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.commands.WithLabelValues("GET")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commands.WithLabelValues("INCR")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("WRONGTYPE")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.KeyExpired("a")
	m.KeyExpired("b")
	m.GCSweep()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.expiredKeys))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gcSweeps))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveCommand("GET", time.Millisecond, "ERR")
		m.KeyExpired("k")
		m.GCSweep()
		assert.NoError(t, m.RegisterGaugeFunc("x", "x", func() float64 { return 0 }))
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	require.NoError(t, m.RegisterGaugeFunc("connected_clients", "Number of client connections", func() float64 { return 3 }))
	m.ObserveCommand("PING", time.Microsecond, "")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `kilodb_commands_total{command="PING"} 1`)
	assert.Contains(t, body, "kilodb_connected_clients 3")
	assert.True(t, strings.Contains(body, "go_goroutines"), "runtime collectors are registered")
}
