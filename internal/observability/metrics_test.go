package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecordAuthFailure(t *testing.T) {
	m := NewMetrics()
	m.RecordAuthFailure("EXPIRED_TOKEN")
	m.RecordAuthFailure("EXPIRED_TOKEN")
	m.RecordAuthFailure("INVALID_TOKEN")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.authFailures.WithLabelValues("EXPIRED_TOKEN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authFailures.WithLabelValues("INVALID_TOKEN")))
}

func TestMetricsRecordRequest(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/users", "GET", 200, 15*time.Millisecond)
	m.RecordError("/users", "GET", "FORBIDDEN")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestCount.WithLabelValues("GET", "/users", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorCount.WithLabelValues("GET", "/users", "FORBIDDEN")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		m.RecordAuthFailure("X")
	})
}
