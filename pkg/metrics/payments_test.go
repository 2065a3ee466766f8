package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestOrderMetricsCounters(t *testing.T) {
	m := NewOrderMetrics(prometheus.NewRegistry())
	m.IncCreated("prepay")
	m.IncCreated("prepay")
	m.IncChargeRequest("rejected")
	m.IncCallback("duplicate")
	m.IncCallback("")
	m.IncClaimConflict()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.created.WithLabelValues("prepay")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chargeRequests.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.callbacks.WithLabelValues("duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.callbacks.WithLabelValues("unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.claimConflicts))
}

func TestOutboxMetricsLabels(t *testing.T) {
	m := NewOutboxMetrics(prometheus.NewRegistry())
	m.ObservePublish("sb-order-events", "published")
	m.ObservePublish("", "retry")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.published.WithLabelValues("sb-order-events", "published")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.published.WithLabelValues("unknown", "retry")))
}
