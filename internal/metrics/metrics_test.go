package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Quote("buy", "ok")
	m.Quote("buy", "ok")
	m.Quote("sell", "InsufficientAllowance")
	m.StaleDropped()
	m.FieldRead("balanceETH", "failed")
	m.Refresh(20 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.quotes.WithLabelValues("buy", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.quotes.WithLabelValues("sell", "InsufficientAllowance")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.staleDropped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fieldReads.WithLabelValues("balanceETH", "failed")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Quote("buy", "ok")
		m.Refresh(time.Second)
		m.FieldRead("x", "known")
		m.StaleDropped()
	})
}
