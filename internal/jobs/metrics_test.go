package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	assert.NoError(t, m.Track("stats:warmup").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("stats:warmup").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("stats:warmup", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("stats:warmup", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("stats:warmup")))
}

func TestAddReminders(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddReminders(0)
	m.AddReminders(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.reminders))

	var nilMetrics *Metrics
	nilMetrics.AddReminders(2)
	assert.NoError(t, nilMetrics.Track("x").End(nil))
}
