package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOn_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOn(reg, "workers", "queue")

	m.Submitted()
	m.Submitted()
	m.Completed(0.01)
	m.Failed(0.02)
	m.Dropped()
	m.WorkerUp()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ItemsSubmitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ItemsCompleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ItemsFailed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ItemsDropped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveWorkers))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 6)
}

func TestMetrics_WorkerGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOn(reg, "workers", "pool")

	m.WorkerUp()
	m.WorkerUp()
	m.WorkerDown()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveWorkers))
}

func TestMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.Submitted()
		m.Dropped()
		m.Completed(0.1)
		m.Failed(0.1)
		m.WorkerUp()
		m.WorkerDown()
	})
}

func TestNewOn_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewOn(reg, "workers", "dup")

	assert.Panics(t, func() {
		NewOn(reg, "workers", "dup")
	})
}
