package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue returns the value of the counter with the given name and label pair.
func counterValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if label == "" {
				return m.GetCounter().GetValue()
			}
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestEngine_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.OpsAppended("local", 2)
	m.OpsAppended("remote", 3)
	m.OpsAppended("remote", 0)
	m.Duplicates(4)
	m.Outcome("MERGE")
	m.Outcome("MERGE")
	m.Conflict("CONCURRENT")
	m.Rebuild()
	m.Reopen()

	assert.Equal(t, 2.0, counterValue(t, reg, "opsync_operations_appended_total", "source", "local"))
	assert.Equal(t, 3.0, counterValue(t, reg, "opsync_operations_appended_total", "source", "remote"))
	assert.Equal(t, 4.0, counterValue(t, reg, "opsync_operations_duplicate_total", "", ""))
	assert.Equal(t, 2.0, counterValue(t, reg, "opsync_batch_outcomes_total", "kind", "MERGE"))
	assert.Equal(t, 1.0, counterValue(t, reg, "opsync_conflicts_total", "reason", "CONCURRENT"))
	assert.Equal(t, 1.0, counterValue(t, reg, "opsync_snapshot_rebuilds_total", "", ""))
	assert.Equal(t, 1.0, counterValue(t, reg, "opsync_storage_reopens_total", "", ""))
}

func TestEngine_NilIsNoop(t *testing.T) {
	var m *Engine

	assert.NotPanics(t, func() {
		m.OpsAppended("local", 1)
		m.Duplicates(1)
		m.Outcome("EQUAL")
		m.Conflict("CONCURRENT")
		m.Rebuild()
		m.Reopen()
	})
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	assert.Panics(t, func() { New(reg) })
}
