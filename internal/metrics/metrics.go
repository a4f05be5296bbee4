// Package metrics содержит счетчики движка синхронизации.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "opsync"

// Engine счетчики движка. Nil *Engine допустим: все методы становятся no-op.
type Engine struct {
	opsAppended *prometheus.CounterVec
	duplicates  prometheus.Counter
	outcomes    *prometheus.CounterVec
	conflicts   *prometheus.CounterVec
	rebuilds    prometheus.Counter
	reopens     prometheus.Counter
}

// New registers the engine counters on reg.
func New(reg prometheus.Registerer) *Engine {
	f := promauto.With(reg)
	return &Engine{
		opsAppended: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_appended_total",
			Help:      "Operations appended to the log by source",
		}, []string{"source"}),
		duplicates: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_duplicate_total",
			Help:      "Remote operations skipped because their id was already in the log",
		}),
		outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_outcomes_total",
			Help:      "Remote batch classification results by kind",
		}, []string{"kind"}),
		conflicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflicts_total",
			Help:      "Conflicts that required a decision by reason",
		}, []string{"reason"}),
		rebuilds: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_rebuilds_total",
			Help:      "Full snapshot rebuilds from the operation log",
		}),
		reopens: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_reopens_total",
			Help:      "Storage reopen attempts after a lost connection",
		}),
	}
}

// OpsAppended adds n appended operations of the given source.
func (e *Engine) OpsAppended(source string, n int) {
	if e == nil || n <= 0 {
		return
	}
	e.opsAppended.WithLabelValues(source).Add(float64(n))
}

// Duplicates adds n skipped duplicates.
func (e *Engine) Duplicates(n int) {
	if e == nil || n <= 0 {
		return
	}
	e.duplicates.Add(float64(n))
}

// Outcome counts one classified batch.
func (e *Engine) Outcome(kind string) {
	if e == nil {
		return
	}
	e.outcomes.WithLabelValues(kind).Inc()
}

// Conflict counts one conflict raised to the caller.
func (e *Engine) Conflict(reason string) {
	if e == nil {
		return
	}
	e.conflicts.WithLabelValues(reason).Inc()
}

// Rebuild counts one full snapshot rebuild.
func (e *Engine) Rebuild() {
	if e == nil {
		return
	}
	e.rebuilds.Inc()
}

// Reopen counts one storage reopen.
func (e *Engine) Reopen() {
	if e == nil {
		return
	}
	e.reopens.Inc()
}
