package fuzzer

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"alma.local/evmfuzz/feedback"
)

// Metrics is shared by all workers of a campaign. A nil *Metrics discards
// everything.
type Metrics struct {
	executions prometheus.Counter
	accepted   *prometheus.CounterVec
	tainted    prometheus.Counter
	coverage   *prometheus.GaugeVec
}

// NewMetrics creates and registers the campaign metrics under namespace.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		executions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executions",
			Help:      "# of sequences executed",
		}),
		accepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accepted",
			Help:      "# of sequences added to the corpus",
		}, []string{"exit"}),
		tainted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tainted_testcases",
			Help:      "# of accepted testcases carrying taint facts",
		}),
		coverage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "coverage",
			Help:      "distinct CIDs covered per worker",
		}, []string{"worker"}),
	}
	err := errors.Join(
		reg.Register(m.executions),
		reg.Register(m.accepted),
		reg.Register(m.tainted),
		reg.Register(m.coverage),
	)
	return m, err
}

func (m *Metrics) executed() {
	if m == nil {
		return
	}
	m.executions.Inc()
}

func (m *Metrics) accept(exit feedback.ExitKind, withTaint bool) {
	if m == nil {
		return
	}
	m.accepted.WithLabelValues(exit.String()).Inc()
	if withTaint {
		m.tainted.Inc()
	}
}

func (m *Metrics) setCoverage(worker string, v float64) {
	if m == nil {
		return
	}
	m.coverage.WithLabelValues(worker).Set(v)
}
