package reexec

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts taint replays. A nil *Metrics discards everything.
type Metrics struct {
	replays,
	faults,
	skippedSteps prometheus.Counter

	duration prometheus.Histogram
}

func newCounter(namespace, name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	})
}

// NewMetrics creates and registers the replay metrics under namespace.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		replays:      newCounter(namespace, "replays", "# of taint replays attempted"),
		faults:       newCounter(namespace, "replay_faults", "# of taint replays that failed"),
		skippedSteps: newCounter(namespace, "skipped_steps", "# of accepted step inputs not replayed"),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "replay_duration_seconds",
			Help:      "time spent in taint replays",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
	}
	err := errors.Join(
		reg.Register(m.replays),
		reg.Register(m.faults),
		reg.Register(m.skippedSteps),
		reg.Register(m.duration),
	)
	return m, err
}

func (m *Metrics) replayed(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.replays.Inc()
	m.duration.Observe(d.Seconds())
	if err != nil {
		m.faults.Inc()
	}
}

func (m *Metrics) skippedStep() {
	if m == nil {
		return
	}
	m.skippedSteps.Inc()
}
