// Package metrics exposes training and tuning counters through a prometheus registry.
package metrics

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rltune"

// Phase labels for cycle counters.
const (
	PhaseTrain = "train"
	PhaseEval  = "eval"
)

// Metrics groups the collectors of one run. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	cycles      *prometheus.CounterVec
	episodes    *prometheus.CounterVec
	adaptations prometheus.Counter
	evaluations prometheus.Counter
	trials      *prometheus.CounterVec
	score       prometheus.Gauge
	highscore   prometheus.Gauge
	best        prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Scenario cycles run, by phase.",
		}, []string{"phase"}),
		episodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "episodes_total",
			Help:      "Episodes run, by phase.",
		}, []string{"phase"}),
		adaptations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adaptations_total",
			Help:      "Cycles in which the model reported a change.",
		}),
		evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Completed evaluations.",
		}),
		trials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trials_total",
			Help:      "Tuning trials, by final state.",
		}, []string{"state"}),
		score: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "evaluation_score",
			Help:      "Raw score of the latest evaluation.",
		}),
		highscore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "highscore",
			Help:      "High score of the latest training.",
		}),
		best: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_trial_value",
			Help:      "Objective value of the best trial so far.",
		}),
	}
	m.Registry.MustRegister(m.cycles, m.episodes, m.adaptations, m.evaluations, m.trials,
		m.score, m.highscore, m.best)
	return m
}

func (m *Metrics) Cycle(phase string) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(phase).Inc()
}

func (m *Metrics) Episode(phase string) {
	if m == nil {
		return
	}
	m.episodes.WithLabelValues(phase).Inc()
}

func (m *Metrics) Adaptation() {
	if m == nil {
		return
	}
	m.adaptations.Inc()
}

// Evaluation records a finished evaluation and its raw score.
func (m *Metrics) Evaluation(score float64) {
	if m == nil {
		return
	}
	m.evaluations.Inc()
	m.score.Set(score)
}

func (m *Metrics) Highscore(v float64) {
	if m == nil {
		return
	}
	m.highscore.Set(v)
}

// Trial records a finished trial with state "complete" or "failed".
func (m *Metrics) Trial(state string) {
	if m == nil {
		return
	}
	m.trials.WithLabelValues(state).Inc()
}

func (m *Metrics) Best(v float64) {
	if m == nil {
		return
	}
	m.best.Set(v)
}

// WriteTextfile dumps the registry to <dir>/metrics.prom.
func (m *Metrics) WriteTextfile(dir string) error {
	if m == nil {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "metrics.mkdir")
	}
	return errors.Wrap(prometheus.WriteToTextfile(filepath.Join(dir, "metrics.prom"), m.Registry), "metrics.write")
}
