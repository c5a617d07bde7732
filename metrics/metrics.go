// Package metrics exports driver events as prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fumin/vqe"
)

const (
	namespace = "vqe"
	subsystem = "driver"
)

// Collector implements vqe.Metrics.
type Collector struct {
	evaluations       *prometheus.CounterVec
	evaluationSeconds *prometheus.HistogramVec
	iterations        *prometheus.CounterVec
	energy            *prometheus.GaugeVec
	runs              *prometheus.CounterVec
}

// NewCollector returns a collector whose metrics are registered with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	c := &Collector{
		evaluations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "evaluations_total",
				Help:      "Total number of backend energy evaluations",
			},
			// status: success/error
			[]string{"name", "status"},
		),
		evaluationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of backend energy evaluations",
				Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 12),
			},
			[]string{"name"},
		),
		iterations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "iterations_total",
				Help:      "Total number of minimizer iterations",
			},
			[]string{"name"},
		),
		energy: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "energy",
				Help:      "Energy of the latest iteration or run",
			},
			[]string{"name"},
		),
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "runs_total",
				Help:      "Total number of finished runs",
			},
			// status: converged/max_iterations/failed
			[]string{"name", "status"},
		),
	}
	return c
}

func (c *Collector) Evaluation(name string, elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.evaluations.WithLabelValues(name, status).Inc()
	c.evaluationSeconds.WithLabelValues(name).Observe(elapsed.Seconds())
}

func (c *Collector) Iteration(name string, energy float64) {
	c.iterations.WithLabelValues(name).Inc()
	c.energy.WithLabelValues(name).Set(energy)
}

func (c *Collector) Done(name string, energy float64, status vqe.Status) {
	c.runs.WithLabelValues(name, string(status)).Inc()
	if status != vqe.StatusFailed {
		c.energy.WithLabelValues(name).Set(energy)
	}
}

var _ vqe.Metrics = (*Collector)(nil)
