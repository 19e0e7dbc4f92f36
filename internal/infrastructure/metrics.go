package infrastructure

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Outcome labels for the simulation counters.
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeTimeout  = "timeout"
	OutcomeUpstream = "upstream"
	OutcomeError    = "error"
)

// SimulationMetrics groups the Prometheus collectors for the simulation
// flow.
type SimulationMetrics struct {
	Registry *prometheus.Registry

	SimulationsTotal   *prometheus.CounterVec
	SimulationDuration prometheus.Histogram
	BatchItemsTotal    *prometheus.CounterVec
	BatchSize          prometheus.Histogram
}

// NewSimulationMetrics builds a dedicated registry with process/go
// collectors plus the simulation metrics.
func NewSimulationMetrics() *SimulationMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &SimulationMetrics{
		Registry: reg,
		SimulationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pensim",
			Name:      "simulations_total",
			Help:      "Simulation runs by outcome.",
		}, []string{"outcome"}),
		SimulationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pensim",
			Name:      "simulation_duration_seconds",
			Help:      "Wall-clock duration of one simulation run.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		BatchItemsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pensim",
			Name:      "batch_items_total",
			Help:      "Batch items by outcome.",
		}, []string{"outcome"}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pensim",
			Name:      "batch_size",
			Help:      "Number of identifiers per batch request.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}

	reg.MustRegister(m.SimulationsTotal, m.SimulationDuration, m.BatchItemsTotal, m.BatchSize)
	return m
}

// ObserveSimulation records one simulation run.
func (m *SimulationMetrics) ObserveSimulation(outcome string, elapsed time.Duration) {
	m.SimulationsTotal.WithLabelValues(outcome).Inc()
	m.SimulationDuration.Observe(elapsed.Seconds())
}
