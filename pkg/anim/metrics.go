package anim

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors an Encoder updates. A nil
// *Metrics disables collection.
type Metrics struct {
	FramesDispatched prometheus.Counter
	FramesCompleted  prometheus.Counter
	ResultsDiscarded prometheus.Counter
	Sessions         *prometheus.CounterVec
	WorkersSpawned   prometheus.Counter
	ActiveWorkers    prometheus.Gauge
	FreeWorkers      prometheus.Gauge
	FrameLatency     prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg when reg is
// not nil.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FramesDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "frames_dispatched_total",
			Help:      "Frames handed to a worker",
		}),
		FramesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "frames_completed_total",
			Help:      "Frame results stored in their slot",
		}),
		ResultsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "results_discarded_total",
			Help:      "Results dropped because their session was no longer running",
		}),
		Sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "sessions_total",
			Help:      "Render sessions by outcome",
		}, []string{"outcome"}),
		WorkersSpawned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "workers_spawned_total",
			Help:      "Workers created by the pool",
		}),
		ActiveWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "active_workers",
			Help:      "Workers currently running a task",
		}),
		FreeWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "free_workers",
			Help:      "Idle workers",
		}),
		FrameLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "frame_latency_seconds",
			Help:      "Time from dispatch to stored result",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.FramesDispatched,
			m.FramesCompleted,
			m.ResultsDiscarded,
			m.Sessions,
			m.WorkersSpawned,
			m.ActiveWorkers,
			m.FreeWorkers,
			m.FrameLatency,
		)
	}
	return m
}

func (m *Metrics) dispatched() {
	if m != nil {
		m.FramesDispatched.Inc()
	}
}

func (m *Metrics) completed(since time.Time) {
	if m != nil {
		m.FramesCompleted.Inc()
		m.FrameLatency.Observe(time.Since(since).Seconds())
	}
}

func (m *Metrics) discarded() {
	if m != nil {
		m.ResultsDiscarded.Inc()
	}
}

func (m *Metrics) session(outcome string) {
	if m != nil {
		m.Sessions.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) workerSpawned() {
	if m != nil {
		m.WorkersSpawned.Inc()
	}
}

func (m *Metrics) poolOccupancy(free, active int) {
	if m != nil {
		m.FreeWorkers.Set(float64(free))
		m.ActiveWorkers.Set(float64(active))
	}
}
