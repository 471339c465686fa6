// Package metrics provides the Prometheus collectors exported by agentroom.
//
// A nil *Collector is valid and records nothing, so components can take an
// optional collector through their Options.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace prefixes all metric names.
const DefaultNamespace = "agentroom"

// Turn outcomes recorded by ObserveTurn.
const (
	OutcomeComplete      = "complete"
	OutcomeMaxIterations = "max_iterations"
	OutcomeError         = "error"
	OutcomeCancelled     = "cancelled"
)

// Collector groups all agentroom metrics.
type Collector struct {
	turnsTotal         *prometheus.CounterVec
	turnDuration       *prometheus.HistogramVec
	iterationsTotal    *prometheus.CounterVec
	modelCallsTotal    *prometheus.CounterVec
	modelCallDuration  *prometheus.HistogramVec
	malformedDecisions *prometheus.CounterVec
	activeTurns        prometheus.Gauge
	connections        prometheus.Gauge
}

// NewCollector registers the collectors on reg. Pass prometheus.DefaultRegisterer
// to expose them through promhttp.Handler.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	f := promauto.With(reg)

	return &Collector{
		turnsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "turns_total",
				Help:      "Total number of orchestrated turns by outcome",
			},
			[]string{"room", "outcome"},
		),
		turnDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "turn_duration_seconds",
				Help:      "Duration of a turn from first selection to completion",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"room"},
		),
		iterationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "iterations_total",
				Help:      "Total number of agent replies",
			},
			[]string{"room", "agent"},
		),
		modelCallsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_calls_total",
				Help:      "Total number of model streams by stage and status",
			},
			[]string{"stage", "status"},
		),
		modelCallDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_call_duration_seconds",
				Help:      "Model stream duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),
		malformedDecisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "malformed_decisions_total",
				Help:      "Decisions whose text lacked the expected fields",
			},
			[]string{"strategy"},
		),
		activeTurns: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_turns",
			Help:      "Number of turn loops currently running",
		}),
		connections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_connections",
			Help:      "Number of open WebSocket connections",
		}),
	}
}

// TurnStarted marks a loop as running and returns a func recording its outcome.
func (c *Collector) TurnStarted(room string) func(outcome string) {
	if c == nil {
		return func(string) {}
	}

	start := time.Now()
	c.activeTurns.Inc()

	return func(outcome string) {
		c.activeTurns.Dec()
		c.turnsTotal.WithLabelValues(room, outcome).Inc()
		c.turnDuration.WithLabelValues(room).Observe(time.Since(start).Seconds())
	}
}

// RecordIteration counts one committed agent reply.
func (c *Collector) RecordIteration(room, agent string) {
	if c == nil {
		return
	}
	c.iterationsTotal.WithLabelValues(room, agent).Inc()
}

// RecordModelCall records one model stream for a stage.
func (c *Collector) RecordModelCall(stage string, dur time.Duration, err error) {
	if c == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}

	c.modelCallsTotal.WithLabelValues(stage, status).Inc()
	c.modelCallDuration.WithLabelValues(stage).Observe(dur.Seconds())
}

// RecordMalformedDecision counts a decision that fell back to its default.
func (c *Collector) RecordMalformedDecision(strategy string) {
	if c == nil {
		return
	}
	c.malformedDecisions.WithLabelValues(strategy).Inc()
}

// ConnectionOpened increments the open connection gauge.
func (c *Collector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.connections.Inc()
}

// ConnectionClosed decrements the open connection gauge.
func (c *Collector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.connections.Dec()
}
