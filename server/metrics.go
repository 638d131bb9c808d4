package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mayray"

// Metrics are the collectors the server updates while it serves.
type Metrics struct {
	connections   prometheus.Counter
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	activeWorkers prometheus.Gauge
	parseFailures prometheus.Counter
	acceptErrors  prometheus.Counter
}

// NewMetrics creates the server's collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		connections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "connections_total",
			Help:      "Total number of accepted connections",
		}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "requests_total",
			Help:      "Total number of answered requests",
		}, []string{"route", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "request_duration_seconds",
			Help:      "Time from accepting a connection to closing it",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		activeWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "active_workers",
			Help:      "Number of connections being served",
		}),
		parseFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "parse_failures_total",
			Help:      "Total number of requests that could not be parsed",
		}),
		acceptErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "accept_errors_total",
			Help:      "Total number of failed accepts",
		}),
	}
}

// Requests counts answered requests by route name and status code.
func (m *Metrics) Requests() *prometheus.CounterVec {
	return m.requests
}

// AcceptErrors counts failed accepts.
func (m *Metrics) AcceptErrors() prometheus.Counter {
	return m.acceptErrors
}
