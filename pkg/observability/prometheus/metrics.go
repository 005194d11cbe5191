// Package prometheus exposes service metrics in the Prometheus format.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "todolist"

// NewRegistry returns a registry preloaded with the Go runtime and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Metrics holds all Prometheus metrics
type Metrics struct {
	registerer prometheus.Registerer

	// HTTP request metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Todo collection metrics
	TodoMutationsTotal *prometheus.CounterVec
	TodoRecords        prometheus.Gauge

	// EventBus metrics
	EventBusMessagesTotal *prometheus.CounterVec
}

// NewMetrics creates the metric set and registers it with registerer
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &Metrics{
		registerer: registerer,
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		TodoMutationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "todo_mutations_total",
				Help:      "Committed todo mutations by type",
			},
			[]string{"type"},
		),
		TodoRecords: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "todo_records",
				Help:      "Number of todos currently stored",
			},
		),
		EventBusMessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "eventbus_messages_total",
				Help:      "EventBus messages handled by the metrics consumer",
			},
			[]string{"address"},
		),
	}
}

// Registerer returns the registerer the metrics were created with
func (m *Metrics) Registerer() prometheus.Registerer {
	return m.registerer
}

// RecordHTTPRequest records one served request
func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordTodoMutation counts a committed mutation and updates the record gauge
func (m *Metrics) RecordTodoMutation(mutationType string, records int) {
	m.TodoMutationsTotal.WithLabelValues(mutationType).Inc()
	m.TodoRecords.Set(float64(records))
}

// RecordEventBusMessage counts a message seen on address
func (m *Metrics) RecordEventBusMessage(address string) {
	m.EventBusMessagesTotal.WithLabelValues(address).Inc()
}

// SetTodoRecords sets the record gauge, e.g. after the initial load
func (m *Metrics) SetTodoRecords(records int) {
	m.TodoRecords.Set(float64(records))
}
