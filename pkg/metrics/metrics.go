// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lifesave"

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	DonorTransitions    *prometheus.CounterVec
	DonorSubmissions    prometheus.Counter
	EmailsSent          *prometheus.CounterVec
}

// New builds a private registry so tests can create as many instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		DonorTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "donor_transitions_total",
			Help:      "Donor review decisions by resulting status",
		}, []string{"status"}),
		DonorSubmissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "donor_submissions_total",
			Help:      "Accepted donor registrations",
		}),
		EmailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "Notification emails by outcome",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DonorTransitions,
		m.DonorSubmissions,
		m.EmailsSent,
	)
	return m
}

func (m *Metrics) RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordDonorTransition(status string) {
	if m == nil {
		return
	}
	m.DonorTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordDonorSubmission() {
	if m == nil {
		return
	}
	m.DonorSubmissions.Inc()
}

func (m *Metrics) RecordEmail(err error) {
	if m == nil {
		return
	}
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.EmailsSent.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer exposes the registry for assertions in tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
