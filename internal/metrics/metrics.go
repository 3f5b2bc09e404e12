// Package metrics exposes backend counters in the Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one backend instance.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	authFailures  *prometheus.CounterVec
	messagesSent  prometheus.Counter
	subscriptions *prometheus.GaugeVec
	usersOnline   prometheus.Gauge
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parley",
			Name:      "backend_requests_total",
			Help:      "Backend calls by method and outcome.",
		}, []string{"method", "code"}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parley",
			Name:      "auth_failures_total",
			Help:      "Failed authentication attempts by error code.",
		}, []string{"code"}),
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parley",
			Name:      "messages_sent_total",
			Help:      "Messages written to the messages collection.",
		}),
		subscriptions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "parley",
			Name:      "active_subscriptions",
			Help:      "Open realtime subscriptions by collection.",
		}, []string{"collection"}),
		usersOnline: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "parley",
			Name:      "users_online",
			Help:      "Profiles currently flagged online.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.requests, m.authFailures, m.messagesSent, m.subscriptions, m.usersOnline,
	)
	return m
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest counts one backend call.
func (m *Metrics) ObserveRequest(method, code string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, code).Inc()
}

// AuthFailed counts a rejected sign-in or credential check.
func (m *Metrics) AuthFailed(code string) {
	if m == nil {
		return
	}
	m.authFailures.WithLabelValues(code).Inc()
}

// MessageSent counts a stored message.
func (m *Metrics) MessageSent() {
	if m == nil {
		return
	}
	m.messagesSent.Inc()
}

// SubscriptionOpened increments the gauge for collection and returns the matching decrement.
func (m *Metrics) SubscriptionOpened(collection string) func() {
	if m == nil {
		return func() {}
	}
	g := m.subscriptions.WithLabelValues(collection)
	g.Inc()
	return g.Dec
}

// SetUsersOnline records the online profile count.
func (m *Metrics) SetUsersOnline(n int) {
	if m == nil {
		return
	}
	m.usersOnline.Set(float64(n))
}
