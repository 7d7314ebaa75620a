// Package metrics holds the Prometheus collectors for protocol flows, the
// HTTP transport and the dev server.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"betterauth/internal/autherr"
)

const namespace = "betterauth"

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	flows            *prometheus.CounterVec
	flowDuration     *prometheus.HistogramVec
	transport        *prometheus.CounterVec
	transportLatency *prometheus.HistogramVec
	retries          prometheus.Counter
	server           *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg creates
// unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		flows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "flow",
			Name:      "total",
			Help:      "Protocol flows by name and outcome code.",
		}, []string{"flow", "outcome"}),
		flowDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "flow",
			Name:      "duration_seconds",
			Help:      "Protocol flow duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"flow"}),
		transport: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "requests_total",
			Help:      "HTTP round trips by path and status.",
		}, []string{"path", "status"}),
		transportLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "request_duration_seconds",
			Help:      "HTTP round trip latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
		retries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "retries_total",
			Help:      "HTTP attempts retried after a transient failure.",
		}),
		server: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "requests_total",
			Help:      "Dev server requests by route and outcome code.",
		}, []string{"route", "outcome"}),
	}
}

// Outcome labels err by its taxonomy code, "ok" for success.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return autherr.KindOf(err).Code()
}

// ObserveFlow records one flow run that started at start.
func (m *Metrics) ObserveFlow(flow string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.flows.WithLabelValues(flow, Outcome(err)).Inc()
	m.flowDuration.WithLabelValues(flow).Observe(time.Since(start).Seconds())
}

// ObserveRoundTrip records one HTTP attempt. status 0 means no response.
func (m *Metrics) ObserveRoundTrip(path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.transport.WithLabelValues(path, strconv.Itoa(status)).Inc()
	m.transportLatency.WithLabelValues(path).Observe(elapsed.Seconds())
}

// Retry counts one retried attempt.
func (m *Metrics) Retry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

// ObserveServer records one dev server request.
func (m *Metrics) ObserveServer(route string, err error) {
	if m == nil {
		return
	}
	m.server.WithLabelValues(route, Outcome(err)).Inc()
}
