// Package metrics exposes Prometheus counters for chat turns and remote
// model calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Remote operations
const (
	OpChat          = "chat"
	OpAnalyzeImage  = "analyze_image"
	OpGenerateImage = "generate_image"
)

// Request paths and outcomes
const (
	PathText  = "text"
	PathImage = "image"

	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the application collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	chatRequests *prometheus.CounterVec
	remoteCalls  *prometheus.HistogramVec
	remoteErrors *prometheus.CounterVec
	uploadBytes  prometheus.Histogram
	sessions     prometheus.GaugeFunc
}

// New registers the collectors on a private registry, together with the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		chatRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "icecarve_chat_requests_total",
			Help: "Total number of /chatbot requests by path and outcome",
		}, []string{"path", "outcome"}),
		remoteCalls: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "icecarve_remote_call_duration_seconds",
			Help:    "Latency of remote model calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"operation"}),
		remoteErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "icecarve_remote_call_errors_total",
			Help: "Total number of failed remote model calls",
		}, []string{"operation"}),
		uploadBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "icecarve_upload_bytes",
			Help:    "Size of uploaded images",
			Buckets: prometheus.ExponentialBuckets(16*1024, 4, 7),
		}),
	}
}

// RegisterSessionGauge exposes the live session count reported by fn.
func (m *Metrics) RegisterSessionGauge(fn func() int) {
	if m == nil || m.sessions != nil {
		return
	}
	m.sessions = promauto.With(m.registry).NewGaugeFunc(prometheus.GaugeOpts{
		Name: "icecarve_sessions",
		Help: "Number of live conversation sessions",
	}, func() float64 { return float64(fn()) })
}

// ObserveRequest counts one /chatbot request.
func (m *Metrics) ObserveRequest(path string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.chatRequests.WithLabelValues(path, outcome).Inc()
}

// ObserveRemoteCall records the latency and outcome of a remote call that
// started at start.
func (m *Metrics) ObserveRemoteCall(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.remoteCalls.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		m.remoteErrors.WithLabelValues(op).Inc()
	}
}

// ObserveUpload records the size of an accepted upload.
func (m *Metrics) ObserveUpload(size int) {
	if m == nil {
		return
	}
	m.uploadBytes.Observe(float64(size))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
