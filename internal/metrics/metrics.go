// Package metrics exports benchmark results as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cwbudde/algo-transpose/internal/bench"
)

// Collector holds the benchmark metrics. It implements bench.Observer.
type Collector struct {
	registry *prometheus.Registry

	transposesTotal   *prometheus.CounterVec
	transposeDuration *prometheus.HistogramVec
	throughputBytes   *prometheus.GaugeVec
	nsPerOp           *prometheus.GaugeVec
	verifiedTotal     *prometheus.CounterVec

	httpRequestsTotal *prometheus.CounterVec
}

// New creates a collector with its own registry, so several collectors
// can coexist in one process.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		transposesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transpose_runs_total",
				Help: "Total number of timed transposes",
			},
			[]string{"strategy"},
		),

		transposeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "transpose_duration_seconds",
				Help:    "Wall time of one in-place transpose",
				Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
			},
			[]string{"strategy"},
		),

		throughputBytes: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "transpose_throughput_bytes_per_second",
				Help: "Matrix bytes transposed per second in the last run of a size",
			},
			[]string{"strategy", "n"},
		),

		nsPerOp: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "transpose_ns_per_op",
				Help: "Nanoseconds per transpose in the last run of a size",
			},
			[]string{"strategy", "n"},
		),

		verifiedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transpose_verifications_total",
				Help: "Total number of round-trip verifications",
			},
			[]string{"strategy"},
		),

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transpose_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),
	}
}

// Observe records one benchmark result.
func (c *Collector) Observe(r bench.Result) {
	strategy := r.Strategy.String()
	n := strconv.Itoa(r.Case.N)

	c.transposesTotal.WithLabelValues(strategy).Add(float64(r.Iterations))
	c.transposeDuration.WithLabelValues(strategy).Observe(r.NsPerOp / float64(time.Second))
	c.throughputBytes.WithLabelValues(strategy, n).Set(r.BytesPerSecond)
	c.nsPerOp.WithLabelValues(strategy, n).Set(r.NsPerOp)

	if r.Verified {
		c.verifiedTotal.WithLabelValues(strategy).Inc()
	}
}

// Registry returns the registry the collector's metrics live in.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the collector's metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler counts requests to handler by method, route and status.
func (c *Collector) InstrumentHandler(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(rw, r)
		c.httpRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
