package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stackadvisor"

// PrometheusHooks implements every hook interface on top of Prometheus
// collectors.
type PrometheusHooks struct {
	runs          *prometheus.CounterVec
	runDuration   prometheus.Histogram
	iterations    prometheus.Histogram
	accepted      prometheus.Counter
	acceptedScore prometheus.Histogram
	discarded     *prometheus.CounterVec

	cacheOps   *prometheus.CounterVec
	cacheBytes *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpErrors   *prometheus.CounterVec
}

// NewPrometheusHooks registers the collectors with reg. Pass
// prometheus.DefaultRegisterer to expose them on the default /metrics handler.
func NewPrometheusHooks(reg prometheus.Registerer) *PrometheusHooks {
	f := promauto.With(reg)
	return &PrometheusHooks{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "runs_total",
			Help:      "Resolver runs by termination reason",
		}, []string{"termination", "status"}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "run_duration_seconds",
			Help:      "Wall clock duration of resolver runs",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}),
		iterations: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "iterations",
			Help:      "Expansions performed per run",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		accepted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "states_accepted_total",
			Help:      "Final states accepted by all strides",
		}),
		acceptedScore: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "accepted_score",
			Help:      "Score distribution of accepted final states",
			Buckets:   prometheus.LinearBuckets(-2, 0.25, 17),
		}),
		discarded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "states_discarded_total",
			Help:      "States discarded by unit and reason",
		}, []string{"unit", "reason"}),
		cacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "operations_total",
			Help:      "Knowledge base cache operations",
		}, []string{"key_type", "result"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "written_bytes_total",
			Help:      "Bytes written to the cache",
		}, []string{"key_type"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Outgoing HTTP requests",
		}, []string{"host", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Outgoing HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host"}),
		httpErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Outgoing HTTP requests that failed before a response",
		}, []string{"host"}),
	}
}

func (h *PrometheusHooks) OnRunStart(context.Context, string, int) {}

func (h *PrometheusHooks) OnRunComplete(_ context.Context, _ string, stats RunStats, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	h.runs.WithLabelValues(stats.Termination, status).Inc()
	h.runDuration.Observe(stats.Duration.Seconds())
	h.iterations.Observe(float64(stats.Iterations))
}

func (h *PrometheusHooks) OnStateAccepted(_ context.Context, score float64) {
	h.accepted.Inc()
	h.acceptedScore.Observe(score)
}

func (h *PrometheusHooks) OnStateDiscarded(_ context.Context, unit, reason string) {
	h.discarded.WithLabelValues(unit, reason).Inc()
}

func (h *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (h *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (h *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheOps.WithLabelValues(keyType, "set").Inc()
	h.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (h *PrometheusHooks) OnRequest(context.Context, string, string, string) {}

func (h *PrometheusHooks) OnResponse(_ context.Context, _, host, _ string, statusCode int, d time.Duration) {
	h.httpRequests.WithLabelValues(host, strconv.Itoa(statusCode)).Inc()
	h.httpDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (h *PrometheusHooks) OnError(_ context.Context, _, host, _ string, _ error) {
	h.httpErrors.WithLabelValues(host).Inc()
}
