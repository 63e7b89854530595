package middleware

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Login latency is dominated by argon2 verification, so the histogram keeps
// resolution up to a few seconds instead of stopping at the usual sub-second
// web buckets.
var defaultLatencyBuckets = []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5}

// Operational endpoints scraped by infrastructure would drown out the API
// series; they stay uninstrumented.
var uninstrumentedPaths = map[string]struct{}{
	"/metrics": {},
	"/healthz": {},
	"/readyz":  {},
}

// HTTPMetricsOptions configures the request instrumentation middleware.
type HTTPMetricsOptions struct {
	Registerer prometheus.Registerer
	Namespace  string
	Buckets    []float64
}

// HTTPMetrics instruments API traffic: a request counter split by outcome, a
// latency histogram per route, and an in-flight gauge.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inflight prometheus.Gauge
}

func registerCollector[T prometheus.Collector](reg prometheus.Registerer, collector T) (T, error) {
	if err := reg.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		var zero T
		return zero, fmt.Errorf("register collector: %w", err)
	}
	return collector, nil
}

// NewHTTPMetrics builds and registers the API traffic collectors.
func NewHTTPMetrics(opts HTTPMetricsOptions) (*HTTPMetrics, error) {
	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	namespace := opts.Namespace
	if namespace == "" {
		namespace = "iam"
	}

	buckets := opts.Buckets
	if len(buckets) == 0 {
		buckets = defaultLatencyBuckets
	}

	requests, err := registerCollector(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "API requests by method, matched route, and status code.",
	}, []string{"method", "path", "code"}))
	if err != nil {
		return nil, err
	}

	latency, err := registerCollector(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "API request latency by method and matched route.",
		Buckets:   buckets,
	}, []string{"method", "path"}))
	if err != nil {
		return nil, err
	}

	inflight, err := registerCollector(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "API requests currently being served.",
	}))
	if err != nil {
		return nil, err
	}

	return &HTTPMetrics{
		requests: requests,
		latency:  latency,
		inflight: inflight,
	}, nil
}

// Handler returns the Gin middleware recording the collectors.
func (m *HTTPMetrics) Handler() gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if _, skip := uninstrumentedPaths[c.Request.URL.Path]; skip {
			c.Next()
			return
		}

		start := time.Now()
		m.inflight.Inc()

		c.Next()

		m.inflight.Dec()

		// Unmatched requests share one label value so probing random URLs
		// cannot inflate series cardinality.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		method := c.Request.Method
		m.requests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
