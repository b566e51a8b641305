package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "dealerassist"

// Labels stay bounded: route is the registered Gin pattern (or "unmatched"),
// role is one of the known roles or "other".
var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route, status and caller role.",
		},
		[]string{"method", "route", "status", "role"},
	)

	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			// Asking the assistant may wait on the remote model.
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		},
		[]string{"method", "route"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_inflight",
			Help:      "HTTP requests currently being served.",
		},
	)

	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response body size.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8), // 256B .. 4MiB
		},
		[]string{"method", "route"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRespSize)
}

// metricRole folds arbitrary X-User-Role values into a fixed label set.
func metricRole(role string) string {
	switch role {
	case "dealer", "sales_rep", "admin":
		return role
	case "":
		return "none"
	default:
		return "other"
	}
}

// Metrics records request count, latency, in-flight gauge and response size.
// Mount /metrics with promhttp.Handler.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		httpReqs.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status()), metricRole(CallerFrom(c).Role)).Inc()
		httpLat.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(method, route).Observe(float64(size))
		}
	}
}
