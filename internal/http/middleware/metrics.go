// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation for HTTP traffic plus the
// platform-level gauges the health endpoint reports on. Label cardinality is
// kept bounded by using the registered Gin route as the path label:
//
//   - method: HTTP method verb (GET/POST/…)
//   - path:   the registered Gin route (e.g. /api/v1/conversations/:id/messages);
//     falls back to the raw URL path when no route matched
//   - status: numeric status code as a string
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/sysutil"
)

// slowRequestThreshold is the latency above which a request counts as slow in
// the health snapshot. Conversation list pages regressing past this is the
// exact failure mode the batched preview query exists to prevent.
const slowRequestThreshold = 2 * time.Second

var (
	// httpReqs counts requests by method, route path, and status code.
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// httpLat records request duration in seconds by method and route path.
	// Status is omitted to keep histogram cardinality lower.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// httpInflight gauges the number of in-flight requests.
	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// wsClients gauges connected websocket clients; set by the gateway wiring.
	wsClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_clients_connected",
			Help: "Current number of connected websocket clients.",
		},
	)

	// httpRespSize captures response sizes in bytes by method and route path.
	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_response_size_bytes",
			Help: "Size of HTTP responses in bytes.",
			Buckets: []float64{
				200, 500, 1 << 10, 2 << 10, 5 << 10,
				10 << 10, 25 << 10, 50 << 10,
				100 << 10, 250 << 10, 500 << 10,
				1 << 20, 2 << 20, 5 << 20,
			},
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, wsClients, httpRespSize)
}

// SetWSClients updates the connected-websocket-clients gauge.
func SetWSClients(n int) { wsClients.Set(float64(n)) }

// Metrics returns a Gin middleware that instruments requests with Prometheus
// and feeds the sysutil health counters (slow requests, server errors).
//
// Usage:
//
//	r := gin.New()
//	r.Use(middleware.Metrics())
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		sysutil.RequestStarted()
		defer func() {
			httpInflight.Dec()
			sysutil.RequestFinished()
		}()

		c.Next()

		dur := time.Since(start)
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method
		status := c.Writer.Status()
		size := c.Writer.Size() // -1 when unknown

		httpReqs.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		httpLat.WithLabelValues(method, path).Observe(dur.Seconds())
		if size >= 0 {
			httpRespSize.WithLabelValues(method, path).Observe(float64(size))
		}

		if dur >= slowRequestThreshold {
			sysutil.SlowRequestSeen()
		}
		if status >= 500 {
			sysutil.ServerErrorSeen()
		}
	}
}
