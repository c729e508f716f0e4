// metrics.go - Prometheus instrumentation for requests and stego operations.
package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	requests   *prometheus.CounterVec
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	payload    prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gohide",
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "Total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gohide",
				Subsystem: "stego",
				Name:      "operations_total",
				Help:      "Stego operations by media, action and result kind",
			},
			[]string{"media", "action", "result"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gohide",
				Subsystem: "stego",
				Name:      "operation_duration_seconds",
				Help:      "Stego operation duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"media", "action"},
		),
		payload: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "gohide",
				Subsystem: "stego",
				Name:      "payload_chars",
				Help:      "Length of hidden messages in characters",
				Buckets:   prometheus.ExponentialBuckets(8, 4, 8),
			},
		),
	}
}

// middleware counts every request by route template and status.
func (m *metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// observe records one finished stego operation. result is "ok" or the error kind.
func (m *metrics) observe(media, action, result string, start time.Time) {
	m.operations.WithLabelValues(media, action, result).Inc()
	m.duration.WithLabelValues(media, action).Observe(time.Since(start).Seconds())
}
