// Package metrics exposes Prometheus collectors for the HTTP API and the
// layout engine.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/piwi3910/SolarLayout/internal/model"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "solarlayout",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "solarlayout",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "solarlayout",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Layout metrics
	LayoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "solarlayout",
		Subsystem: "layout",
		Name:      "computed_total",
		Help:      "Total layouts computed, by result status",
	}, []string{"status"})

	PanelsPlaced = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "solarlayout",
		Subsystem: "layout",
		Name:      "panels_placed",
		Help:      "Panels placed per layout, both orientations",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})

	LayoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "solarlayout",
		Subsystem: "layout",
		Name:      "duration_seconds",
		Help:      "Time spent computing one layout",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	ReportsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "solarlayout",
		Subsystem: "export",
		Name:      "reports_total",
		Help:      "Total reports generated, by format",
	}, []string{"format"})
)

// ObserveLayout records one layout run.
func ObserveLayout(result model.LayoutResult, elapsed time.Duration) {
	LayoutsTotal.WithLabelValues(string(result.Status)).Inc()
	PanelsPlaced.Observe(float64(result.PanelCount()))
	LayoutDuration.Observe(elapsed.Seconds())
}

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}
