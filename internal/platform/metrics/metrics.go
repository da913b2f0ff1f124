// Package metrics exposes Prometheus counters and histograms for the portal
// API and the analytics engine.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "portal"

// Registry owns a private Prometheus registry and every collector the
// server reports.
type Registry struct {
	reg *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	computations    *prometheus.CounterVec
	droppedEvents   prometheus.Counter
	computeDuration prometheus.Histogram
	fetchErrors     *prometheus.CounterVec
}

// New builds a Registry. An empty namespace falls back to "portal".
func New(namespace string) *Registry {
	if namespace == "" {
		namespace = defaultNamespace
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	auto := promauto.With(reg)

	return &Registry{
		reg: reg,
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "path", "status"}),
		httpDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		computations: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "computations_total",
			Help:      "Dashboard computations by resolved granularity.",
		}, []string{"granularity"}),
		droppedEvents: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "dropped_events_total",
			Help:      "Result rows that matched no histogram bucket.",
		}),
		computeDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "compute_duration_seconds",
			Help:      "Time spent fetching rows and computing one dashboard.",
			Buckets:   prometheus.DefBuckets,
		}),
		fetchErrors: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "fetch_errors_total",
			Help:      "Row fetch failures by source table.",
		}, []string{"source"}),
	}
}

// Gatherer exposes the underlying registry, mainly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler serves the text exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// ObserveComputation records one finished dashboard computation.
func (r *Registry) ObserveComputation(granularity string, dropped int, d time.Duration) {
	if r == nil {
		return
	}
	r.computations.WithLabelValues(granularity).Inc()
	if dropped > 0 {
		r.droppedEvents.Add(float64(dropped))
	}
	r.computeDuration.Observe(d.Seconds())
}

// FetchFailed counts a failed row fetch from source.
func (r *Registry) FetchFailed(source string) {
	if r == nil {
		return
	}
	r.fetchErrors.WithLabelValues(source).Inc()
}

// Middleware records every request. The route template is used as the path
// label so ids in URLs do not explode cardinality.
func (r *Registry) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil && !c.Response().Committed {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method

			r.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			r.httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
