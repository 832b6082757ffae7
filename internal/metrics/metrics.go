// Package metrics owns the Prometheus registry of the API server and the
// collectors the other packages report into.  All methods are safe to call
// on a nil *Metrics so tests and tools can run without a registry.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
)

type Metrics struct {
	reg *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	geocodeRequests *prometheus.CounterVec
	eventsCreated   prometheus.Counter
	eventsDeleted   prometheus.Counter
	bookings        *prometheus.CounterVec
	failedLogins    prometheus.Counter
	panicsTotal     prometheus.Counter
	rateLimited     *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.3, 0.6, 1, 3, 6, 10},
		}, []string{"route", "method"}),
		geocodeRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geocode_requests_total",
			Help: "Geocoding lookups by outcome (hit, ok, no_result, error).",
		}, []string{"result"}),
		eventsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "events_created_total",
			Help: "Total number of events created.",
		}),
		eventsDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "events_deleted_total",
			Help: "Total number of events deleted.",
		}),
		bookings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bookings_total",
			Help: "Booking operations by action (created, cancelled).",
		}, []string{"action"}),
		failedLogins: f.NewCounter(prometheus.CounterOpts{
			Name: "failed_login_attempts_total",
			Help: "Total number of failed login attempts.",
		}),
		panicsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "http_req_panics_recovered_total",
			Help: "Total number of HTTP requests recovered from internal panic.",
		}),
		rateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_rate_limited_total",
			Help: "Requests rejected by the token bucket, by route.",
		}, []string{"route"}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{
		// Opt into OpenMetrics e.g. to support exemplars.
		EnableOpenMetrics: true,
	})
}

// Middleware records request count and latency per matched route.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()

			obs := m.httpDuration.WithLabelValues(route, method)
			elapsed := time.Since(start).Seconds()
			if ex := exemplarFromContext(c.Request().Context()); ex != nil {
				if eo, ok := obs.(prometheus.ExemplarObserver); ok {
					eo.ObserveWithExemplar(elapsed, ex)
					return err
				}
			}
			obs.Observe(elapsed)
			return err
		}
	}
}

func exemplarFromContext(ctx context.Context) prometheus.Labels {
	if span := trace.SpanContextFromContext(ctx); span.IsSampled() {
		return prometheus.Labels{"traceID": span.TraceID().String()}
	}
	return nil
}

func (m *Metrics) GeocodeResult(result string) {
	if m != nil {
		m.geocodeRequests.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) EventCreated() {
	if m != nil {
		m.eventsCreated.Inc()
	}
}

func (m *Metrics) EventDeleted() {
	if m != nil {
		m.eventsDeleted.Inc()
	}
}

func (m *Metrics) Booking(action string) {
	if m != nil {
		m.bookings.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) FailedLogin() {
	if m != nil {
		m.failedLogins.Inc()
	}
}

func (m *Metrics) PanicRecovered() {
	if m != nil {
		m.panicsTotal.Inc()
	}
}

func (m *Metrics) RateLimited(route string) {
	if m != nil {
		m.rateLimited.WithLabelValues(route).Inc()
	}
}
