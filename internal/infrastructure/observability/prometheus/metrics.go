package prometheus

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Pottifar/calendar/internal/application/port"
)

// Metrics bundles prometheus collectors used by the booking API.
// It also implements port.MetricsPublisher for scheduling operations.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal      *prometheus.CounterVec
	RequestDurationSec *prometheus.HistogramVec
	OperationsTotal    *prometheus.CounterVec
	OperationDuration  *prometheus.HistogramVec
	LockWaitSec        *prometheus.HistogramVec
	RateLimitDropped   prometheus.Counter
	WebsocketClients   prometheus.GaugeFunc
}

// New registers booking collectors, plus the Go and process collectors, in registry.
// clientCount may be nil when no websocket hub is running.
func New(registry *prometheus.Registry, clientCount func() int) *Metrics {
	if clientCount == nil {
		clientCount = func() int { return 0 }
	}

	m := &Metrics{
		registry: registry,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "calendar_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		RequestDurationSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "calendar_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		OperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "calendar_booking_operations_total",
			Help: "Total number of scheduling operations by outcome.",
		}, []string{"operation", "outcome"}),
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "calendar_booking_operation_duration_seconds",
			Help:    "Scheduling operation duration in seconds, lock wait included.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		LockWaitSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "calendar_booking_lock_wait_seconds",
			Help:    "Time spent waiting for the per-date lock.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"operation"}),
		RateLimitDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "calendar_ratelimit_dropped_total",
			Help: "Total number of requests dropped by rate limiter.",
		}),
		WebsocketClients: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "calendar_websocket_clients",
			Help: "Number of connected websocket clients.",
		}, func() float64 { return float64(clientCount()) }),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestsTotal,
		m.RequestDurationSec,
		m.OperationsTotal,
		m.OperationDuration,
		m.LockWaitSec,
		m.RateLimitDropped,
		m.WebsocketClients,
	)

	return m
}

// RecordOperation implements port.MetricsPublisher.
func (m *Metrics) RecordOperation(_ context.Context, record port.OperationRecord) {
	op := string(record.Operation)
	m.OperationsTotal.WithLabelValues(op, string(record.Outcome)).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(record.Duration.Seconds())
	if record.Operation != port.OperationDelete {
		m.LockWaitSec.WithLabelValues(op).Observe(record.LockWait.Seconds())
	}
}

// Flush is a no-op: prometheus pulls.
func (m *Metrics) Flush(context.Context) error {
	return nil
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		status := strconv.Itoa(wrapped.statusCode)
		route := normalizeRoute(r.URL.Path)
		m.RequestsTotal.WithLabelValues(route, r.Method, status).Inc()
		m.RequestDurationSec.WithLabelValues(route, r.Method, status).Observe(time.Since(startedAt).Seconds())
	})
}

// normalizeRoute keeps label cardinality bounded: reservation ids are collapsed.
func normalizeRoute(path string) string {
	switch {
	case path == "/ws", path == "/healthz", path == "/readyz", path == "/metrics":
		return path
	case path == "/api/v1/reservations":
		return path
	case strings.HasPrefix(path, "/api/v1/reservations/"):
		return "/api/v1/reservations/{id}"
	case strings.HasPrefix(path, "/api/updateBooking/"):
		return "/api/updateBooking/{id}"
	case strings.HasPrefix(path, "/api/deleteBooking/"):
		return "/api/deleteBooking/{id}"
	case path == "/api/createBooking", path == "/api/getBookingsByDate", path == "/api/getBookingForUser":
		return path
	case path == "/api" || strings.HasPrefix(path, "/api/"):
		return "/api/*"
	default:
		return "other"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Hijack passes websocket upgrades through wrapped ResponseWriter.
func (rw *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

// Flush keeps streaming behavior for handlers that require it.
func (rw *statusRecorder) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
