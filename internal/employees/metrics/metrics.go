// Package metrics exposes Prometheus instrumentation for the roster service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "roster"

// Ingestion outcome labels.
const (
	StatusSuccess  = "success"
	StatusRejected = "rejected"
	StatusFailed   = "failed"
)

// Metrics holds all Prometheus collectors of the service.
type Metrics struct {
	IngestionsTotal  *prometheus.CounterVec
	CompaniesCreated prometheus.Counter
	EmployeesCreated prometheus.Counter
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		IngestionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "uploads_total",
			Help:      "Total number of upload ingestions by outcome.",
		}, []string{"status"}), // status: success, rejected, failed
		CompaniesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "companies_created_total",
			Help:      "Total number of companies created by ingestion.",
		}),
		EmployeesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "employees_created_total",
			Help:      "Total number of employees created by ingestion.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		m.IngestionsTotal,
		m.CompaniesCreated,
		m.EmployeesCreated,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// ObserveIngestion records one ingestion outcome. A nil Metrics is a no-op.
func (m *Metrics) ObserveIngestion(status string, companies, employees int) {
	if m == nil {
		return
	}
	m.IngestionsTotal.WithLabelValues(status).Inc()
	m.CompaniesCreated.Add(float64(companies))
	m.EmployeesCreated.Add(float64(employees))
}

// Middleware instruments requests by their chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
