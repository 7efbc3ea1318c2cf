// Package telemetry registers prometheus metrics and the HTTP middleware
// that feeds them.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	httpDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// BucketAssignments counts stable bucket assignments served, labeled by
	// experiment group.
	BucketAssignments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bucket_assignments_total",
		Help: "Stable experiment bucket assignments served",
	}, []string{"experiment"})

	// MetadataBuilds counts user metadata contexts built, labeled by
	// whether the program block was included.
	MetadataBuilds = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "metadata_builds_total",
		Help: "User metadata contexts built",
	}, []string{"with_programs"})
)

// Init registers all metrics with the default registry.
func Init() {
	prometheus.MustRegister(httpReqs, httpDur, BucketAssignments, MetadataBuilds)
}

// Middleware records request counts and durations per chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)

		// The route pattern is only known once the router has dispatched.
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		httpReqs.WithLabelValues(route, r.Method, strconv.Itoa(ww.status)).Inc()
		httpDur.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
