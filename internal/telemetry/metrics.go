package telemetry

import (
	"net/http"
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

	// Evaluations counts rule-evaluation round-trips by outcome (ok, error, stale).
	Evaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "condrules_evaluations_total",
			Help: "Rule-evaluation round-trips by outcome",
		},
		[]string{"outcome"},
	)
	EvaluationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "condrules_evaluation_duration_seconds",
		Help:    "Rule-evaluation round-trip duration in seconds",
		Buckets: prometheus.DefBuckets,
	})
	// CacheLookups counts decision cache reads at client start by result (hit, miss).
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "condrules_cache_lookups_total",
			Help: "Decision cache lookups by result",
		},
		[]string{"result"},
	)
	AjaxRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "condrules_ajax_requests_total",
			Help: "Requests sent to the admin-ajax endpoint by action and status",
		},
		[]string{"action", "status"},
	)
	RenderedForms = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "condrules_rendered_forms_total",
		Help: "Forms rendered by the preview service",
	})
)

func Init() {
	prometheus.MustRegister(httpReqs, httpDur, Evaluations, EvaluationDuration, CacheLookups, AjaxRequests, RenderedForms)
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// get route pattern if available
		route := r.URL.Path
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)

		// chi fills the pattern while routing, so read it afterwards
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		httpReqs.WithLabelValues(route, r.Method, http.StatusText(ww.status)).Inc()
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
