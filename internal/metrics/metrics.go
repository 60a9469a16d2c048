// Package metrics exposes Prometheus collectors for the ingestion pipeline.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchAttemptsTotal      *prometheus.CounterVec
	fetchRetriesTotal       prometheus.Counter
	fetchDurationSeconds    *prometheus.HistogramVec
	unitsTotal              *prometheus.CounterVec
	recordsTotal            *prometheus.CounterVec
	resolverMatchesTotal    *prometheus.CounterVec
	sinkWritesTotal         *prometheus.CounterVec
	rateLimitDelaysSeconds  *prometheus.HistogramVec
	httpRequestsTotal       *prometheus.CounterVec
	httpRequestDurationSecs *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "senado_fetch_attempts_total",
				Help: "Fetch attempts against the source, labeled by site and outcome.",
			},
			[]string{"site", "outcome"},
		)

		fetchRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "senado_fetch_retries_total",
				Help: "Fetch attempts that were retries of a transient failure.",
			},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "senado_fetch_duration_seconds",
				Help:    "Duration of logical fetches including retries, labeled by outcome.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"outcome"},
		)

		unitsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "senado_units_total",
				Help: "Fan-out units completed, labeled by level and status.",
			},
			[]string{"level", "status"},
		)

		recordsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "senado_records_total",
				Help: "Parsed records, labeled by kind and outcome (parsed or skipped).",
			},
			[]string{"kind", "outcome"},
		)

		resolverMatchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "senado_resolver_matches_total",
				Help: "Name resolutions, labeled by the strategy that matched.",
			},
			[]string{"strategy"},
		)

		sinkWritesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "senado_sink_writes_total",
				Help: "Graph upserts, labeled by element kind (node or edge) and label.",
			},
			[]string{"kind", "label"},
		)

		rateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "senado_rate_limit_delays_seconds",
				Help:    "Histogram of rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"domain"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "senado_admin_http_requests_total",
				Help: "Admin HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSecs = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "senado_admin_http_request_duration_seconds",
				Help:    "Histogram of admin HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite extracts a lowercase hostname from a URL.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetchAttempt records one network attempt.
func ObserveFetchAttempt(rawURL, outcome string, retry bool) {
	Init()
	fetchAttemptsTotal.WithLabelValues(SanitizeSite(rawURL), outcome).Inc()
	if retry {
		fetchRetriesTotal.Inc()
	}
}

// ObserveFetch records the duration of a logical fetch.
func ObserveFetch(outcome string, duration time.Duration) {
	Init()
	fetchDurationSeconds.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObserveUnit counts one completed fan-out unit.
func ObserveUnit(level, status string) {
	Init()
	unitsTotal.WithLabelValues(level, status).Inc()
}

// ObserveRecords counts parsed or skipped records of a kind.
func ObserveRecords(kind, outcome string, n int) {
	if n <= 0 {
		return
	}
	Init()
	recordsTotal.WithLabelValues(kind, outcome).Add(float64(n))
}

// ObserveResolution counts one name resolution by strategy.
func ObserveResolution(strategy string) {
	Init()
	resolverMatchesTotal.WithLabelValues(strategy).Inc()
}

// ObserveSinkWrite counts graph upserts.
func ObserveSinkWrite(kind, label string, n int) {
	if n <= 0 {
		return
	}
	Init()
	sinkWritesTotal.WithLabelValues(kind, label).Add(float64(n))
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	Init()
	rateLimitDelaysSeconds.WithLabelValues(domain).Observe(duration.Seconds())
}

// Middleware is a chi middleware that records admin HTTP request metrics.
func Middleware(next http.Handler) http.Handler {
	Init()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(ww, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		httpRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(ww.statusCode)).Inc()
		httpRequestDurationSecs.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.statusCode = code
	rec.ResponseWriter.WriteHeader(code)
}
