package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	leadsRescored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_rescored_total",
			Help: "Total number of lead score recomputations stored",
		},
	)

	campaignsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campaigns_created_total",
			Help: "Total number of campaigns created",
		},
	)

	ingestRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_rows_processed_total",
			Help: "Total number of ingestion rows applied",
		},
		[]string{"upload_type"},
	)

	ingestFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_failures_total",
			Help: "Total number of failed ingestion runs",
		},
		[]string{"upload_type"},
	)

	webhookFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_failures_total",
			Help: "Total number of outbound webhook failures",
		},
		[]string{"webhook"},
	)

	inconsistencies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tolerated_inconsistencies_total",
			Help: "Tolerated partial failures that need operator attention",
		},
		[]string{"op"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}

func RecordRescore(count int) {
	leadsRescored.Add(float64(count))
}

func RecordCampaignCreated() {
	campaignsCreated.Inc()
}

func RecordIngest(uploadType string, rows int) {
	ingestRows.WithLabelValues(uploadType).Add(float64(rows))
}

func RecordIngestFailure(uploadType string) {
	ingestFailures.WithLabelValues(uploadType).Inc()
}

func RecordWebhookFailure(webhook string) {
	webhookFailures.WithLabelValues(webhook).Inc()
}

func RecordInconsistency(op string) {
	inconsistencies.WithLabelValues(op).Inc()
}
