package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
)

const namespace = "compliance"

// HTTPServerMetrics covers the API process: HTTP traffic plus the document
// and routing pipeline it drives. It implements ports.PipelineObserver.
type HTTPServerMetrics struct {
	service  string
	registry *prometheus.Registry

	requestTotal     *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestInFlight  prometheus.Gauge
	rateLimitedTotal *prometheus.CounterVec
	breakerState     *prometheus.GaugeVec

	extractionTotal    *prometheus.CounterVec
	extractionDuration *prometheus.HistogramVec
	documentConfidence *prometheus.HistogramVec
	intentTotal        *prometheus.CounterVec
	responseTotal      *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	rateLimitedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter or the concurrency gate.",
		},
		[]string{"service", "reason"},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "breaker_state",
			Help:      "Circuit breaker state per operation: 0 closed, 1 half-open, 2 open.",
		},
		[]string{"service", "operation"},
	)
	extractionTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "files_total",
			Help:      "Extracted files by method and outcome.",
		},
		[]string{"service", "method", "status"},
	)
	extractionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "duration_seconds",
			Help:      "Per-file extraction duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"service", "method"},
	)
	documentConfidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "document_confidence",
			Help:      "Distribution of document confidence scores by document type.",
			Buckets:   []float64{0, 20, 40, 60, 70, 80, 90, 100},
		},
		[]string{"service", "document_type"},
	)
	intentTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "intents_total",
			Help:      "Classified intents by label and classifier path.",
		},
		[]string{"service", "intent", "source"},
	)
	responseTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "responses_total",
			Help:      "Router responses by type and whether a static answer replaced the model.",
		},
		[]string{"service", "type", "degraded"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		rateLimitedTotal,
		breakerState,
		extractionTotal,
		extractionDuration,
		documentConfidence,
		intentTotal,
		responseTotal,
	)

	return &HTTPServerMetrics{
		service:            service,
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		rateLimitedTotal:   rateLimitedTotal,
		breakerState:       breakerState,
		extractionTotal:    extractionTotal,
		extractionDuration: extractionDuration,
		documentConfidence: documentConfidence,
		intentTotal:        intentTotal,
		responseTotal:      responseTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

var knownPaths = map[string]bool{
	"/healthz":                      true,
	"/metrics":                      true,
	"/v1/chat":                      true,
	"/v1/model/status":              true,
	"/v1/documents/supported-types": true,
	"/v1/documents/upload":          true,
	"/v1/documents/chat-upload":     true,
	"/v1/documents/report":          true,
}

// normalizePath keeps label cardinality bounded for unknown paths.
func normalizePath(path string) string {
	if knownPaths[path] {
		return path
	}
	return "other"
}

func (m *HTTPServerMetrics) RecordRateLimited(reason string) {
	m.rateLimitedTotal.WithLabelValues(m.service, reason).Inc()
}

func (m *HTTPServerMetrics) SetBreakerState(operation string, state int) {
	m.breakerState.WithLabelValues(m.service, operation).Set(float64(state))
}

func (m *HTTPServerMetrics) ObserveExtraction(method domain.ExtractionMethod, success bool, elapsed time.Duration) {
	label := string(method)
	if label == "" {
		label = "none"
	}
	status := "success"
	if !success {
		status = "error"
	}
	m.extractionTotal.WithLabelValues(m.service, label, status).Inc()
	m.extractionDuration.WithLabelValues(m.service, label).Observe(elapsed.Seconds())
}

func (m *HTTPServerMetrics) ObserveDocument(docType domain.DocumentType, confidence int) {
	m.documentConfidence.WithLabelValues(m.service, string(docType)).Observe(float64(confidence))
}

func (m *HTTPServerMetrics) ObserveIntent(intent domain.Intent, source string) {
	m.intentTotal.WithLabelValues(m.service, string(intent), source).Inc()
}

func (m *HTTPServerMetrics) ObserveResponse(responseType domain.ResponseType, degraded bool) {
	m.responseTotal.WithLabelValues(m.service, string(responseType), strconv.FormatBool(degraded)).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
