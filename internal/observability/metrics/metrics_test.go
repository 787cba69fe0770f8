package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	res := httptest.NewRecorder()
	h.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}

func TestHTTPServerMetricsRecordsPipeline(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	m.ObserveExtraction(domain.MethodPDFOCR, true, 150*time.Millisecond)
	m.ObserveExtraction("", false, time.Millisecond)
	m.ObserveDocument(domain.DocGSTCertificate, 95)
	m.ObserveIntent(domain.IntentCompliance, "fallback")
	m.ObserveResponse(domain.ResponseCompliance, true)
	m.RecordRateLimited("rate")
	m.SetBreakerState("ollama.generate", 2)

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/documents/upload", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/random/123", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/documents/unknown-1", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/documents/unknown-2", nil))

	body := scrape(t, m.Handler())
	if strings.Contains(body, "unknown-1") {
		t.Fatalf("unknown paths must not become label values")
	}
	for _, want := range []string{
		`compliance_extraction_files_total{method="pdf-ocr",service="api",status="success"} 1`,
		`compliance_extraction_files_total{method="none",service="api",status="error"} 1`,
		`compliance_analysis_document_confidence_count{document_type="GST_CERTIFICATE",service="api"} 1`,
		`compliance_router_intents_total{intent="COMPLIANCE",service="api",source="fallback"} 1`,
		`compliance_router_responses_total{degraded="true",service="api",type="compliance"} 1`,
		`compliance_http_rate_limited_total{reason="rate",service="api"} 1`,
		`compliance_resilience_breaker_state{operation="ollama.generate",service="api"} 2`,
		`compliance_http_requests_total{method="POST",path="/v1/documents/upload",service="api",status="202"} 1`,
		`compliance_http_requests_total{method="GET",path="other",service="api",status="202"} 3`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestWorkerMetricsRecordsEvents(t *testing.T) {
	m := NewWorkerMetrics("worker")
	m.StartEvent()
	m.FinishEvent("worker", 20*time.Millisecond, nil)
	m.ObserveEventLag("worker", -time.Second)
	m.RecordInboxFile("worker", false)

	body := scrape(t, m.Handler())
	if !strings.Contains(body, `compliance_worker_event_process_total{service="worker",status="success"} 1`) {
		t.Fatalf("missing event counter:\n%s", body)
	}
	if !strings.Contains(body, `compliance_worker_inbox_files_total{service="worker",status="error"} 1`) {
		t.Fatalf("missing inbox counter:\n%s", body)
	}
	if strings.Contains(body, "compliance_worker_event_lag_seconds_count") {
		t.Fatalf("negative lag must not be observed")
	}
	if !strings.Contains(body, `compliance_worker_event_process_in_flight{service="worker"} 0`) {
		t.Fatalf("in-flight gauge not balanced:\n%s", body)
	}
}
