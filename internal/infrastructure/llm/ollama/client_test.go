package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
	"github.com/kirillkom/compliance-navigator/internal/core/ports"
	"github.com/kirillkom/compliance-navigator/internal/infrastructure/resilience"
)

func TestGenerateSendsSystemAndSamplingOptions(t *testing.T) {
	var captured generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"response":"  COMPLIANCE \n"}`))
	}))
	defer server.Close()

	client := New(server.URL, "llama3.2", time.Second, nil, nil)
	got, err := client.Generate(context.Background(), ports.GenerationRequest{
		System:      "Extract intent",
		Prompt:      `Message: "hi".`,
		Temperature: 0.2,
		MaxTokens:   300,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "COMPLIANCE" {
		t.Fatalf("expected trimmed response, got %q", got)
	}
	if captured.Model != "llama3.2" || captured.System != "Extract intent" || captured.Stream {
		t.Fatalf("unexpected request: %+v", captured)
	}
	if captured.Options.Temperature != 0.2 || captured.Options.NumPredict != 300 {
		t.Fatalf("unexpected options: %+v", captured.Options)
	}
}

func TestGenerateWrapsHTTPErrorsAsModelUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL, "gen", time.Second, nil, nil)
	_, err := client.Generate(context.Background(), ports.GenerationRequest{Prompt: "hello"})
	if !domain.IsKind(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected model unavailable, got %v", err)
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("404 must not be temporary: %v", err)
	}
	if !strings.Contains(err.Error(), "model not found") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestGenerateRetriesServiceUnavailable(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "loading model", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"response":"ok"}`))
	}))
	defer server.Close()

	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     1,
	})
	client := New(server.URL, "gen", time.Second, exec, nil)
	got, err := client.Generate(context.Background(), ports.GenerationRequest{Prompt: "hello"})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if got != "ok" || calls.Load() != 2 {
		t.Fatalf("unexpected result %q after %d calls", got, calls.Load())
	}
}

func TestGenerateEmptyResponseIsUnparseable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"   "}`))
	}))
	defer server.Close()

	client := New(server.URL, "gen", time.Second, nil, nil)
	_, err := client.Generate(context.Background(), ports.GenerationRequest{Prompt: "hello"})
	if !domain.IsKind(err, domain.ErrModelResponseUnparseable) {
		t.Fatalf("expected unparseable response error, got %v", err)
	}
}

func TestPingChecksModelIsListed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3.2:latest"}]}`))
	}))
	defer server.Close()

	if err := New(server.URL, "llama3.2", time.Second, nil, nil).Ping(context.Background()); err != nil {
		t.Fatalf("expected ping to succeed, got %v", err)
	}
	err := New(server.URL, "mistral", time.Second, nil, nil).Ping(context.Background())
	if !domain.IsKind(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected model unavailable, got %v", err)
	}
}
