package nats

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
	"github.com/nats-io/nats.go"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleMessageDecodesEvent(t *testing.T) {
	event := domain.DocumentsAnalyzedEvent{
		BatchID:         "batch-1",
		Source:          "upload",
		TotalFiles:      2,
		SuccessfulFiles: 1,
		ComplianceScore: 75,
		OccurredAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Documents: []domain.AnalyzedDocument{
			{FileName: "gst.txt", Success: true, DocumentType: domain.DocGSTCertificate, Confidence: 75},
			{FileName: "bad.docx", Error: "unsupported file type"},
		},
	}
	payload, err := encodeEvent(event)
	if err != nil {
		t.Fatalf("encodeEvent() error = %v", err)
	}

	var got domain.DocumentsAnalyzedEvent
	handleMessage(context.Background(), discardLogger(), payload, func(_ context.Context, e domain.DocumentsAnalyzedEvent) error {
		got = e
		return nil
	})
	if got.BatchID != "batch-1" || len(got.Documents) != 2 || got.Documents[0].DocumentType != domain.DocGSTCertificate {
		t.Fatalf("unexpected decoded event: %+v", got)
	}
}

func TestHandleMessageSkipsInvalidPayload(t *testing.T) {
	called := false
	handler := func(context.Context, domain.DocumentsAnalyzedEvent) error {
		called = true
		return nil
	}
	handleMessage(context.Background(), discardLogger(), []byte("not json"), handler)
	handleMessage(context.Background(), discardLogger(), []byte(`{"source":"upload"}`), handler)
	if called {
		t.Fatalf("handler must not run for invalid payloads")
	}
}

func TestHandleMessageSkipsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	handleMessage(ctx, discardLogger(), []byte(`{"batch_id":"b"}`), func(context.Context, domain.DocumentsAnalyzedEvent) error {
		t.Fatalf("handler must not run after shutdown")
		return nil
	})
}

func TestClassifyNATSError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		retryable     bool
		recordFailure bool
		temporary     bool
	}{
		{name: "no servers", err: nats.ErrNoServers, retryable: true, recordFailure: true, temporary: true},
		{name: "timeout", err: nats.ErrTimeout, retryable: true, recordFailure: true, temporary: true},
		{name: "connection closed", err: nats.ErrConnectionClosed, retryable: true, recordFailure: true, temporary: true},
		{name: "reconnecting", err: nats.ErrConnectionReconnecting, retryable: true, recordFailure: true, temporary: true},
		{name: "disconnected", err: nats.ErrDisconnected, retryable: true, recordFailure: true, temporary: true},
		{name: "wrapped timeout", err: fmt.Errorf("nats publish: %w", nats.ErrTimeout), retryable: true, recordFailure: true, temporary: true},
		{name: "max payload", err: nats.ErrMaxPayload},
		{name: "invalid event", err: domain.WrapError(domain.ErrInvalidInput, "encode", errors.New("bad"))},
		{name: "cancelled", err: context.Canceled},
		{name: "unknown", err: errors.New("bad subject"), recordFailure: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class := classifyNATSError(tt.err)
			if class.Retryable != tt.retryable || class.RecordFailure != tt.recordFailure {
				t.Fatalf("classifyNATSError(%v) = %+v, want retryable=%v record=%v", tt.err, class, tt.retryable, tt.recordFailure)
			}
			if got := domain.IsKind(wrapTemporaryIfNeeded(tt.err), domain.ErrTemporary); got != tt.temporary {
				t.Fatalf("wrapTemporaryIfNeeded(%v) temporary=%v, want %v", tt.err, got, tt.temporary)
			}
		})
	}

	if wrapTemporaryIfNeeded(nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}
