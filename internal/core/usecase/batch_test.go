package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
)

func analyzed(confidence int, fields domain.FieldMap, issues ...string) domain.FileResult {
	return domain.FileResult{
		Success: true,
		DocumentAnalysis: &domain.DocumentAnalysis{
			ExtractedFields: fields,
			Issues:          issues,
			Recommendations: []string{"rec"},
			Confidence:      confidence,
		},
	}
}

func TestAggregateWithoutSuccessfulResults(t *testing.T) {
	combined := Aggregate([]domain.FileResult{{FileName: "bad.docx", Error: "unsupported"}})
	if combined.ComplianceScore != 0 || combined.TotalDocuments != 0 {
		t.Fatalf("unexpected aggregate %+v", combined)
	}
	if combined.CompleteDocuments != 0 || combined.IncompleteDocuments != 0 {
		t.Fatalf("unexpected counts %+v", combined)
	}
	if combined.ExtractedFields == nil || combined.AllIssues == nil || combined.AllRecommendations == nil {
		t.Fatalf("collections must be non-nil")
	}
}

func TestAggregateMeanAndCompleteThreshold(t *testing.T) {
	combined := Aggregate([]domain.FileResult{
		analyzed(90, domain.FieldMap{"pan": "ABCDE1234F"}),
		{FileName: "broken.pdf", Error: "extraction failed"},
		analyzed(50, domain.FieldMap{"email": "a@b.in"}, "PAN not found"),
	})
	if combined.ComplianceScore != 70 {
		t.Fatalf("expected score 70, got %d", combined.ComplianceScore)
	}
	if combined.TotalDocuments != 2 || combined.CompleteDocuments != 1 || combined.IncompleteDocuments != 1 {
		t.Fatalf("unexpected counts %+v", combined)
	}
	if len(combined.AllIssues) != 1 || len(combined.AllRecommendations) != 2 {
		t.Fatalf("unexpected issues/recommendations %+v", combined)
	}
}

func TestAggregateRoundsHalfUpAndLaterFieldsWin(t *testing.T) {
	combined := Aggregate([]domain.FileResult{
		analyzed(70, domain.FieldMap{"pan": "AAAAA1111A", "name": "First"}),
		analyzed(71, domain.FieldMap{"pan": "BBBBB2222B"}),
	})
	if combined.ComplianceScore != 71 {
		t.Fatalf("expected 70.5 to round to 71, got %d", combined.ComplianceScore)
	}
	if combined.CompleteDocuments != 2 {
		t.Fatalf("70 must count as complete, got %d", combined.CompleteDocuments)
	}
	if combined.ExtractedFields["pan"] != "BBBBB2222B" || combined.ExtractedFields["name"] != "First" {
		t.Fatalf("unexpected merge %+v", combined.ExtractedFields)
	}
}

type slowExtractor struct {
	mu     sync.Mutex
	delays map[string]time.Duration
}

func (s *slowExtractor) Extract(_ context.Context, file domain.UploadedFile) domain.ExtractionResult {
	s.mu.Lock()
	delay := s.delays[file.Name]
	s.mu.Unlock()
	time.Sleep(delay)
	if strings.HasSuffix(file.Name, ".docx") {
		return domain.ExtractionResult{Success: false, Error: "unsupported file type"}
	}
	return domain.ExtractionResult{Success: true, Text: string(file.Data), Confidence: 100, Method: domain.MethodText}
}

func TestAnalyzeFilesKeepsInputOrderAndPublishes(t *testing.T) {
	extractor := &slowExtractor{delays: map[string]time.Duration{
		"gst.txt":  30 * time.Millisecond,
		"bad.docx": 0,
		"pan.txt":  10 * time.Millisecond,
	}}
	publisher := &publisherFake{}
	fixed := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	analyzer := NewBatchAnalyzer(extractor, nil, WithEventPublisher(publisher), WithConcurrency(3))
	analyzer.now = func() time.Time { return fixed }

	files := []domain.UploadedFile{
		{Name: "gst.txt", Data: []byte("GSTIN: 29ABCDE1234F1Z5 Legal Name: Acme Traders Status: Active")},
		{Name: "bad.docx", Data: []byte("x")},
		{Name: "pan.txt", Data: []byte("Income Tax Department Permanent Account Number ABCDE1234F")},
	}
	batch := analyzer.AnalyzeFiles(context.Background(), "upload", files)

	if batch.TotalFiles != 3 || batch.SuccessfulFiles != 2 || !batch.Success {
		t.Fatalf("unexpected batch %+v", batch)
	}
	if batch.Message != "Processed 2/3 files successfully" {
		t.Fatalf("unexpected message %q", batch.Message)
	}
	for i, want := range []string{"gst.txt", "bad.docx", "pan.txt"} {
		if batch.Results[i].FileName != want {
			t.Fatalf("result %d = %q, want %q", i, batch.Results[i].FileName, want)
		}
	}
	if batch.Results[0].DocumentAnalysis == nil || batch.Results[0].DocumentAnalysis.DocumentType != domain.DocGSTCertificate {
		t.Fatalf("gst file not analyzed: %+v", batch.Results[0])
	}
	if batch.Results[1].DocumentAnalysis != nil || batch.Results[1].FileSize != 1 {
		t.Fatalf("failed file must carry no analysis: %+v", batch.Results[1])
	}
	if batch.Results[2].DocumentAnalysis.DocumentType != domain.DocPANCard {
		t.Fatalf("pan file misclassified: %s", batch.Results[2].DocumentAnalysis.DocumentType)
	}

	if len(publisher.events) != 1 {
		t.Fatalf("expected one event, got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if event.BatchID != batch.BatchID || event.Source != "upload" || !event.OccurredAt.Equal(fixed) {
		t.Fatalf("unexpected event header %+v", event)
	}
	if len(event.Documents) != 3 || event.Documents[1].Success {
		t.Fatalf("unexpected event documents %+v", event.Documents)
	}
	if event.ComplianceScore != Aggregate(batch.Results).ComplianceScore {
		t.Fatalf("event score %d does not match aggregate", event.ComplianceScore)
	}
}

func TestAnalyzeFilesIgnoresPublishFailure(t *testing.T) {
	analyzer := NewBatchAnalyzer(&slowExtractor{}, nil, WithEventPublisher(&publisherFake{err: errors.New("nats down")}))

	batch := analyzer.AnalyzeFiles(context.Background(), "upload", []domain.UploadedFile{{Name: "a.txt", Data: []byte("hello world")}})
	if !batch.Success || batch.SuccessfulFiles != 1 {
		t.Fatalf("publish failure must not fail the batch: %+v", batch)
	}
}

func TestAnalyzeFilesAllFailed(t *testing.T) {
	analyzer := NewBatchAnalyzer(&slowExtractor{}, nil)

	batch := analyzer.AnalyzeFiles(context.Background(), "upload", []domain.UploadedFile{{Name: "a.docx"}})
	if batch.Success || batch.SuccessfulFiles != 0 {
		t.Fatalf("unexpected batch %+v", batch)
	}
}
