package pdftext

import (
	"context"
	"testing"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
)

func TestExtractTextRejectsNonPDF(t *testing.T) {
	_, err := New(nil).ExtractText(context.Background(), []byte("definitely not a pdf"))
	if !domain.IsKind(err, domain.ErrExtractionFailed) {
		t.Fatalf("expected extraction failed, got %v", err)
	}
}

func TestExtractTextRejectsEmptyInput(t *testing.T) {
	_, err := New(nil).ExtractText(context.Background(), nil)
	if !domain.IsKind(err, domain.ErrExtractionFailed) {
		t.Fatalf("expected extraction failed, got %v", err)
	}
}
