package xlsx

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
)

func TestRenderWritesSummaryDocumentsAndFields(t *testing.T) {
	batch := domain.BatchResult{
		BatchID:         "batch-7",
		Success:         true,
		TotalFiles:      2,
		SuccessfulFiles: 1,
		Timestamp:       time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC),
		Results: []domain.FileResult{
			{
				FileName: "gst.txt",
				Success:  true,
				Method:   domain.MethodText,
				DocumentAnalysis: &domain.DocumentAnalysis{
					DocumentType: domain.DocGSTCertificate,
					Confidence:   100,
					Report:       &domain.ComplianceReport{Status: domain.ReportComplete, NextSteps: []string{"Verify GST status online"}},
				},
			},
			{FileName: "notes.docx", Error: "unsupported file type: application/msword"},
		},
	}
	combined := domain.CombinedAnalysis{
		TotalDocuments:     1,
		CompleteDocuments:  1,
		ComplianceScore:    100,
		ExtractedFields:    domain.FieldMap{"pan": "ABCDE1234F", "gstin": "29ABCDE1234F1Z5"},
		AllRecommendations: []string{"Verify GSTIN on GST portal"},
	}

	data, err := New(nil).Render(batch, combined)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	checks := []struct {
		sheet, cell, want string
	}{
		{summarySheet, "B1", "batch-7"},
		{summarySheet, "A8", "Compliance score"},
		{summarySheet, "B8", "100"},
		{documentsSheet, "B2", "GST Certificate"},
		{documentsSheet, "E2", "Complete"},
		{documentsSheet, "H3", "unsupported file type: application/msword"},
		{fieldsSheet, "A2", "gstin"},
		{fieldsSheet, "B3", "ABCDE1234F"},
	}
	for _, c := range checks {
		got, err := f.GetCellValue(c.sheet, c.cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s!%s) error = %v", c.sheet, c.cell, err)
		}
		if got != c.want {
			t.Fatalf("%s!%s = %q, want %q", c.sheet, c.cell, got, c.want)
		}
	}
}
