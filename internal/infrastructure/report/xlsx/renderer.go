package xlsx

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
)

const (
	summarySheet   = "Summary"
	documentsSheet = "Documents"
	fieldsSheet    = "Fields"
)

// Renderer produces the downloadable compliance workbook for one batch.
type Renderer struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{logger: logger}
}

func (r *Renderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (r *Renderer) FileName() string {
	return "compliance-report.xlsx"
}

func (r *Renderer) Render(batch domain.BatchResult, combined domain.CombinedAnalysis) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	// The default workbook ships with "Sheet1"; rename it instead of adding.
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{documentsSheet, fieldsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	writeSummary(f, batch, combined)
	writeDocuments(f, batch.Results)
	writeFields(f, combined.ExtractedFields)

	idx, _ := f.GetSheetIndex(summarySheet)
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	r.logger.Info("report.xlsx.ok",
		"batch_id", batch.BatchID,
		"documents", len(batch.Results),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func writeSummary(f *excelize.File, batch domain.BatchResult, combined domain.CombinedAnalysis) {
	rows := [][]any{
		{"Batch", batch.BatchID},
		{"Generated", batch.Timestamp.UTC().Format(time.RFC3339)},
		{"Total files", batch.TotalFiles},
		{"Successful files", batch.SuccessfulFiles},
		{"Documents analyzed", combined.TotalDocuments},
		{"Complete documents", combined.CompleteDocuments},
		{"Incomplete documents", combined.IncompleteDocuments},
		{"Compliance score", combined.ComplianceScore},
		{},
		{"Issues"},
	}
	for _, issue := range combined.AllIssues {
		rows = append(rows, []any{"", issue})
	}
	rows = append(rows, []any{}, []any{"Recommendations"})
	for _, rec := range combined.AllRecommendations {
		rows = append(rows, []any{"", rec})
	}
	for i, values := range rows {
		setRow(f, summarySheet, i+1, values...)
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 24)
	_ = f.SetColWidth(summarySheet, "B", "B", 72)
}

func writeDocuments(f *excelize.File, results []domain.FileResult) {
	setRow(f, documentsSheet, 1, "File", "Type", "Method", "Confidence", "Status", "Issues", "Next steps", "Error")
	for i, res := range results {
		var docType, status, issues, steps string
		confidence := 0
		if a := res.DocumentAnalysis; a != nil {
			docType = a.DocumentType.Label()
			confidence = a.Confidence
			issues = strings.Join(a.Issues, "; ")
			if a.Report != nil {
				status = string(a.Report.Status)
				steps = strings.Join(a.Report.NextSteps, "; ")
			}
		}
		setRow(f, documentsSheet, i+2, res.FileName, docType, string(res.Method), confidence, status, issues, steps, res.Error)
	}
	_ = f.SetColWidth(documentsSheet, "A", "A", 32)
	_ = f.SetColWidth(documentsSheet, "B", "C", 18)
	_ = f.SetColWidth(documentsSheet, "D", "E", 12)
	_ = f.SetColWidth(documentsSheet, "F", "H", 48)
}

func writeFields(f *excelize.File, fields domain.FieldMap) {
	setRow(f, fieldsSheet, 1, "Field", "Value")
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		setRow(f, fieldsSheet, i+2, k, fields[k])
	}
	_ = f.SetColWidth(fieldsSheet, "A", "A", 22)
	_ = f.SetColWidth(fieldsSheet, "B", "B", 48)
}
