package analysis

import "github.com/kirillkom/compliance-navigator/internal/core/domain"

// Engine composes classification, field extraction and scoring. It holds no
// mutable state and is safe for concurrent use.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Analyze classifies normalized text and scores the fields found in it.
func (e *Engine) Analyze(text, filenameHint string) domain.DocumentAnalysis {
	docType := Classify(text, filenameHint)
	extraction := ExtractFields(text, docType)
	confidence, recommendations := Score(extraction.Fields, extraction.Statuses, extraction.Issues, extraction.Recommendations)

	result := domain.DocumentAnalysis{
		DocumentType:     docType,
		ExtractedFields:  extraction.Fields,
		ComplianceStatus: extraction.Statuses,
		Issues:           nonNil(extraction.Issues),
		Recommendations:  recommendations,
		Confidence:       confidence,
	}
	report := BuildReport(result)
	result.Report = &report
	return result
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
