package analysis

import (
	"fmt"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
)

var nextSteps = map[domain.DocumentType][]string{
	domain.DocGSTCertificate:   {"Verify GST status online", "Prepare for GST filings", "Link with other business documents"},
	domain.DocPANCard:          {"Link PAN with Aadhaar", "File income tax returns", "Use for business registration"},
	domain.DocAadhaarCard:      {"Update address if needed", "Link with bank account", "Use for KYC verification"},
	domain.DocBankStatement:    {"Maintain minimum balance", "Keep statements updated", "Use for loan applications"},
	domain.DocMSMERegistration: {"Apply for MSME benefits", "Register for government schemes", "Use for business loans"},
}

// NextSteps returns the follow-up actions for a document type. Types without
// a dedicated checklist return an empty slice.
func NextSteps(docType domain.DocumentType) []string {
	steps := nextSteps[docType]
	out := make([]string, len(steps))
	copy(out, steps)
	return out
}

// ReportStatusFor maps a confidence onto the report status, using the same
// bands as the summary label.
func ReportStatusFor(confidence int) domain.ReportStatus {
	switch {
	case confidence >= CompleteBand:
		return domain.ReportComplete
	case confidence >= PartialBand:
		return domain.ReportPartial
	default:
		return domain.ReportIncomplete
	}
}

// BuildReport summarizes an analysis for display.
func BuildReport(a domain.DocumentAnalysis) domain.ComplianceReport {
	return domain.ComplianceReport{
		Summary:         fmt.Sprintf("%s Analysis", a.DocumentType.Label()),
		Confidence:      fmt.Sprintf("%d%%", a.Confidence),
		Status:          ReportStatusFor(a.Confidence),
		ExtractedData:   a.ExtractedFields,
		Issues:          a.Issues,
		Recommendations: a.Recommendations,
		NextSteps:       NextSteps(a.DocumentType),
	}
}
