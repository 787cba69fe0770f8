package analysis

import (
	"strings"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
)

type contentRule struct {
	docType domain.DocumentType
	match   func(lower string) bool
}

// ContainsAny reports whether lower contains any of the needles.
func ContainsAny(lower string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(lower, needle) {
			return true
		}
	}
	return false
}

// Rule order is the tie-break when several categories match.
var contentRules = []contentRule{
	{domain.DocGSTCertificate, func(s string) bool { return ContainsAny(s, "gstin", "goods and services tax") }},
	{domain.DocAadhaarCard, func(s string) bool { return ContainsAny(s, "aadhaar", "unique identification") }},
	{domain.DocMSMERegistration, func(s string) bool { return ContainsAny(s, "udyam", "msme registration") }},
	{domain.DocBankStatement, func(s string) bool { return ContainsAny(s, "ifsc", "account statement") }},
	{domain.DocPANCard, func(s string) bool {
		return strings.Contains(s, "permanent account number") && strings.Contains(s, "income tax")
	}},
	{domain.DocInvoice, func(s string) bool { return ContainsAny(s, "invoice", "bill") }},
	{domain.DocBusinessLicense, func(s string) bool { return ContainsAny(s, "license", "permit") }},
}

type filenameRule struct {
	docType  domain.DocumentType
	keywords []string
}

var filenameRules = []filenameRule{
	{domain.DocGSTCertificate, []string{"gst"}},
	{domain.DocPANCard, []string{"pan"}},
	{domain.DocAadhaarCard, []string{"aadhar", "aadhaar"}},
	{domain.DocMSMERegistration, []string{"udyam", "msme"}},
	{domain.DocBusinessLicense, []string{"license", "licence", "permit"}},
	{domain.DocBankStatement, []string{"bank", "ifsc"}},
	{domain.DocInvoice, []string{"invoice", "bill"}},
}

// Classify assigns a DocumentType from content keywords first, then from the
// filename hint, and falls back to GENERAL.
func Classify(text, filenameHint string) domain.DocumentType {
	lower := strings.ToLower(text)
	for _, rule := range contentRules {
		if rule.match(lower) {
			return rule.docType
		}
	}
	return ClassifyFilename(filenameHint)
}

// ClassifyFilename matches category keywords against the filename only.
func ClassifyFilename(filename string) domain.DocumentType {
	name := strings.ToLower(filename)
	if name == "" {
		return domain.DocGeneral
	}
	for _, rule := range filenameRules {
		if ContainsAny(name, rule.keywords...) {
			return rule.docType
		}
	}
	return domain.DocGeneral
}
