package analysis

import (
	"regexp"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
)

var (
	gstinFormat = regexp.MustCompile(`^\d{2}[A-Z]{5}\d{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)
	panFormat   = regexp.MustCompile(`^[A-Z]{5}\d{4}[A-Z]$`)
)

// ValidateGSTIN checks the canonical full-string GSTIN format. In-text
// detection is looser, so an extracted value may still be invalid.
func ValidateGSTIN(gstin string) domain.ValidationStatus {
	if !gstinFormat.MatchString(gstin) {
		return domain.ValidationStatus{Valid: false, Message: "Invalid GSTIN format"}
	}
	return domain.ValidationStatus{Valid: true, Message: "GSTIN format is valid"}
}

// ValidatePAN checks the canonical full-string PAN format.
func ValidatePAN(pan string) domain.ValidationStatus {
	if !panFormat.MatchString(pan) {
		return domain.ValidationStatus{Valid: false, Message: "Invalid PAN format"}
	}
	return domain.ValidationStatus{Valid: true, Message: "PAN format is valid"}
}
