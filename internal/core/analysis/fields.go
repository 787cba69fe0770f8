package analysis

import (
	"regexp"
	"strings"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
)

// Extraction is the raw output of one per-type field routine, before scoring.
type Extraction struct {
	Fields          domain.FieldMap
	Statuses        map[string]domain.ValidationStatus
	Issues          []string
	Recommendations []string
}

func newExtraction() *Extraction {
	return &Extraction{
		Fields:   domain.FieldMap{},
		Statuses: map[string]domain.ValidationStatus{},
	}
}

func (e *Extraction) set(key, value string) {
	if value != "" {
		e.Fields[key] = value
	}
}

func (e *Extraction) issue(msg string) {
	e.Issues = append(e.Issues, msg)
}

type extractorFunc func(text string, out *Extraction)

type fieldRoutine struct {
	fields          []string
	extract         extractorFunc
	recommendations []string
}

var (
	gstinPattern    = regexp.MustCompile(`\d{2}[A-Z]{5}\d{4}[A-Z][1-9A-Z]Z[0-9A-Z]`)
	panPattern      = regexp.MustCompile(`[A-Z]{5}\d{4}[A-Z]`)
	aadhaarPattern  = regexp.MustCompile(`\d{4}\s\d{4}\s\d{4}`)
	ifscPattern     = regexp.MustCompile(`[A-Z]{4}0[A-Z0-9]{6}`)
	accountPattern  = regexp.MustCompile(`\b\d{9,18}\b`)
	udyamPattern    = regexp.MustCompile(`UDYAM-[A-Z]{2}-\d{2}-\d{7}`)
	emailPattern    = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern    = regexp.MustCompile(`(\+91|91)?\s*[6-9]\d{9}`)
	pincodePattern  = regexp.MustCompile(`\b\d{6}\b`)
	websitePattern  = regexp.MustCompile(`https?://[^\s]+`)
	bankNamePattern = regexp.MustCompile(`(?i)(?:\b[a-z&.]+ )?\b(?:bank|corporation|cooperative)\b(?: of [a-z]+)?`)

	legalNameLabel        = regexp.MustCompile(`(?i)legal\s*name[:\s]*[^\n\r]+`)
	registrationDateLabel = regexp.MustCompile(`(?i)registration\s*date[:\s]*\d{1,2}[-/]\d{1,2}[-/]\d{4}`)
	statusLabel           = regexp.MustCompile(`(?i)status[:\s]*[^\n\r]+`)
	nameLabel             = regexp.MustCompile(`(?i)name[:\s]*[^\n\r]+`)
	fatherNameLabel       = regexp.MustCompile(`(?i)father['\s]*s?\s*name[:\s]*[^\n\r]+`)
	dateOfBirthLabel      = regexp.MustCompile(`(?i)date\s*of\s*birth[:\s]*\d{1,2}[-/]\d{1,2}[-/]\d{4}`)
	enterpriseTypeLabel   = regexp.MustCompile(`(?i)type\s*of\s*enterprise[:\s]*[^\n\r]+`)
	aadhaarNameCandidate  = regexp.MustCompile(`(?m)(?:name[:\s]*|^)([A-Z\s]{3,50})`)
)

// labelValue returns the text between the first and second colon of the first
// match, so "Legal Name: Test Cafe Status: Active" yields "Test Cafe Status".
// A match without a colon yields "".
func labelValue(re *regexp.Regexp, text string) string {
	match := re.FindString(text)
	if match == "" {
		return ""
	}
	parts := strings.SplitN(match, ":", 3)
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

var routines = map[domain.DocumentType]fieldRoutine{
	domain.DocGSTCertificate: {
		fields:  []string{"gstin", "pan", "legalName", "registrationDate", "status"},
		extract: extractGST,
		recommendations: []string{
			"Verify GSTIN on GST portal",
			"Ensure GST filings are up to date",
			"Keep GST certificate accessible for business registrations",
		},
	},
	domain.DocPANCard: {
		fields:  []string{"pan", "name", "fatherName", "dateOfBirth"},
		extract: extractPAN,
		recommendations: []string{
			"Ensure PAN is linked to Aadhaar",
			"Use PAN for all financial transactions",
			"Keep PAN details consistent across documents",
		},
	},
	domain.DocAadhaarCard: {
		fields:  []string{"aadhaar", "name"},
		extract: extractAadhaar,
		recommendations: []string{
			"Link Aadhaar with PAN for tax compliance",
			"Use for KYC verification in banking",
			"Ensure address is current for business registration",
		},
	},
	domain.DocBankStatement: {
		fields:  []string{"ifsc", "accountNumber", "bankName"},
		extract: extractBank,
		recommendations: []string{
			"Ensure minimum balance requirements are met",
			"Keep recent statements for loan applications",
			"Verify account is active for business transactions",
		},
	},
	domain.DocMSMERegistration: {
		fields:  []string{"udyamNumber", "enterpriseType"},
		extract: extractMSME,
		recommendations: []string{
			"Renew MSME certificate before expiry",
			"Use MSME benefits for loans and subsidies",
			"Keep certificate updated with current business details",
		},
	},
}

var generalRoutine = fieldRoutine{
	fields:  []string{"email", "phone", "pincode", "website"},
	extract: extractGeneral,
	recommendations: []string{
		"Verify if this document is required for compliance",
		"Ensure document is current and valid",
		"Cross-check information with other documents",
	},
}

func routineFor(docType domain.DocumentType) fieldRoutine {
	if routine, ok := routines[docType]; ok {
		return routine
	}
	return generalRoutine
}

// FieldSet returns the field names the routine for docType may produce.
// INVOICE, BUSINESS_LICENSE and GENERAL share the general routine.
func FieldSet(docType domain.DocumentType) []string {
	fields := routineFor(docType).fields
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// ExtractFields applies the routine registered for docType. Missing required
// identifiers are reported as issues rather than errors.
func ExtractFields(text string, docType domain.DocumentType) Extraction {
	routine := routineFor(docType)
	out := newExtraction()
	routine.extract(text, out)
	out.Recommendations = append(out.Recommendations, routine.recommendations...)
	return *out
}

func extractGST(text string, out *Extraction) {
	if gstin := gstinPattern.FindString(text); gstin != "" {
		out.set("gstin", gstin)
		out.Statuses["gstin"] = ValidateGSTIN(gstin)
		out.set("pan", gstin[2:12])
	} else {
		out.issue("GSTIN not found or invalid format")
	}

	out.set("legalName", labelValue(legalNameLabel, text))
	out.set("registrationDate", labelValue(registrationDateLabel, text))

	if status := labelValue(statusLabel, text); status != "" {
		out.set("status", status)
		if strings.Contains(strings.ToLower(status), "active") {
			out.Statuses["status"] = domain.ValidationStatus{Valid: true, Message: "GST status is active"}
		} else {
			out.issue("GST registration may not be active")
		}
	}
}

func extractPAN(text string, out *Extraction) {
	if pan := panPattern.FindString(text); pan != "" {
		out.set("pan", pan)
		out.Statuses["pan"] = ValidatePAN(pan)
	} else {
		out.issue("PAN number not found")
	}
	out.set("name", labelValue(nameLabel, text))
	out.set("fatherName", labelValue(fatherNameLabel, text))
	out.set("dateOfBirth", labelValue(dateOfBirthLabel, text))
}

func extractAadhaar(text string, out *Extraction) {
	if number := aadhaarPattern.FindString(text); number != "" {
		out.set("aadhaar", number)
		out.Statuses["aadhaar"] = domain.ValidationStatus{Valid: true, Message: "Aadhaar format appears valid"}
	} else {
		out.issue("Aadhaar number not found")
	}

	for _, m := range aadhaarNameCandidate.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if len(name) <= 3 || strings.Contains(name, "GOVERNMENT") || strings.Contains(name, "INDIA") {
			continue
		}
		out.set("name", name)
		break
	}
}

func extractBank(text string, out *Extraction) {
	if ifsc := ifscPattern.FindString(text); ifsc != "" {
		out.set("ifsc", ifsc)
		out.Statuses["ifsc"] = domain.ValidationStatus{Valid: true, Message: "IFSC code found"}
	}
	out.set("accountNumber", accountPattern.FindString(text))
	out.set("bankName", strings.TrimSpace(bankNamePattern.FindString(text)))
}

func extractMSME(text string, out *Extraction) {
	if udyam := udyamPattern.FindString(text); udyam != "" {
		out.set("udyamNumber", udyam)
		out.Statuses["udyam"] = domain.ValidationStatus{Valid: true, Message: "Udyam registration number found"}
	} else {
		out.issue("Udyam registration number not found")
	}
	out.set("enterpriseType", labelValue(enterpriseTypeLabel, text))
}

func extractGeneral(text string, out *Extraction) {
	out.set("email", emailPattern.FindString(text))
	out.set("phone", strings.TrimSpace(phonePattern.FindString(text)))
	out.set("pincode", pincodePattern.FindString(text))
	out.set("website", websitePattern.FindString(text))
}
