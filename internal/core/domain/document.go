package domain

import "time"

// UploadedFile is a single file received in an upload request.
type UploadedFile struct {
	Name     string
	Size     int64
	MimeType string
	Data     []byte
}

type ExtractionMethod string

const (
	MethodImageOCR ExtractionMethod = "image-ocr"
	MethodPDFText  ExtractionMethod = "pdf-text"
	MethodPDFOCR   ExtractionMethod = "pdf-ocr"
	MethodText     ExtractionMethod = "text"
)

// ExtractionResult is created once per file and never mutated afterwards.
type ExtractionResult struct {
	Success    bool             `json:"success"`
	Text       string           `json:"text,omitempty"`
	Confidence float64          `json:"confidence"`
	PageCount  int              `json:"pages,omitempty"`
	Method     ExtractionMethod `json:"method,omitempty"`
	Error      string           `json:"error,omitempty"`
}

type DocumentType string

const (
	DocGSTCertificate   DocumentType = "GST_CERTIFICATE"
	DocPANCard          DocumentType = "PAN_CARD"
	DocAadhaarCard      DocumentType = "AADHAAR_CARD"
	DocBankStatement    DocumentType = "BANK_STATEMENT"
	DocMSMERegistration DocumentType = "MSME_REGISTRATION"
	DocInvoice          DocumentType = "INVOICE"
	DocBusinessLicense  DocumentType = "BUSINESS_LICENSE"
	DocGeneral          DocumentType = "GENERAL"
)

var documentTypeLabels = map[DocumentType]string{
	DocGSTCertificate:   "GST Certificate",
	DocPANCard:          "PAN Card",
	DocAadhaarCard:      "Aadhaar Card",
	DocBankStatement:    "Bank Statement",
	DocMSMERegistration: "MSME Registration",
	DocInvoice:          "Invoice",
	DocBusinessLicense:  "Business License",
	DocGeneral:          "General Document",
}

// Label returns the human-readable name of the document type.
func (t DocumentType) Label() string {
	if label, ok := documentTypeLabels[t]; ok {
		return label
	}
	return documentTypeLabels[DocGeneral]
}

// FieldMap maps a document-specific field name (gstin, pan, ifsc, ...) to its value.
type FieldMap map[string]string

type ValidationStatus struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

type ReportStatus string

const (
	ReportComplete   ReportStatus = "Complete"
	ReportPartial    ReportStatus = "Partial"
	ReportIncomplete ReportStatus = "Incomplete"
)

type ComplianceReport struct {
	Summary         string       `json:"summary"`
	Confidence      string       `json:"confidence"`
	Status          ReportStatus `json:"status"`
	ExtractedData   FieldMap     `json:"extractedData"`
	Issues          []string     `json:"issues"`
	Recommendations []string     `json:"recommendations"`
	NextSteps       []string     `json:"nextSteps"`
}

// DocumentAnalysis is the per-document outcome of classification, field
// extraction and scoring. Confidence is always derived by the scorer.
type DocumentAnalysis struct {
	DocumentType     DocumentType                `json:"documentType"`
	ExtractedFields  FieldMap                    `json:"extractedFields"`
	ComplianceStatus map[string]ValidationStatus `json:"complianceStatus"`
	Issues           []string                    `json:"issues"`
	Recommendations  []string                    `json:"recommendations"`
	Confidence       int                         `json:"confidence"`
	Report           *ComplianceReport           `json:"complianceReport,omitempty"`
}

// FileResult is the per-file result surfaced to API callers.
type FileResult struct {
	FileName         string            `json:"fileName"`
	FileSize         int64             `json:"fileSize"`
	MimeType         string            `json:"mimeType"`
	Success          bool              `json:"success"`
	Text             string            `json:"text,omitempty"`
	Confidence       float64           `json:"confidence,omitempty"`
	PageCount        int               `json:"pages,omitempty"`
	Method           ExtractionMethod  `json:"method,omitempty"`
	DocumentAnalysis *DocumentAnalysis `json:"documentAnalysis,omitempty"`
	Error            string            `json:"error,omitempty"`
}

type BatchResult struct {
	BatchID         string       `json:"batchId"`
	Success         bool         `json:"success"`
	Message         string       `json:"message"`
	TotalFiles      int          `json:"totalFiles"`
	SuccessfulFiles int          `json:"successfulFiles"`
	Results         []FileResult `json:"results"`
	Timestamp       time.Time    `json:"timestamp"`
}

// CombinedAnalysis aggregates the successful documents of one batch.
type CombinedAnalysis struct {
	TotalDocuments      int      `json:"totalDocuments"`
	CompleteDocuments   int      `json:"completeDocuments"`
	IncompleteDocuments int      `json:"incompleteDocuments"`
	ExtractedFields     FieldMap `json:"extractedFields"`
	AllIssues           []string `json:"allIssues"`
	AllRecommendations  []string `json:"allRecommendations"`
	ComplianceScore     int      `json:"complianceScore"`
}

// DocumentsAnalyzedEvent is published once per analyzed batch.
type DocumentsAnalyzedEvent struct {
	BatchID         string             `json:"batch_id"`
	Source          string             `json:"source"`
	TotalFiles      int                `json:"total_files"`
	SuccessfulFiles int                `json:"successful_files"`
	ComplianceScore int                `json:"compliance_score"`
	Documents       []AnalyzedDocument `json:"documents"`
	OccurredAt      time.Time          `json:"occurred_at"`
}

type AnalyzedDocument struct {
	FileName     string       `json:"file_name"`
	Success      bool         `json:"success"`
	DocumentType DocumentType `json:"document_type,omitempty"`
	Confidence   int          `json:"confidence"`
	Fields       FieldMap     `json:"fields,omitempty"`
	Issues       []string     `json:"issues,omitempty"`
	Error        string       `json:"error,omitempty"`
}
