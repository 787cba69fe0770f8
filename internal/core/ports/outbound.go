package ports

import (
	"context"
	"time"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
)

// OCRText is recognized text with the engine's mean word confidence (0-100).
type OCRText struct {
	Text       string
	Confidence float64
	Pages      int
}

// OCREngine recognizes text in raster images and scanned PDFs.
type OCREngine interface {
	RecognizeImage(ctx context.Context, data []byte) (OCRText, error)
	RecognizePDF(ctx context.Context, data []byte) (OCRText, error)
}

type PDFText struct {
	Text  string
	Pages int
}

// PDFTextExtractor reads the embedded text layer of a PDF.
type PDFTextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (PDFText, error)
}

type GenerationRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// TextGenerator is the hosted language model.
type TextGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// LanguageService detects and translates the user's language. Translation
// failures fall back to the input text.
type LanguageService interface {
	Detect(text string) string
	Translate(ctx context.Context, text, from, to string) string
	Greeting(lang string) string
	WelcomeMessage(lang string) string
	Name(lang string) string
}

// HealthChecker reports whether an external dependency answers.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// ExtractionCache stores successful extraction results by content key.
type ExtractionCache interface {
	Get(ctx context.Context, key string) (domain.ExtractionResult, bool, error)
	Set(ctx context.Context, key string, result domain.ExtractionResult) error
}

type EventPublisher interface {
	PublishDocumentsAnalyzed(ctx context.Context, event domain.DocumentsAnalyzedEvent) error
}

type EventSubscriber interface {
	SubscribeDocumentsAnalyzed(ctx context.Context, handler func(context.Context, domain.DocumentsAnalyzedEvent) error) error
}

// AnalysisRepository persists analyzed batches for audit.
type AnalysisRepository interface {
	SaveBatch(ctx context.Context, event domain.DocumentsAnalyzedEvent) error
}

// ComplianceReportRenderer renders a batch into a downloadable report.
type ComplianceReportRenderer interface {
	Render(batch domain.BatchResult, combined domain.CombinedAnalysis) ([]byte, error)
	ContentType() string
	FileName() string
}

// PipelineObserver receives pipeline measurements. Implementations must be
// safe for concurrent use.
type PipelineObserver interface {
	ObserveExtraction(method domain.ExtractionMethod, success bool, elapsed time.Duration)
	ObserveDocument(docType domain.DocumentType, confidence int)
	ObserveIntent(intent domain.Intent, source string)
	ObserveResponse(responseType domain.ResponseType, degraded bool)
}
