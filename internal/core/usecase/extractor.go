package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kirillkom/compliance-navigator/internal/core/analysis"
	"github.com/kirillkom/compliance-navigator/internal/core/domain"
	"github.com/kirillkom/compliance-navigator/internal/core/ports"
)

// MinPDFTextLength is the shortest trimmed text-layer output accepted before
// a PDF is rasterized and OCR'd instead.
const MinPDFTextLength = 10

const defaultFileTimeout = 60 * time.Second

type fileCategory int

const (
	categoryUnsupported fileCategory = iota
	categoryImage
	categoryPDF
	categoryText
)

var extensionCategories = map[string]fileCategory{
	".jpg":  categoryImage,
	".jpeg": categoryImage,
	".png":  categoryImage,
	".gif":  categoryImage,
	".bmp":  categoryImage,
	".webp": categoryImage,
	".pdf":  categoryPDF,
	".txt":  categoryText,
}

// Used only when the filename carries no extension.
var mimeExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/jpg":       ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/bmp":       ".bmp",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
	"text/plain":      ".txt",
}

// SupportedExtensions lists the extensions Extract accepts.
func SupportedExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".pdf", ".txt"}
}

// Extractor turns one uploaded file into normalized text.
type Extractor struct {
	ocr      ports.OCREngine
	pdf      ports.PDFTextExtractor
	cache    ports.ExtractionCache
	timeout  time.Duration
	observer ports.PipelineObserver
	logger   *slog.Logger
	flight   singleflight.Group
}

type ExtractorOption func(*Extractor)

func WithExtractionCache(cache ports.ExtractionCache) ExtractorOption {
	return func(e *Extractor) {
		e.cache = cache
	}
}

// WithFileTimeout caps the time spent on a single file.
func WithFileTimeout(timeout time.Duration) ExtractorOption {
	return func(e *Extractor) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

func WithExtractorObserver(observer ports.PipelineObserver) ExtractorOption {
	return func(e *Extractor) {
		if observer != nil {
			e.observer = observer
		}
	}
}

func WithExtractorLogger(logger *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewExtractor(ocr ports.OCREngine, pdf ports.PDFTextExtractor, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		ocr:      ocr,
		pdf:      pdf,
		timeout:  defaultFileTimeout,
		observer: noopObserver{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract never returns an error: failures come back with Success=false so
// that one bad file cannot abort its batch.
func (e *Extractor) Extract(ctx context.Context, file domain.UploadedFile) domain.ExtractionResult {
	start := time.Now()

	ext := fileExtension(file)
	category := extensionCategories[ext]
	if category == categoryUnsupported {
		err := domain.WrapError(domain.ErrUnsupportedFileType, "extract", fmt.Errorf("mime type %q", file.MimeType))
		e.logger.Warn("extract.file.unsupported", "file", file.Name, "mime_type", file.MimeType)
		e.observer.ObserveExtraction("", false, time.Since(start))
		return domain.ExtractionResult{Success: false, Error: err.Error()}
	}

	// Identical content in flight is extracted once. The shared work ignores
	// caller cancellation and is bounded by the file timeout.
	key := contentKey(ext, file.Data)
	detached := context.WithoutCancel(ctx)
	flight := e.flight.DoChan(key, func() (any, error) {
		return e.extractCached(detached, key, category, file), nil
	})

	var result domain.ExtractionResult
	select {
	case res := <-flight:
		result = res.Val.(domain.ExtractionResult)
	case <-ctx.Done():
		err := domain.WrapError(domain.ErrExtractionFailed, "extract", ctx.Err())
		result = domain.ExtractionResult{Success: false, Error: err.Error()}
	}

	elapsed := time.Since(start)
	e.observer.ObserveExtraction(result.Method, result.Success, elapsed)
	if result.Success {
		e.logger.Info("extract.file.ok",
			"file", file.Name,
			"method", result.Method,
			"chars", len(result.Text),
			"confidence", result.Confidence,
			"elapsed", elapsed,
		)
	} else {
		e.logger.Warn("extract.file.failed", "file", file.Name, "error", result.Error)
	}
	return result
}

func (e *Extractor) extractCached(ctx context.Context, key string, category fileCategory, file domain.UploadedFile) domain.ExtractionResult {
	if e.cache != nil {
		cached, ok, err := e.cache.Get(ctx, key)
		if err != nil {
			e.logger.Warn("extract.cache.get_failed", "file", file.Name, "error", err)
		} else if ok {
			return cached
		}
	}

	result := e.extract(ctx, category, file)

	if e.cache != nil && result.Success {
		if err := e.cache.Set(ctx, key, result); err != nil {
			e.logger.Warn("extract.cache.set_failed", "file", file.Name, "error", err)
		}
	}
	return result
}

func (e *Extractor) extract(ctx context.Context, category fileCategory, file domain.UploadedFile) (result domain.ExtractionResult) {
	defer func() {
		if r := recover(); r != nil {
			err := domain.WrapError(domain.ErrExtractionFailed, "extract", fmt.Errorf("panic: %v", r))
			result = domain.ExtractionResult{Success: false, Error: err.Error()}
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var (
		raw domain.ExtractionResult
		err error
	)
	switch category {
	case categoryImage:
		raw, err = e.fromImage(ctx, file.Data)
	case categoryPDF:
		raw, err = e.fromPDF(ctx, file.Data)
	case categoryText:
		raw = domain.ExtractionResult{
			Text:       strings.ToValidUTF8(string(file.Data), "�"),
			Confidence: 100,
			Method:     domain.MethodText,
		}
	}
	if err != nil {
		if !errors.Is(err, domain.ErrExtractionFailed) {
			err = domain.WrapError(domain.ErrExtractionFailed, "extract", err)
		}
		return domain.ExtractionResult{Success: false, Method: raw.Method, Error: err.Error()}
	}

	raw.Success = true
	raw.Text = analysis.CleanExtractedText(raw.Text)
	return raw
}

func (e *Extractor) fromImage(ctx context.Context, data []byte) (domain.ExtractionResult, error) {
	out, err := e.ocr.RecognizeImage(ctx, data)
	if err != nil {
		return domain.ExtractionResult{Method: domain.MethodImageOCR}, fmt.Errorf("ocr image: %w", err)
	}
	return domain.ExtractionResult{
		Text:       out.Text,
		Confidence: out.Confidence,
		PageCount:  1,
		Method:     domain.MethodImageOCR,
	}, nil
}

func (e *Extractor) fromPDF(ctx context.Context, data []byte) (domain.ExtractionResult, error) {
	layer, err := e.pdf.ExtractText(ctx, data)
	if err == nil && len(strings.TrimSpace(layer.Text)) >= MinPDFTextLength {
		return domain.ExtractionResult{
			Text:       layer.Text,
			Confidence: 100,
			PageCount:  layer.Pages,
			Method:     domain.MethodPDFText,
		}, nil
	}
	if err != nil {
		e.logger.Info("extract.pdf.text_layer_failed", "error", err)
	}

	out, ocrErr := e.ocr.RecognizePDF(ctx, data)
	if ocrErr != nil {
		return domain.ExtractionResult{Method: domain.MethodPDFOCR}, fmt.Errorf("ocr pdf: %w", ocrErr)
	}
	return domain.ExtractionResult{
		Text:       out.Text,
		Confidence: out.Confidence,
		PageCount:  out.Pages,
		Method:     domain.MethodPDFOCR,
	}, nil
}

func fileExtension(file domain.UploadedFile) string {
	ext := strings.ToLower(filepath.Ext(file.Name))
	if ext != "" {
		return ext
	}
	mimeType := strings.ToLower(strings.TrimSpace(file.MimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return mimeExtensions[mimeType]
}

func contentKey(ext string, data []byte) string {
	sum := sha256.Sum256(data)
	return ext + ":" + hex.EncodeToString(sum[:])
}
