package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
	"github.com/kirillkom/compliance-navigator/internal/core/ports"
)

// Extractor reads the embedded text layer of a PDF with ledongthuc/pdf.
type Extractor struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// ExtractText returns the concatenated plain text of every readable page.
// Pages that fail to decode are skipped; a malformed document is an error.
func (e *Extractor) ExtractText(ctx context.Context, data []byte) (out ports.PDFText, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			out = ports.PDFText{}
			err = domain.WrapError(domain.ErrExtractionFailed, "pdf text", fmt.Errorf("parser panic: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ports.PDFText{}, domain.WrapError(domain.ErrExtractionFailed, "pdf text", err)
	}

	var b strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return ports.PDFText{}, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Warn("pdf.page.text_failed", "page", i, "error", err)
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	return ports.PDFText{Text: b.String(), Pages: pages}, nil
}
