package tesseract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
	"github.com/kirillkom/compliance-navigator/internal/core/ports"
)

type Config struct {
	Tesseract string // binary name or path, default "tesseract"
	Pdftoppm  string // binary name or path, default "pdftoppm"
	Lang      string // default "eng"
	DPI       int    // rasterization DPI for scanned PDFs, default 300
	MaxPages  int    // 0 = no limit
	PSM       int
	TempDir   string
}

// Engine implements ports.OCREngine with the tesseract and poppler CLIs.
type Engine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return NewWithRunner(cfg, execRunner{logger: logger}, logger)
}

func NewWithRunner(cfg Config, runner Runner, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Engine{cfg: cfg, runner: runner, logger: logger}
}

// RecognizeImage OCRs a single raster image.
func (e *Engine) RecognizeImage(ctx context.Context, data []byte) (ports.OCRText, error) {
	dir, err := os.MkdirTemp(e.cfg.TempDir, "ocr-img-*")
	if err != nil {
		return ports.OCRText{}, domain.WrapError(domain.ErrExtractionFailed, "ocr image", err)
	}
	defer e.removeAll(dir)

	path := filepath.Join(dir, "input")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return ports.OCRText{}, domain.WrapError(domain.ErrExtractionFailed, "ocr image", err)
	}

	res, err := e.recognizeFile(ctx, path)
	if err != nil {
		return ports.OCRText{}, domain.WrapError(domain.ErrExtractionFailed, "ocr image", err)
	}
	return ports.OCRText{Text: res.text, Confidence: res.meanConfidence(), Pages: 1}, nil
}

// RecognizePDF rasterizes every page with pdftoppm and OCRs them in order.
// Confidence is the mean over all recognized words.
func (e *Engine) RecognizePDF(ctx context.Context, data []byte) (ports.OCRText, error) {
	dir, err := os.MkdirTemp(e.cfg.TempDir, "ocr-pdf-*")
	if err != nil {
		return ports.OCRText{}, domain.WrapError(domain.ErrExtractionFailed, "ocr pdf", err)
	}
	defer e.removeAll(dir)

	input := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(input, data, 0o600); err != nil {
		return ports.OCRText{}, domain.WrapError(domain.ErrExtractionFailed, "ocr pdf", err)
	}

	prefix := filepath.Join(dir, "page")
	// pdftoppm -r 300 -png <in.pdf> <dir/page>
	if _, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", strconv.Itoa(e.cfg.DPI), "-png", input, prefix); err != nil {
		return ports.OCRText{}, domain.WrapError(domain.ErrExtractionFailed, "ocr pdf", fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512)))
	}

	pages, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(pages)
	if e.cfg.MaxPages > 0 && len(pages) > e.cfg.MaxPages {
		pages = pages[:e.cfg.MaxPages]
	}
	if len(pages) == 0 {
		return ports.OCRText{}, domain.WrapError(domain.ErrExtractionFailed, "ocr pdf", fmt.Errorf("no pages rendered"))
	}

	var (
		b       strings.Builder
		confSum float64
		words   int
		failed  int
	)
	for _, page := range pages {
		res, err := e.recognizeFile(ctx, page)
		if err != nil {
			failed++
			e.logger.Warn("ocr.pdf.page_failed", "page", filepath.Base(page), "error", err)
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(res.text)
		confSum += res.confSum
		words += res.words
	}
	if failed == len(pages) {
		return ports.OCRText{}, domain.WrapError(domain.ErrExtractionFailed, "ocr pdf", fmt.Errorf("all %d pages failed", failed))
	}

	var conf float64
	if words > 0 {
		conf = confSum / float64(words)
	}
	return ports.OCRText{Text: b.String(), Confidence: conf, Pages: len(pages)}, nil
}

func (e *Engine) recognizeFile(ctx context.Context, path string) (tsvResult, error) {
	// tesseract <file> stdout -l <lang> [--psm N] tsv
	args := []string{path, "stdout", "-l", e.cfg.Lang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	args = append(args, "tsv")

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return tsvResult{}, fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	return parseTSV(out), nil
}

func (e *Engine) removeAll(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		e.logger.Warn("ocr.tmp.cleanup_failed", "dir", dir, "error", err)
	}
}
