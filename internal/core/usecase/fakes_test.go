package usecase

import (
	"context"
	"sync"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
	"github.com/kirillkom/compliance-navigator/internal/core/ports"
)

type ocrFake struct {
	mu        sync.Mutex
	image     ports.OCRText
	pdf       ports.OCRText
	err       error
	imageCall int
	pdfCall   int
}

func (f *ocrFake) RecognizeImage(context.Context, []byte) (ports.OCRText, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imageCall++
	return f.image, f.err
}

func (f *ocrFake) RecognizePDF(context.Context, []byte) (ports.OCRText, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pdfCall++
	return f.pdf, f.err
}

type pdfFake struct {
	out ports.PDFText
	err error
}

func (f *pdfFake) ExtractText(context.Context, []byte) (ports.PDFText, error) {
	return f.out, f.err
}

type cacheFake struct {
	mu      sync.Mutex
	entries map[string]domain.ExtractionResult
	getErr  error
	sets    int
}

func (f *cacheFake) Get(_ context.Context, key string) (domain.ExtractionResult, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return domain.ExtractionResult{}, false, f.getErr
	}
	res, ok := f.entries[key]
	return res, ok, nil
}

func (f *cacheFake) Set(_ context.Context, key string, result domain.ExtractionResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entries == nil {
		f.entries = map[string]domain.ExtractionResult{}
	}
	f.entries[key] = result
	f.sets++
	return nil
}

type generatorFake struct {
	mu       sync.Mutex
	response string
	err      error
	requests []ports.GenerationRequest
}

func (f *generatorFake) Generate(_ context.Context, req ports.GenerationRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *generatorFake) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type languageFake struct {
	detected string
}

func (f *languageFake) Detect(string) string {
	if f.detected == "" {
		return "en"
	}
	return f.detected
}

func (f *languageFake) Translate(_ context.Context, text, _, _ string) string { return text }

func (f *languageFake) Greeting(string) string { return "Hello!" }

func (f *languageFake) WelcomeMessage(string) string { return "Hello! Welcome to the MSME assistant." }

func (f *languageFake) Name(lang string) string {
	if lang == "hi" {
		return "हिन्दी (Hindi)"
	}
	return "English"
}

type publisherFake struct {
	mu     sync.Mutex
	events []domain.DocumentsAnalyzedEvent
	err    error
}

func (f *publisherFake) PublishDocumentsAnalyzed(_ context.Context, event domain.DocumentsAnalyzedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

type fixedIntent struct {
	intent domain.Intent
	source IntentSource
	panics bool
}

func (f fixedIntent) Classify(context.Context, domain.RoutingContext) (domain.Intent, IntentSource) {
	if f.panics {
		panic("classifier exploded")
	}
	return f.intent, f.source
}

// blockingOCR holds RecognizeImage until release is closed or its context ends.
type blockingOCR struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (f *blockingOCR) RecognizeImage(ctx context.Context, _ []byte) (ports.OCRText, error) {
	f.once.Do(func() { close(f.started) })
	select {
	case <-f.release:
		return ports.OCRText{Text: "PAN ABCDE1234F Income Tax Department", Confidence: 88}, nil
	case <-ctx.Done():
		return ports.OCRText{}, ctx.Err()
	}
}

func (f *blockingOCR) RecognizePDF(ctx context.Context, data []byte) (ports.OCRText, error) {
	return f.RecognizeImage(ctx, data)
}
