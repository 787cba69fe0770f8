package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/compliance-navigator/internal/core/analysis"
	"github.com/kirillkom/compliance-navigator/internal/core/domain"
	"github.com/kirillkom/compliance-navigator/internal/core/ports"
)

// CompleteDocumentThreshold counts a document as complete in a batch. It is
// separate from the scorer's label bands.
const CompleteDocumentThreshold = 70

const defaultExtractConcurrency = 4

// Aggregate folds the successful results of a batch. Failed files are
// skipped; on field collisions the later file wins.
func Aggregate(results []domain.FileResult) domain.CombinedAnalysis {
	combined := domain.CombinedAnalysis{
		ExtractedFields:    domain.FieldMap{},
		AllIssues:          []string{},
		AllRecommendations: []string{},
	}

	sum := 0
	for _, res := range results {
		if !res.Success || res.DocumentAnalysis == nil {
			continue
		}
		a := res.DocumentAnalysis
		combined.TotalDocuments++
		if a.Confidence >= CompleteDocumentThreshold {
			combined.CompleteDocuments++
		} else {
			combined.IncompleteDocuments++
		}
		for k, v := range a.ExtractedFields {
			combined.ExtractedFields[k] = v
		}
		combined.AllIssues = append(combined.AllIssues, a.Issues...)
		combined.AllRecommendations = append(combined.AllRecommendations, a.Recommendations...)
		sum += a.Confidence
	}

	if combined.TotalDocuments > 0 {
		combined.ComplianceScore = int(math.Round(float64(sum) / float64(combined.TotalDocuments)))
	}
	return combined
}

// BatchAnalyzer extracts and analyzes the files of one upload concurrently.
type BatchAnalyzer struct {
	extractor   ports.FileExtractor
	engine      *analysis.Engine
	publisher   ports.EventPublisher
	concurrency int
	observer    ports.PipelineObserver
	logger      *slog.Logger
	now         func() time.Time
}

type BatchOption func(*BatchAnalyzer)

func WithEventPublisher(publisher ports.EventPublisher) BatchOption {
	return func(b *BatchAnalyzer) {
		b.publisher = publisher
	}
}

func WithConcurrency(n int) BatchOption {
	return func(b *BatchAnalyzer) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

func WithBatchObserver(observer ports.PipelineObserver) BatchOption {
	return func(b *BatchAnalyzer) {
		if observer != nil {
			b.observer = observer
		}
	}
}

func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchAnalyzer) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func NewBatchAnalyzer(extractor ports.FileExtractor, engine *analysis.Engine, opts ...BatchOption) *BatchAnalyzer {
	if engine == nil {
		engine = analysis.NewEngine()
	}
	b := &BatchAnalyzer{
		extractor:   extractor,
		engine:      engine,
		concurrency: defaultExtractConcurrency,
		observer:    noopObserver{},
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AnalyzeFiles returns one result per file, in input order. source names the
// entry point ("upload", "chat-upload", "inbox") on the published event.
func (b *BatchAnalyzer) AnalyzeFiles(ctx context.Context, source string, files []domain.UploadedFile) domain.BatchResult {
	results := make([]domain.FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, file := range files {
		g.Go(func() error {
			results[i] = b.analyzeFile(gctx, file)
			return nil
		})
	}
	_ = g.Wait()

	successful := 0
	for _, res := range results {
		if res.Success {
			successful++
		}
	}

	batch := domain.BatchResult{
		BatchID:         uuid.NewString(),
		Success:         successful > 0,
		Message:         fmt.Sprintf("Processed %d/%d files successfully", successful, len(files)),
		TotalFiles:      len(files),
		SuccessfulFiles: successful,
		Results:         results,
		Timestamp:       b.now().UTC(),
	}

	combined := Aggregate(results)
	b.logger.Info("batch.analyzed",
		"batch_id", batch.BatchID,
		"source", source,
		"files", batch.TotalFiles,
		"successful", batch.SuccessfulFiles,
		"compliance_score", combined.ComplianceScore,
	)
	b.publish(ctx, source, batch, combined)
	return batch
}

func (b *BatchAnalyzer) analyzeFile(ctx context.Context, file domain.UploadedFile) domain.FileResult {
	size := file.Size
	if size == 0 {
		size = int64(len(file.Data))
	}
	extraction := b.extractor.Extract(ctx, file)
	res := domain.FileResult{
		FileName:   file.Name,
		FileSize:   size,
		MimeType:   file.MimeType,
		Success:    extraction.Success,
		Text:       extraction.Text,
		Confidence: extraction.Confidence,
		PageCount:  extraction.PageCount,
		Method:     extraction.Method,
		Error:      extraction.Error,
	}
	if !extraction.Success {
		return res
	}

	a := b.engine.Analyze(extraction.Text, file.Name)
	b.observer.ObserveDocument(a.DocumentType, a.Confidence)
	res.DocumentAnalysis = &a
	return res
}

// publish is best effort: a broker outage never fails the upload.
func (b *BatchAnalyzer) publish(ctx context.Context, source string, batch domain.BatchResult, combined domain.CombinedAnalysis) {
	if b.publisher == nil {
		return
	}
	event := NewDocumentsAnalyzedEvent(source, batch, combined)
	if err := b.publisher.PublishDocumentsAnalyzed(context.WithoutCancel(ctx), event); err != nil {
		b.logger.Warn("batch.publish.failed", "batch_id", batch.BatchID, "error", err)
	}
}

func NewDocumentsAnalyzedEvent(source string, batch domain.BatchResult, combined domain.CombinedAnalysis) domain.DocumentsAnalyzedEvent {
	docs := make([]domain.AnalyzedDocument, 0, len(batch.Results))
	for _, res := range batch.Results {
		doc := domain.AnalyzedDocument{
			FileName: res.FileName,
			Success:  res.Success,
			Error:    res.Error,
		}
		if a := res.DocumentAnalysis; a != nil {
			doc.DocumentType = a.DocumentType
			doc.Confidence = a.Confidence
			doc.Fields = a.ExtractedFields
			doc.Issues = a.Issues
		}
		docs = append(docs, doc)
	}
	return domain.DocumentsAnalyzedEvent{
		BatchID:         batch.BatchID,
		Source:          source,
		TotalFiles:      batch.TotalFiles,
		SuccessfulFiles: batch.SuccessfulFiles,
		ComplianceScore: combined.ComplianceScore,
		Documents:       docs,
		OccurredAt:      batch.Timestamp,
	}
}
