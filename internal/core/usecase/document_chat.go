package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
	"github.com/kirillkom/compliance-navigator/internal/core/ports"
)

const (
	documentChatSource         = "chat-upload"
	documentChatDeclaredIntent = "document_analysis"
	defaultEnhancedMessage     = "Documents uploaded for comprehensive analysis"
)

// DocumentChatUseCase analyzes a batch and routes a question about it.
type DocumentChatUseCase struct {
	batches ports.DocumentAnalyzer
	router  ports.AgentRouter
	now     func() time.Time
}

func NewDocumentChatUseCase(batches ports.DocumentAnalyzer, router ports.AgentRouter) *DocumentChatUseCase {
	return &DocumentChatUseCase{
		batches: batches,
		router:  router,
		now:     time.Now,
	}
}

func (uc *DocumentChatUseCase) ChatWithDocuments(ctx context.Context, req ports.ChatWithDocumentsRequest) ports.ChatWithDocumentsResult {
	batch := uc.batches.AnalyzeFiles(ctx, documentChatSource, req.Files)
	combined := Aggregate(batch.Results)

	summaries := make([]domain.DocumentSummary, 0, len(batch.Results))
	for _, res := range batch.Results {
		summary := domain.DocumentSummary{FileName: res.FileName}
		if a := res.DocumentAnalysis; a != nil {
			summary.DocumentType = a.DocumentType
			summary.Confidence = a.Confidence
			summary.Fields = a.ExtractedFields
		}
		summaries = append(summaries, summary)
	}

	rc := domain.RoutingContext{
		Message: BuildDocumentChatPrompt(req.Message, batch.Results, combined),
		Profile: req.Profile,
		Documents: &domain.DocumentContext{
			UploadedFiles:         len(batch.Results),
			SuccessfulExtractions: batch.SuccessfulFiles,
			CombinedAnalysis:      &combined,
			FileResults:           summaries,
		},
		DeclaredIntent: documentChatDeclaredIntent,
	}
	if intent := strings.TrimSpace(req.Intent); intent != "" {
		rc.DeclaredIntent = intent
	}
	response := uc.router.Route(ctx, rc)

	enhanced := req.Message
	if strings.TrimSpace(enhanced) == "" {
		enhanced = defaultEnhancedMessage
	}
	return ports.ChatWithDocumentsResult{
		Success:          true,
		FileResults:      batch.Results,
		CombinedAnalysis: combined,
		ChatResponse:     response,
		EnhancedMessage:  enhanced,
		Timestamp:        uc.now().UTC(),
	}
}
