package ports

import (
	"context"
	"time"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
)

// FileExtractor turns a single uploaded file into normalized text. It never
// returns an error: failures are reported through ExtractionResult.Success.
type FileExtractor interface {
	Extract(ctx context.Context, file domain.UploadedFile) domain.ExtractionResult
}

// DocumentAnalyzer runs extraction and analysis over an upload batch.
type DocumentAnalyzer interface {
	AnalyzeFiles(ctx context.Context, source string, files []domain.UploadedFile) domain.BatchResult
}

// AgentRouter answers a single user turn.
type AgentRouter interface {
	Route(ctx context.Context, rc domain.RoutingContext) domain.AgentResponse
}

type ChatWithDocumentsResult struct {
	Success          bool                    `json:"success"`
	FileResults      []domain.FileResult     `json:"fileResults"`
	CombinedAnalysis domain.CombinedAnalysis `json:"combinedAnalysis"`
	ChatResponse     domain.AgentResponse    `json:"chatResponse"`
	EnhancedMessage  string                  `json:"enhancedMessage"`
	Timestamp        time.Time               `json:"timestamp"`
}

// ChatWithDocumentsRequest is one chat-upload turn. An empty Intent routes
// as document analysis.
type ChatWithDocumentsRequest struct {
	Message string
	Profile *domain.BusinessProfile
	Intent  string
	Files   []domain.UploadedFile
}

// DocumentChat analyzes uploaded files and answers a question about them.
type DocumentChat interface {
	ChatWithDocuments(ctx context.Context, req ChatWithDocumentsRequest) ChatWithDocumentsResult
}
