package usecase

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
	"github.com/kirillkom/compliance-navigator/internal/core/ports"
)

// IntentSource tells which path produced an intent.
type IntentSource string

const (
	SourceModel    IntentSource = "model"
	SourceFallback IntentSource = "fallback"
)

// Checked in order after the document-context rule.
var fallbackRules = []struct {
	intent  domain.Intent
	pattern *regexp.Regexp
}{
	{domain.IntentFSSAI, regexp.MustCompile(`\b(fssai|food.*safety|food.*license|food.*permit|food.*registration)\b`)},
	{domain.IntentDiscovery, regexp.MustCompile(`\b(start|begin|open|launch|want.*start|planning.*business|business.*type|what.*business)\b`)},
	{domain.IntentCompliance, regexp.MustCompile(`\b(license|permit|registration|gst|compliance|legal|requirement|documents.*required|what.*documents|certificate|approval)\b`)},
	{domain.IntentTimeline, regexp.MustCompile(`\b(timeline|duration|how.*long|when|steps|process|time.*take|how.*much.*time)\b`)},
	{domain.IntentPlatform, regexp.MustCompile(`\b(swiggy|zomato|amazon|platform|online|delivery|marketplace)\b`)},
	{domain.IntentDocumentAnalysis, regexp.MustCompile(`\b(upload|document|pdf|image|analyze|scan|extract)\b`)},
}

// FallbackIntent classifies a message with keyword rules only. It is total:
// anything unmatched is GENERAL.
func FallbackIntent(rc domain.RoutingContext) domain.Intent {
	if rc.HasDocuments() {
		return domain.IntentDocumentAnalysis
	}
	lower := strings.ToLower(rc.Message)
	for _, rule := range fallbackRules {
		if rule.pattern.MatchString(lower) {
			return rule.intent
		}
	}
	return domain.IntentGeneral
}

// IntentClassifier asks the model for an intent label and falls back to
// keyword rules when the model cannot be reached.
type IntentClassifier struct {
	generator ports.TextGenerator
	profile   SamplingProfile
	logger    *slog.Logger
}

func NewIntentClassifier(generator ports.TextGenerator, profile SamplingProfile, logger *slog.Logger) *IntentClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntentClassifier{
		generator: generator,
		profile:   profile,
		logger:    logger,
	}
}

func (c *IntentClassifier) Classify(ctx context.Context, rc domain.RoutingContext) (domain.Intent, IntentSource) {
	if c.generator == nil {
		return FallbackIntent(rc), SourceFallback
	}

	response, err := c.generator.Generate(ctx, ports.GenerationRequest{
		System:      intentSystemPrompt,
		Prompt:      buildIntentPrompt(rc),
		Temperature: c.profile.Temperature,
		MaxTokens:   c.profile.MaxTokens,
	})
	switch {
	case err == nil:
		return parseModelIntent(response), SourceModel
	case errors.Is(err, domain.ErrModelResponseUnparseable):
		return domain.IntentGeneral, SourceModel
	default:
		intent := FallbackIntent(rc)
		c.logger.Warn("intent.model.failed", "fallback_intent", intent, "error", err)
		return intent, SourceFallback
	}
}

// parseModelIntent accepts only an exact label from the model's label set.
func parseModelIntent(response string) domain.Intent {
	intent, ok := domain.ParseIntent(response)
	if !ok || !slices.Contains(domain.ModelIntents, intent) {
		return domain.IntentGeneral
	}
	return intent
}
