package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
)

func TestFallbackIntent(t *testing.T) {
	docs := &domain.DocumentContext{UploadedFiles: 1, SuccessfulExtractions: 1}
	tests := []struct {
		name string
		rc   domain.RoutingContext
		want domain.Intent
	}{
		{"gst documents", domain.RoutingContext{Message: "What documents do I need for GST registration?"}, domain.IntentCompliance},
		{"document context wins", domain.RoutingContext{Message: "thanks", Documents: docs}, domain.IntentDocumentAnalysis},
		{"empty", domain.RoutingContext{}, domain.IntentGeneral},
		{"unrelated", domain.RoutingContext{Message: "tell me a joke"}, domain.IntentGeneral},
		{"fssai before timeline", domain.RoutingContext{Message: "How long does it take to get FSSAI license?"}, domain.IntentFSSAI},
		{"discovery", domain.RoutingContext{Message: "I want to start a bakery"}, domain.IntentDiscovery},
		{"timeline", domain.RoutingContext{Message: "how long will it be"}, domain.IntentTimeline},
		{"platform", domain.RoutingContext{Message: "sell on Swiggy"}, domain.IntentPlatform},
		{"upload keywords", domain.RoutingContext{Message: "can you scan this pdf"}, domain.IntentDocumentAnalysis},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FallbackIntent(tt.rc); got != tt.want {
				t.Fatalf("FallbackIntent(%q) = %s, want %s", tt.rc.Message, got, tt.want)
			}
		})
	}
}

func TestClassifyParsesModelLabel(t *testing.T) {
	tests := []struct {
		response string
		want     domain.Intent
	}{
		{" compliance\n", domain.IntentCompliance},
		{"DOCUMENT_ANALYSIS", domain.IntentDocumentAnalysis},
		{"FSSAI", domain.IntentGeneral},
		{"I think it is TIMELINE", domain.IntentGeneral},
	}
	for _, tt := range tests {
		gen := &generatorFake{response: tt.response}
		c := NewIntentClassifier(gen, SamplingProfile{Temperature: 0.2}, nil)

		intent, source := c.Classify(context.Background(), domain.RoutingContext{Message: "hi"})
		if intent != tt.want || source != SourceModel {
			t.Fatalf("response %q: got %s/%s, want %s/model", tt.response, intent, source, tt.want)
		}
		if gen.requests[0].Temperature != 0.2 || gen.requests[0].System != intentSystemPrompt {
			t.Fatalf("unexpected request %+v", gen.requests[0])
		}
	}
}

func TestClassifyUnparseableResponseIsGeneral(t *testing.T) {
	gen := &generatorFake{err: domain.WrapError(domain.ErrModelResponseUnparseable, "ollama.generate", errors.New("empty"))}
	c := NewIntentClassifier(gen, SamplingProfile{}, nil)

	intent, source := c.Classify(context.Background(), domain.RoutingContext{Message: "gst license"})
	if intent != domain.IntentGeneral || source != SourceModel {
		t.Fatalf("got %s/%s", intent, source)
	}
}

func TestClassifyFallsBackWhenModelUnavailable(t *testing.T) {
	gen := &generatorFake{err: domain.WrapError(domain.ErrModelUnavailable, "ollama.generate", errors.New("connection refused"))}
	c := NewIntentClassifier(gen, SamplingProfile{}, nil)

	intent, source := c.Classify(context.Background(), domain.RoutingContext{Message: "What documents do I need for GST registration?"})
	if intent != domain.IntentCompliance || source != SourceFallback {
		t.Fatalf("got %s/%s", intent, source)
	}
}

func TestClassifyWithoutGeneratorUsesFallback(t *testing.T) {
	c := NewIntentClassifier(nil, SamplingProfile{}, nil)

	intent, source := c.Classify(context.Background(), domain.RoutingContext{Message: "list on amazon marketplace"})
	if intent != domain.IntentPlatform || source != SourceFallback {
		t.Fatalf("got %s/%s", intent, source)
	}
}

func TestBuildIntentPrompt(t *testing.T) {
	rc := domain.RoutingContext{
		Message: "check these",
		Documents: &domain.DocumentContext{
			UploadedFiles:    2,
			CombinedAnalysis: &domain.CombinedAnalysis{ComplianceScore: 70},
		},
		ConversationSummary: "User runs a cafe in Pune.",
		DeclaredIntent:      "document_analysis",
	}
	want := "Message: \"check these\".\n" +
		"Document Analysis: User uploaded 2 documents with 70% compliance score.\n" +
		"Conversation Context: User runs a cafe in Pune.\n" +
		"Intent: User's declared intent: document_analysis. Intent:"
	if got := buildIntentPrompt(rc); got != want {
		t.Fatalf("unexpected prompt:\n%s", got)
	}

	plain := buildIntentPrompt(domain.RoutingContext{Message: "hi", ConversationSummary: newConversationMarker})
	if plain != "Message: \"hi\".\nIntent: Intent:" {
		t.Fatalf("unexpected plain prompt %q", plain)
	}
}
