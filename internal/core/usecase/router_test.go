package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
)

var errModelDown = domain.WrapError(domain.ErrModelUnavailable, "ollama.generate", errors.New("connection refused"))

func newTestRouter(intent domain.Intent, gen *generatorFake, lang *languageFake) *Router {
	if lang == nil {
		lang = &languageFake{}
	}
	return NewRouter(fixedIntent{intent: intent, source: SourceModel}, gen, lang)
}

func docContext() *domain.DocumentContext {
	return &domain.DocumentContext{
		UploadedFiles:         2,
		SuccessfulExtractions: 1,
		CombinedAnalysis: &domain.CombinedAnalysis{
			TotalDocuments:     1,
			ExtractedFields:    domain.FieldMap{"gstin": "29ABCDE1234F1Z5"},
			AllIssues:          []string{"GST registration may not be active"},
			AllRecommendations: []string{"Verify GSTIN on GST portal"},
			ComplianceScore:    65,
		},
		FileResults: []domain.DocumentSummary{
			{FileName: "gst.pdf", DocumentType: domain.DocGSTCertificate, Confidence: 65},
			{FileName: "bad.docx"},
		},
	}
}

func TestRouteComplianceWithoutBusinessTypeRedirects(t *testing.T) {
	gen := &generatorFake{response: "unused"}
	r := newTestRouter(domain.IntentCompliance, gen, nil)

	resp := r.Route(context.Background(), domain.RoutingContext{Message: "what licenses?", Profile: &domain.BusinessProfile{City: "Pune"}})
	if resp.Type != domain.ResponseRedirect || resp.Message != complianceRedirectMessage {
		t.Fatalf("unexpected response %+v", resp)
	}
	if gen.calls() != 0 {
		t.Fatalf("redirect must not call the model")
	}
}

func TestRouteDocumentAnalysisWithoutDocumentsPrompts(t *testing.T) {
	gen := &generatorFake{response: "unused"}
	r := newTestRouter(domain.IntentDocumentAnalysis, gen, nil)

	resp := r.Route(context.Background(), domain.RoutingContext{Message: "analyze my docs"})
	if resp.Type != domain.ResponseDocumentPrompt {
		t.Fatalf("unexpected type %s", resp.Type)
	}
	if gen.calls() != 0 {
		t.Fatalf("document prompt must not call the model")
	}
}

func TestRouteGreetingSkipsModel(t *testing.T) {
	gen := &generatorFake{response: "unused"}
	r := newTestRouter(domain.IntentGeneral, gen, nil)

	resp := r.Route(context.Background(), domain.RoutingContext{Message: " Good Morning "})
	if resp.Type != domain.ResponseGreeting || !strings.Contains(resp.Message, "Welcome") {
		t.Fatalf("unexpected response %+v", resp)
	}
	if suggestions, _ := resp.Data["suggestions"].([]string); len(suggestions) != 4 {
		t.Fatalf("unexpected suggestions %+v", resp.Data)
	}
	if gen.calls() != 0 {
		t.Fatalf("greeting must not call the model")
	}
}

func TestRouteHandlersDegradeToSameType(t *testing.T) {
	profile := &domain.BusinessProfile{BusinessType: "restaurant", State: "Karnataka"}
	tests := []struct {
		intent domain.Intent
		rc     domain.RoutingContext
		want   domain.ResponseType
	}{
		{domain.IntentDiscovery, domain.RoutingContext{Message: "what should I start"}, domain.ResponseDiscovery},
		{domain.IntentCompliance, domain.RoutingContext{Message: "licenses?", Profile: profile}, domain.ResponseCompliance},
		{domain.IntentFSSAI, domain.RoutingContext{Message: "fssai"}, domain.ResponseFSSAICompliance},
		{domain.IntentTimeline, domain.RoutingContext{Message: "how long"}, domain.ResponseTimeline},
		{domain.IntentPlatform, domain.RoutingContext{Message: "swiggy"}, domain.ResponsePlatform},
		{domain.IntentDocumentAnalysis, domain.RoutingContext{Message: "check", Documents: docContext()}, domain.ResponseDocumentAnalysis},
		{domain.IntentGeneral, domain.RoutingContext{Message: "tell me more"}, domain.ResponseGeneral},
	}
	for _, tt := range tests {
		t.Run(string(tt.intent), func(t *testing.T) {
			gen := &generatorFake{err: errModelDown}
			r := newTestRouter(tt.intent, gen, nil)

			resp := r.Route(context.Background(), tt.rc)
			if resp.Type != tt.want {
				t.Fatalf("got type %s, want %s", resp.Type, tt.want)
			}
			if strings.TrimSpace(resp.Message) == "" {
				t.Fatalf("degraded response must carry a message")
			}
			if gen.calls() != 1 {
				t.Fatalf("expected one model call, got %d", gen.calls())
			}
		})
	}
}

func TestRouteGeneralDegradedListsCapabilities(t *testing.T) {
	r := newTestRouter(domain.IntentGeneral, &generatorFake{err: errModelDown}, nil)

	resp := r.Route(context.Background(), domain.RoutingContext{Message: "help"})
	if !strings.HasPrefix(resp.Message, "Hello!") || !strings.Contains(resp.Message, "**Business Discovery**") {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestRouteDocumentAnalysisUsesProfileAndSummary(t *testing.T) {
	gen := &generatorFake{response: "Your GST certificate looks fine."}
	r := newTestRouter(domain.IntentDocumentAnalysis, gen, nil)

	resp := r.Route(context.Background(), domain.RoutingContext{Message: "is this ok?", Documents: docContext()})
	if resp.Type != domain.ResponseDocumentAnalysis || resp.Message != "Your GST certificate looks fine." {
		t.Fatalf("unexpected response %+v", resp)
	}
	req := gen.requests[0]
	if req.Temperature != 0.2 || req.MaxTokens != 800 || req.System != documentAnalysisSystemPrompt {
		t.Fatalf("unexpected request parameters %+v", req)
	}
	for _, want := range []string{"Total uploaded: 2 documents", "Overall compliance score: 65%", "1. gst.pdf", "Status: Partial ⚠️", `User Question: "is this ok?"`} {
		if !strings.Contains(req.Prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, req.Prompt)
		}
	}
	summary, _ := resp.Data["documentSummary"].(map[string]any)
	if summary["complianceScore"] != 65 || summary["processedFiles"] != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestRouteComplianceAttachesClassification(t *testing.T) {
	gen := &generatorFake{response: "You need FSSAI and GST."}
	r := newTestRouter(domain.IntentCompliance, gen, nil)

	resp := r.Route(context.Background(), domain.RoutingContext{
		Message: "what do I need?",
		Profile: &domain.BusinessProfile{BusinessType: "Cloud Kitchen", InvestmentCrore: 0.5, TurnoverCrore: 2},
	})
	classification, ok := resp.Data["classification"].(domain.BusinessClassification)
	if !ok || classification.Sector != "Food & Beverage" || classification.Size != "micro" {
		t.Fatalf("unexpected classification %+v", resp.Data)
	}
	if !strings.Contains(gen.requests[0].Prompt, "Business Classification: Food & Beverage sector, micro enterprise") {
		t.Fatalf("prompt missing classification:\n%s", gen.requests[0].Prompt)
	}
}

func TestRouteDiscoveryAttachesRecommendations(t *testing.T) {
	for _, gen := range []*generatorFake{{response: "Try a cloud kitchen."}, {err: errModelDown}} {
		r := newTestRouter(domain.IntentDiscovery, gen, nil)

		resp := r.Route(context.Background(), domain.RoutingContext{
			Message: "what should I start?",
			Profile: &domain.BusinessProfile{BusinessType: "Cloud Kitchen", InvestmentCrore: 0.01},
		})
		if resp.Type != domain.ResponseDiscovery {
			t.Fatalf("got type %s", resp.Type)
		}
		recs, ok := resp.Data["recommendations"].([]domain.BusinessRecommendation)
		if !ok || len(recs) != 5 || recs[0].Type != "cloud_kitchen" {
			t.Fatalf("unexpected recommendations %+v", resp.Data["recommendations"])
		}
		insights, ok := resp.Data["businessInsights"].(domain.BusinessInsights)
		if !ok || insights.ScalabilityPotential != "high" {
			t.Fatalf("unexpected insights %+v", resp.Data["businessInsights"])
		}
		if !strings.Contains(gen.requests[0].Prompt, "Cloud Kitchen (₹100,000 - ₹500,000)") {
			t.Fatalf("prompt missing catalogue matches:\n%s", gen.requests[0].Prompt)
		}
	}
}

func TestRouteUsesSamplingProfiles(t *testing.T) {
	gen := &generatorFake{response: "ok"}
	profiles := SamplingProfiles{HandlerFSSAI: {Temperature: 0.1, MaxTokens: 50}}
	r := NewRouter(fixedIntent{intent: domain.IntentFSSAI}, gen, &languageFake{}, WithSamplingProfiles(profiles))

	resp := r.Route(context.Background(), domain.RoutingContext{Message: "fssai basic"})
	if resp.Type != domain.ResponseFSSAICompliance {
		t.Fatalf("unexpected type %s", resp.Type)
	}
	if req := gen.requests[0]; req.Temperature != 0.1 || req.MaxTokens != 50 {
		t.Fatalf("profile not applied: %+v", req)
	}
	if steps, _ := resp.Data["nextSteps"].([]string); len(steps) != 5 {
		t.Fatalf("unexpected next steps %+v", resp.Data)
	}
}

func TestRouteDetectsLanguageWhenUnset(t *testing.T) {
	gen := &generatorFake{response: "उत्तर"}
	r := newTestRouter(domain.IntentGeneral, gen, &languageFake{detected: "hi"})

	resp := r.Route(context.Background(), domain.RoutingContext{Message: "मुझे मदद चाहिए"})
	if resp.Data["language"] != "hi" {
		t.Fatalf("unexpected language %+v", resp.Data)
	}
	if !strings.Contains(gen.requests[0].Prompt, "User message in हिन्दी (Hindi)") {
		t.Fatalf("prompt not localized:\n%s", gen.requests[0].Prompt)
	}
	if !strings.Contains(gen.requests[0].System, "Respond in हिन्दी (Hindi)") {
		t.Fatalf("system prompt not localized: %s", gen.requests[0].System)
	}
}

func TestRouteRecoversFromPanics(t *testing.T) {
	r := NewRouter(fixedIntent{panics: true}, &generatorFake{}, &languageFake{})

	resp := r.Route(context.Background(), domain.RoutingContext{Message: "hi"})
	if resp.Type != domain.ResponseError || resp.Message != "Hello!" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestRouteDoesNotMutateContext(t *testing.T) {
	profile := &domain.BusinessProfile{BusinessType: "bakery"}
	rc := domain.RoutingContext{Message: "licenses", Profile: profile}
	r := newTestRouter(domain.IntentCompliance, &generatorFake{response: "ok"}, nil)

	_ = r.Route(context.Background(), rc)
	if rc.Language != "" || *profile != (domain.BusinessProfile{BusinessType: "bakery"}) {
		t.Fatalf("routing context mutated: %+v %+v", rc, profile)
	}
}
