package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
	"github.com/kirillkom/compliance-navigator/internal/core/ports"
)

var greetingPattern = regexp.MustCompile(`(?i)^(hi|hello|hey|good\s+(morning|afternoon|evening)|greetings?|नमस्ते|নমস্কার|வணக்கம்)$`)

var greetingSuggestions = []string{
	"I want to start a restaurant business",
	"What documents do I need for GST registration?",
	"How long does it take to get FSSAI license?",
	"Help me analyze my business documents",
}

var fssaiLicenseTypes = []string{"Basic Registration", "State License", "Central License"}

var fssaiNextSteps = []string{
	"Determine your FSSAI license type based on turnover",
	"Gather required documents",
	"Apply online at foscos.fssai.gov.in",
	"Pay applicable fees",
	"Schedule inspection if required",
}

const (
	complianceRedirectMessage = "I need your business details first. What type of business are you starting?"
	documentPromptMessage     = "I'm ready to analyze your documents! Please upload your business documents (GST certificate, PAN card, Aadhaar, bank statements, etc.) and I'll help you understand their compliance status."
)

type intentClassifier interface {
	Classify(ctx context.Context, rc domain.RoutingContext) (domain.Intent, IntentSource)
}

// handlerFunc answers one intent. degraded is true when the model call
// failed and a static answer was returned instead.
type handlerFunc func(ctx context.Context, turn turn) (resp domain.AgentResponse, degraded bool)

// turn is the router's per-message view of the routing context.
type turn struct {
	rc       domain.RoutingContext
	lang     string
	langName string
}

// Router classifies a message and dispatches it to exactly one handler.
type Router struct {
	intents   intentClassifier
	generator ports.TextGenerator
	language  ports.LanguageService
	profiles  SamplingProfiles
	observer  ports.PipelineObserver
	logger    *slog.Logger
	handlers  map[domain.Intent]handlerFunc
}

type RouterOption func(*Router)

func WithSamplingProfiles(profiles SamplingProfiles) RouterOption {
	return func(r *Router) {
		if profiles != nil {
			r.profiles = profiles
		}
	}
}

func WithRouterObserver(observer ports.PipelineObserver) RouterOption {
	return func(r *Router) {
		if observer != nil {
			r.observer = observer
		}
	}
}

func WithRouterLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRouter(intents intentClassifier, generator ports.TextGenerator, language ports.LanguageService, opts ...RouterOption) *Router {
	r := &Router{
		intents:   intents,
		generator: generator,
		language:  language,
		profiles:  DefaultSamplingProfiles(),
		observer:  noopObserver{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.handlers = map[domain.Intent]handlerFunc{
		domain.IntentDiscovery:        r.handleDiscovery,
		domain.IntentCompliance:       r.handleCompliance,
		domain.IntentFSSAI:            r.handleFSSAI,
		domain.IntentTimeline:         r.handleTimeline,
		domain.IntentPlatform:         r.handlePlatform,
		domain.IntentDocumentAnalysis: r.handleDocumentAnalysis,
		domain.IntentGeneral:          r.handleGeneral,
	}
	return r
}

// Route never fails: every path ends in a well-formed response.
func (r *Router) Route(ctx context.Context, rc domain.RoutingContext) (resp domain.AgentResponse) {
	lang := strings.TrimSpace(rc.Language)
	if lang == "" {
		lang = r.language.Detect(rc.Message)
	}
	t := turn{rc: rc, lang: lang, langName: r.language.Name(lang)}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("router.panic", "panic", fmt.Sprint(rec))
			resp = domain.AgentResponse{Message: r.language.Greeting(lang), Type: domain.ResponseError}
			r.observer.ObserveResponse(resp.Type, true)
		}
	}()

	intent, source := r.intents.Classify(ctx, rc)
	r.observer.ObserveIntent(intent, string(source))

	handler, ok := r.handlers[intent]
	if !ok {
		handler = r.handleGeneral
	}
	resp, degraded := handler(ctx, t)

	r.observer.ObserveResponse(resp.Type, degraded)
	r.logger.Info("router.handled",
		"intent", intent,
		"intent_source", source,
		"language", lang,
		"response_type", resp.Type,
		"degraded", degraded,
	)
	return resp
}

func (r *Router) generate(ctx context.Context, handler, system, prompt string) (string, error) {
	if r.generator == nil {
		return "", domain.WrapError(domain.ErrModelUnavailable, "router."+handler, fmt.Errorf("no text generator configured"))
	}
	profile := r.profiles.Get(handler)
	text, err := r.generator.Generate(ctx, ports.GenerationRequest{
		System:      system,
		Prompt:      prompt,
		Temperature: profile.Temperature,
		MaxTokens:   profile.MaxTokens,
	})
	if err != nil {
		r.logger.Warn("router.handler.degraded", "handler", handler, "error", err)
		return "", err
	}
	return text, nil
}

// staticText translates a canned English answer into the turn's language.
func (r *Router) staticText(ctx context.Context, t turn, text string) string {
	return r.language.Translate(ctx, text, "en", t.lang)
}

// contextualPrompts builds the language-aware prompts shared by the
// model-backed handlers, with business and conversation context appended.
func contextualPrompts(t turn, system string) (string, string) {
	prompt := languageUserPrompt(t.rc.Message, t.lang, t.langName)
	if system == "" {
		system = languageSystemPrompt(t.lang, t.langName)
	} else if t.lang != "" && t.lang != "en" {
		system += fmt.Sprintf(" Respond in %s.", t.langName)
	}
	if t.rc.Profile != nil && *t.rc.Profile != (domain.BusinessProfile{}) {
		prompt += "\nBusiness Context: " + prettyJSON(t.rc.Profile)
		system += " Use the business context to provide relevant advice."
	}
	if hasConversation(t.rc.ConversationSummary) {
		prompt += "\nConversation Context: " + t.rc.ConversationSummary
		system += " Continue the conversation naturally based on previous context."
	}
	return system, prompt
}

func (r *Router) handleGeneral(ctx context.Context, t turn) (domain.AgentResponse, bool) {
	if greetingPattern.MatchString(strings.TrimSpace(t.rc.Message)) {
		return domain.AgentResponse{
			Message: r.language.WelcomeMessage(t.lang),
			Type:    domain.ResponseGreeting,
			Data: map[string]any{
				"language":    t.lang,
				"suggestions": greetingSuggestions,
			},
		}, false
	}

	system, prompt := contextualPrompts(t, "")
	prompt += "\nProvide helpful, specific guidance. If unsure about the topic, offer to help with business discovery, compliance, timelines, or platform guidance."

	data := map[string]any{"language": t.lang}
	text, err := r.generate(ctx, HandlerGeneral, system, prompt)
	if err != nil {
		msg := r.language.Greeting(t.lang) + r.staticText(ctx, t, `

• **Business Discovery** - What type of business should you start?
• **Compliance Help** - Licenses, registrations, and requirements
• **Timeline Planning** - How long will each step take?
• **Platform Guidance** - Getting on Swiggy, Zomato, Amazon, etc.
• **Document Analysis** - Upload and analyze your business documents

What specific area would you like help with?`)
		return domain.AgentResponse{Message: msg, Type: domain.ResponseGeneral, Data: data}, true
	}
	return domain.AgentResponse{Message: text, Type: domain.ResponseGeneral, Data: data}, false
}

func (r *Router) handleCompliance(ctx context.Context, t turn) (domain.AgentResponse, bool) {
	if !t.rc.HasBusinessType() {
		return domain.AgentResponse{
			Message: r.staticText(ctx, t, complianceRedirectMessage),
			Type:    domain.ResponseRedirect,
		}, false
	}

	profile := *t.rc.Profile
	classification := ClassifyBusiness(profile)
	system, prompt := contextualPrompts(t, complianceSystemPrompt)
	prompt += fmt.Sprintf("\nBusiness Classification: %s sector, %s enterprise (%s).", classification.Sector, classification.Size, classification.Category)
	if profile.State != "" {
		prompt += "\nInclude state-specific requirements for " + profile.State + "."
	}

	data := map[string]any{
		"classification":  classification,
		"businessProfile": profile,
		"language":        t.lang,
	}
	text, err := r.generate(ctx, HandlerCompliance, system, prompt)
	if err != nil {
		return domain.AgentResponse{
			Message: r.staticText(ctx, t, staticComplianceMessage(profile, classification)),
			Type:    domain.ResponseCompliance,
			Data:    data,
		}, true
	}
	return domain.AgentResponse{Message: text, Type: domain.ResponseCompliance, Data: data}, false
}

func staticComplianceMessage(profile domain.BusinessProfile, c domain.BusinessClassification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📄 **Compliance & Licensing** for your %s business\n\n", profile.BusinessType)
	fmt.Fprintf(&b, "Classification: %s sector, %s enterprise.\n\n", c.Sector, c.Size)
	b.WriteString("**Core registrations:**\n")
	b.WriteString("• **PAN** - Required for every business and bank account\n")
	b.WriteString("• **Udyam Registration** - Free MSME registration at udyamregistration.gov.in\n")
	b.WriteString("• **GST Registration** - Mandatory above ₹40 lakh turnover (₹20 lakh for services)\n")
	b.WriteString("• **Shop & Establishment** - From your state labour department\n")
	b.WriteString("• **Trade License** - From the local municipal body\n")
	if c.Sector == "Food & Beverage" {
		b.WriteString("• **FSSAI License** - Required before selling any food\n")
	}
	b.WriteString("\nWould you like a timeline for these registrations?")
	return b.String()
}

func (r *Router) handleFSSAI(ctx context.Context, t turn) (domain.AgentResponse, bool) {
	profile := profileOrEmpty(t.rc.Profile)
	data := map[string]any{
		"licenseTypes":    fssaiLicenseTypes,
		"businessProfile": profile,
		"nextSteps":       fssaiNextSteps,
	}

	system := fssaiSystemPrompt
	if t.lang != "" && t.lang != "en" {
		system += fmt.Sprintf(" Respond in %s.", t.langName)
	}
	text, err := r.generate(ctx, HandlerFSSAI, system, buildFSSAIPrompt(t.rc.Message, profile))
	if err != nil {
		return domain.AgentResponse{
			Message: r.staticText(ctx, t, staticFSSAIMessage),
			Type:    domain.ResponseFSSAICompliance,
			Data:    data,
		}, true
	}
	return domain.AgentResponse{Message: text, Type: domain.ResponseFSSAICompliance, Data: data}, false
}

const staticFSSAIMessage = `🍲 **FSSAI License Information**

**License Types:**
• **Basic Registration**: Turnover < ₹12 lakh/year
• **State License**: Turnover ₹12 lakh - 20 crore/year
• **Central License**: Turnover > ₹20 crore/year

**Required Documents:**
• Form A (Application)
• Food safety management plan
• List of food products
• NOC from municipality
• Water test report
• Medical certificate
• ID proof & address proof
• Partnership deed (if applicable)

**Process:**
1. Apply online at foscos.fssai.gov.in
2. Upload documents
3. Pay fees (₹100 for Basic to ₹7,500 for Central)
4. Inspection (if required)
5. License issuance (14-60 days)

Would you like specific guidance for your business type?`

func (r *Router) handleDocumentAnalysis(ctx context.Context, t turn) (domain.AgentResponse, bool) {
	if !t.rc.HasDocuments() {
		return domain.AgentResponse{
			Message: r.staticText(ctx, t, documentPromptMessage),
			Type:    domain.ResponseDocumentPrompt,
		}, false
	}

	docs := t.rc.Documents
	combined := domain.CombinedAnalysis{}
	if docs.CombinedAnalysis != nil {
		combined = *docs.CombinedAnalysis
	}
	data := map[string]any{
		"documentSummary": map[string]any{
			"totalFiles":      docs.UploadedFiles,
			"processedFiles":  docs.SuccessfulExtractions,
			"complianceScore": combined.ComplianceScore,
		},
		"extractedFields": nonNilFields(combined.ExtractedFields),
		"issues":          nonNilStrings(combined.AllIssues),
		"recommendations": nonNilStrings(combined.AllRecommendations),
	}

	text, err := r.generate(ctx, HandlerDocumentAnalysis, documentAnalysisSystemPrompt, buildDocumentAnalysisPrompt(t.rc.Message, docs))
	if err != nil {
		return domain.AgentResponse{
			Message: r.staticText(ctx, t, staticDocumentAnalysisMessage(docs, combined)),
			Type:    domain.ResponseDocumentAnalysis,
			Data:    data,
		}, true
	}
	return domain.AgentResponse{Message: text, Type: domain.ResponseDocumentAnalysis, Data: data}, false
}

func staticDocumentAnalysisMessage(docs *domain.DocumentContext, combined domain.CombinedAnalysis) string {
	var b strings.Builder
	b.WriteString("📁 **Document Analysis**\n\n")
	fmt.Fprintf(&b, "Processed %d of %d documents. Overall compliance score: %d%%.\n",
		docs.SuccessfulExtractions, docs.UploadedFiles, combined.ComplianceScore)
	for _, file := range docs.FileResults {
		fmt.Fprintf(&b, "• %s - %s, %d%% (%s)\n", file.FileName, file.DocumentType.Label(), file.Confidence, statusBadge(file.Confidence))
	}
	if len(combined.AllIssues) > 0 {
		b.WriteString("\n**Issues:**\n")
		for _, issue := range combined.AllIssues {
			b.WriteString("- " + issue + "\n")
		}
	}
	if len(combined.AllRecommendations) > 0 {
		b.WriteString("\n**Recommendations:**\n")
		for _, rec := range combined.AllRecommendations {
			b.WriteString("- " + rec + "\n")
		}
	}
	if docs.SuccessfulExtractions == 0 {
		b.WriteString("\nNo text could be read from your files. Please upload clearer scans or PDFs.")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Router) handleDiscovery(ctx context.Context, t turn) (domain.AgentResponse, bool) {
	system, prompt := contextualPrompts(t, discoverySystemPrompt)
	prompt += "\nSuggest up to three suitable business ideas with typical investment, key licenses and first steps. Ask about budget, location or skills if they are unknown."

	data := map[string]any{"language": t.lang}
	if t.rc.Profile != nil {
		data["businessProfile"] = *t.rc.Profile
	}
	profile := profileOrEmpty(t.rc.Profile)
	if recs := RecommendBusinesses(profile); len(recs) > 0 {
		data["recommendations"] = recs
		names := make([]string, len(recs))
		for i, rec := range recs {
			names[i] = fmt.Sprintf("%s (%s)", rec.Name, rec.InvestmentRange)
		}
		prompt += "\nCatalogue matches for this budget: " + strings.Join(names, ", ") + "."
	}
	if insights, ok := BusinessInsightsFor(profile.BusinessType); ok {
		data["businessInsights"] = insights
	}
	text, err := r.generate(ctx, HandlerDiscovery, system, prompt)
	if err != nil {
		return domain.AgentResponse{
			Message: r.staticText(ctx, t, staticDiscoveryMessage),
			Type:    domain.ResponseDiscovery,
			Data:    data,
		}, true
	}
	return domain.AgentResponse{Message: text, Type: domain.ResponseDiscovery, Data: data}, false
}

const staticDiscoveryMessage = `🏢 **Business Discovery**

To suggest the right business I need to know a little more:

• What is your investment budget?
• Which city and state will you operate in?
• What skills or experience do you have?
• Do you want to sell products, provide services or manufacture?

Popular low-investment options include a cloud kitchen, a kirana store, a tailoring unit and a home tuition centre.`

func (r *Router) handleTimeline(ctx context.Context, t turn) (domain.AgentResponse, bool) {
	system, prompt := contextualPrompts(t, timelineSystemPrompt)
	prompt += "\nGive the expected processing time of each registration and the order in which to apply."

	data := map[string]any{"language": t.lang}
	text, err := r.generate(ctx, HandlerTimeline, system, prompt)
	if err != nil {
		return domain.AgentResponse{
			Message: r.staticText(ctx, t, staticTimelineMessage),
			Type:    domain.ResponseTimeline,
			Data:    data,
		}, true
	}
	return domain.AgentResponse{Message: text, Type: domain.ResponseTimeline, Data: data}, false
}

const staticTimelineMessage = `⏰ **Timeline Planning**

Typical processing times:
• **PAN**: 7-15 days (instant e-PAN with Aadhaar)
• **Udyam Registration**: same day
• **GST Registration**: 3-7 working days
• **Shop & Establishment**: 7-15 days
• **FSSAI Basic Registration**: about 7 days
• **FSSAI State License**: 30-60 days
• **Trade License**: 15-30 days

Start with PAN and Udyam, then apply for GST and the licenses in parallel.`

func (r *Router) handlePlatform(ctx context.Context, t turn) (domain.AgentResponse, bool) {
	system, prompt := contextualPrompts(t, platformSystemPrompt)
	prompt += "\nList the documents each platform asks for, the onboarding steps and the commission or fees to expect."

	data := map[string]any{"language": t.lang}
	text, err := r.generate(ctx, HandlerPlatform, system, prompt)
	if err != nil {
		return domain.AgentResponse{
			Message: r.staticText(ctx, t, staticPlatformMessage),
			Type:    domain.ResponsePlatform,
			Data:    data,
		}, true
	}
	return domain.AgentResponse{Message: text, Type: domain.ResponsePlatform, Data: data}, false
}

const staticPlatformMessage = `🌐 **Platform Integration**

**Food delivery (Swiggy, Zomato):**
• FSSAI license, PAN, GST (if applicable), bank account, menu with prices

**Marketplaces (Amazon, Flipkart):**
• GST registration, PAN, bank account, business address proof

Onboarding usually takes 3-10 working days after documents are verified. Which platform are you interested in?`

func nonNilFields(fields domain.FieldMap) domain.FieldMap {
	if fields == nil {
		return domain.FieldMap{}
	}
	return fields
}

func nonNilStrings(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
