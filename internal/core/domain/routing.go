package domain

import "strings"

type Intent string

const (
	IntentDiscovery        Intent = "DISCOVERY"
	IntentCompliance       Intent = "COMPLIANCE"
	IntentTimeline         Intent = "TIMELINE"
	IntentPlatform         Intent = "PLATFORM"
	IntentDocumentAnalysis Intent = "DOCUMENT_ANALYSIS"
	IntentFSSAI            Intent = "FSSAI"
	IntentGeneral          Intent = "GENERAL"
)

// ModelIntents is the label set the model is asked to choose from.
var ModelIntents = []Intent{
	IntentDiscovery,
	IntentCompliance,
	IntentTimeline,
	IntentPlatform,
	IntentDocumentAnalysis,
	IntentGeneral,
}

// ParseIntent matches s against the known labels, case-insensitively.
func ParseIntent(s string) (Intent, bool) {
	candidate := Intent(strings.ToUpper(strings.TrimSpace(s)))
	switch candidate {
	case IntentDiscovery, IntentCompliance, IntentTimeline, IntentPlatform,
		IntentDocumentAnalysis, IntentFSSAI, IntentGeneral:
		return candidate, true
	}
	return "", false
}

// BusinessProfile is what the user has told us about their business so far.
type BusinessProfile struct {
	BusinessType    string  `json:"businessType,omitempty"`
	State           string  `json:"state,omitempty"`
	City            string  `json:"city,omitempty"`
	InvestmentCrore float64 `json:"investmentCrore,omitempty"`
	TurnoverCrore   float64 `json:"turnoverCrore,omitempty"`
	Employees       int     `json:"employees,omitempty"`
	Experience      string  `json:"experience,omitempty"`
	RiskTolerance   string  `json:"riskTolerance,omitempty"`
}

type DocumentSummary struct {
	FileName     string       `json:"fileName"`
	DocumentType DocumentType `json:"documentType"`
	Confidence   int          `json:"confidence"`
	Fields       FieldMap     `json:"fields,omitempty"`
}

// DocumentContext summarizes the documents a user attached to a conversation.
type DocumentContext struct {
	UploadedFiles         int               `json:"uploadedFiles"`
	SuccessfulExtractions int               `json:"successfulExtractions"`
	CombinedAnalysis      *CombinedAnalysis `json:"combinedAnalysis,omitempty"`
	FileResults           []DocumentSummary `json:"fileResults,omitempty"`
}

// RoutingContext is passed by value to the router and never mutated by it.
type RoutingContext struct {
	Message             string           `json:"message"`
	Profile             *BusinessProfile `json:"profile,omitempty"`
	Documents           *DocumentContext `json:"documentContext,omitempty"`
	ConversationSummary string           `json:"conversationSummary,omitempty"`
	Language            string           `json:"language,omitempty"`
	DeclaredIntent      string           `json:"intent,omitempty"`
}

// HasBusinessType reports whether the profile names a business type.
func (c RoutingContext) HasBusinessType() bool {
	return c.Profile != nil && strings.TrimSpace(c.Profile.BusinessType) != ""
}

// HasDocuments reports whether a document context is attached, even one
// whose files all failed extraction.
func (c RoutingContext) HasDocuments() bool {
	return c.Documents != nil
}

type ResponseType string

const (
	ResponseError            ResponseType = "error"
	ResponseRedirect         ResponseType = "redirect"
	ResponseGeneral          ResponseType = "general"
	ResponseGreeting         ResponseType = "greeting"
	ResponseDocumentPrompt   ResponseType = "document_prompt"
	ResponseDocumentAnalysis ResponseType = "document_analysis"
	ResponseFSSAICompliance  ResponseType = "fssai_compliance"
	ResponseDiscovery        ResponseType = "discovery"
	ResponseCompliance       ResponseType = "compliance"
	ResponseTimeline         ResponseType = "timeline"
	ResponsePlatform         ResponseType = "platform"
)

type AgentResponse struct {
	Message string         `json:"message"`
	Type    ResponseType   `json:"type"`
	Data    map[string]any `json:"data,omitempty"`
}

// BusinessClassification is the deterministic sector and size estimate
// attached to compliance answers.
type BusinessClassification struct {
	Sector   string `json:"sector"`
	Size     string `json:"size"`
	Category string `json:"category"`
}

// BusinessRecommendation is one catalogue business ranked for a profile.
// Investment amounts are in rupees.
type BusinessRecommendation struct {
	Type                string   `json:"type"`
	Name                string   `json:"name"`
	Category            string   `json:"category"`
	CategoryKey         string   `json:"categoryKey"`
	InvestmentMin       int64    `json:"investmentMin"`
	InvestmentMax       int64    `json:"investmentMax"`
	InvestmentRange     string   `json:"investmentRange"`
	Licenses            []string `json:"licenses"`
	LicensesRequired    int      `json:"licensesRequired"`
	Timeline            string   `json:"timeline"`
	ProfitMargin        string   `json:"profitMargin"`
	Trending            bool     `json:"trending,omitempty"`
	Score               int      `json:"score"`
	Reasoning           []string `json:"reasoning"`
	LocationSuitability string   `json:"suitabilityForLocation"`
	EstimatedROI        int      `json:"estimatedROI"`
}

type BusinessInsights struct {
	Type                 string `json:"type"`
	Name                 string `json:"name"`
	MarketTrends         string `json:"marketTrends"`
	CompetitionLevel     string `json:"competitionLevel"`
	Seasonality          string `json:"seasonality"`
	ScalabilityPotential string `json:"scalabilityPotential"`
}
