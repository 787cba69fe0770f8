package usecase

// Handler names used as keys of the sampling profile table.
const (
	HandlerIntent           = "intent"
	HandlerGeneral          = "general"
	HandlerDocumentAnalysis = "document_analysis"
	HandlerFSSAI            = "fssai"
	HandlerDiscovery        = "discovery"
	HandlerCompliance       = "compliance"
	HandlerTimeline         = "timeline"
	HandlerPlatform         = "platform"
)

// SamplingProfile holds the model parameters of one handler. MaxTokens 0
// leaves the model default in place.
type SamplingProfile struct {
	Temperature float64
	MaxTokens   int
}

type SamplingProfiles map[string]SamplingProfile

func DefaultSamplingProfiles() SamplingProfiles {
	return SamplingProfiles{
		HandlerIntent:           {Temperature: 0.2},
		HandlerGeneral:          {Temperature: 0.4, MaxTokens: 300},
		HandlerDocumentAnalysis: {Temperature: 0.2, MaxTokens: 800},
		HandlerFSSAI:            {Temperature: 0.3, MaxTokens: 800},
		HandlerDiscovery:        {Temperature: 0.5, MaxTokens: 600},
		HandlerCompliance:       {Temperature: 0.3, MaxTokens: 800},
		HandlerTimeline:         {Temperature: 0.3, MaxTokens: 600},
		HandlerPlatform:         {Temperature: 0.4, MaxTokens: 600},
	}
}

// Get returns the profile for a handler, falling back to the defaults for
// handlers missing from p.
func (p SamplingProfiles) Get(handler string) SamplingProfile {
	if profile, ok := p[handler]; ok {
		return profile
	}
	return DefaultSamplingProfiles()[handler]
}
