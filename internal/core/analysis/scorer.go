package analysis

import "github.com/kirillkom/compliance-navigator/internal/core/domain"

// Band thresholds for the summary label. Batch aggregation uses its own
// completeness threshold.
const (
	CompleteBand = 80
	PartialBand  = 60
)

const (
	fieldWeight  = 20
	validWeight  = 15
	issuePenalty = 10
)

const (
	LabelComplete   = "✅ Document appears complete and valid"
	LabelPartial    = "⚠️ Document has some missing information"
	LabelIncomplete = "❌ Document may be incomplete or invalid"
)

// Score computes the 0-100 confidence of a document analysis and returns
// recommendations with the band label prepended. An empty field map scores 0
// and leaves recommendations untouched.
func Score(fields domain.FieldMap, statuses map[string]domain.ValidationStatus, issues []string, recommendations []string) (int, []string) {
	if len(fields) == 0 {
		return 0, recommendations
	}

	valid := 0
	for _, status := range statuses {
		if status.Valid {
			valid++
		}
	}

	confidence := len(fields)*fieldWeight + valid*validWeight - len(issues)*issuePenalty
	confidence = min(100, max(0, confidence))

	out := make([]string, 0, len(recommendations)+1)
	out = append(out, BandLabel(confidence))
	out = append(out, recommendations...)
	return confidence, out
}

// BandLabel returns the summary label for a confidence value.
func BandLabel(confidence int) string {
	switch {
	case confidence >= CompleteBand:
		return LabelComplete
	case confidence >= PartialBand:
		return LabelPartial
	default:
		return LabelIncomplete
	}
}
