package usecase

import (
	"strings"

	"github.com/kirillkom/compliance-navigator/internal/core/analysis"
	"github.com/kirillkom/compliance-navigator/internal/core/domain"
)

// Udyam limits in crore rupees: investment in plant and machinery, and
// annual turnover. Both must hold for a tier.
var udyamTiers = []struct {
	size       string
	investment float64
	turnover   float64
}{
	{"micro", 1, 5},
	{"small", 10, 50},
	{"medium", 50, 250},
}

var sectorKeywords = []struct {
	sector   string
	category string
	keywords []string
}{
	{"Food & Beverage", "Services", []string{"restaurant", "cafe", "café", "catering", "bakery", "cloud kitchen", "food", "tiffin", "sweet"}},
	{"Manufacturing", "Manufacturing", []string{"manufactur", "factory", "production", "fabrication", "textile", "garment", "printing"}},
	{"Retail & Trading", "Trading", []string{"shop", "store", "retail", "trading", "wholesale", "grocery", "kirana", "e-commerce", "ecommerce"}},
}

// ClassifyBusiness estimates the sector and Udyam size tier of a business.
// The size is "unclassified" when neither investment nor turnover is known.
func ClassifyBusiness(profile domain.BusinessProfile) domain.BusinessClassification {
	out := domain.BusinessClassification{Sector: "Services", Category: "Services"}

	lower := strings.ToLower(profile.BusinessType)
	for _, s := range sectorKeywords {
		if analysis.ContainsAny(lower, s.keywords...) {
			out.Sector = s.sector
			out.Category = s.category
			break
		}
	}

	if profile.InvestmentCrore <= 0 && profile.TurnoverCrore <= 0 {
		out.Size = "unclassified"
		return out
	}
	out.Size = "large"
	for _, tier := range udyamTiers {
		if profile.InvestmentCrore <= tier.investment && profile.TurnoverCrore <= tier.turnover {
			out.Size = tier.size
			break
		}
	}
	return out
}
