package usecase

import (
	"testing"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
)

func TestClassifyBusiness(t *testing.T) {
	tests := []struct {
		profile domain.BusinessProfile
		sector  string
		size    string
	}{
		{domain.BusinessProfile{BusinessType: "Restaurant", InvestmentCrore: 1, TurnoverCrore: 5}, "Food & Beverage", "micro"},
		{domain.BusinessProfile{BusinessType: "garment manufacturing", InvestmentCrore: 2, TurnoverCrore: 5}, "Manufacturing", "small"},
		{domain.BusinessProfile{BusinessType: "kirana store", InvestmentCrore: 0.5, TurnoverCrore: 60}, "Retail & Trading", "medium"},
		{domain.BusinessProfile{BusinessType: "IT consulting", InvestmentCrore: 60}, "Services", "large"},
		{domain.BusinessProfile{BusinessType: "tuition centre"}, "Services", "unclassified"},
	}
	for _, tt := range tests {
		got := ClassifyBusiness(tt.profile)
		if got.Sector != tt.sector || got.Size != tt.size {
			t.Fatalf("ClassifyBusiness(%+v) = %+v, want %s/%s", tt.profile, got, tt.sector, tt.size)
		}
	}
}
