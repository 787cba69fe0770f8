package usecase

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
)

const (
	defaultBudgetRupees = 100000
	maxRecommendations  = 5
	croreRupees         = 10000000
	revenueToInvestment = 0.3
)

type catalogueBusiness struct {
	kind      string
	name      string
	minRupees int64
	maxRupees int64
	licenses  []string
	timeline  string
	marginLow int
	marginHi  int
	trending  bool
}

func (b catalogueBusiness) averageMargin() float64 {
	return float64(b.marginLow+b.marginHi) / 2
}

type catalogueCategory struct {
	key        string
	name       string
	businesses []catalogueBusiness
}

// businessCatalogue is ordered; ties in score keep this order.
var businessCatalogue = []catalogueCategory{
	{key: "food_service", name: "Food Service", businesses: []catalogueBusiness{
		{"restaurant", "Restaurant", 200000, 2000000, []string{"FSSAI", "FIRE_NOC", "SHOPS_ACT", "GST"}, "45-90 days", 15, 25, true},
		{"cafe", "Cafe/Coffee Shop", 150000, 800000, []string{"FSSAI", "SHOPS_ACT", "GST"}, "30-60 days", 20, 30, true},
		{"cloud_kitchen", "Cloud Kitchen", 100000, 500000, []string{"FSSAI", "GST"}, "15-30 days", 25, 35, true},
		{"catering", "Catering Service", 50000, 300000, []string{"FSSAI", "GST"}, "15-30 days", 20, 30, false},
	}},
	{key: "retail", name: "Retail", businesses: []catalogueBusiness{
		{"grocery_store", "Grocery Store", 100000, 1000000, []string{"SHOPS_ACT", "GST", "FSSAI"}, "30-45 days", 8, 15, false},
		{"clothing_store", "Clothing Store", 200000, 1500000, []string{"SHOPS_ACT", "GST"}, "30-45 days", 40, 60, false},
		{"pharmacy", "Pharmacy", 300000, 1000000, []string{"DRUG_LICENSE", "SHOPS_ACT", "GST"}, "60-90 days", 15, 25, false},
	}},
	{key: "manufacturing", name: "Manufacturing", businesses: []catalogueBusiness{
		{"textile_manufacturing", "Textile Manufacturing", 1000000, 10000000, []string{"GST", "POLLUTION_CLEARANCE", "LABOR_LICENSE", "FIRE_NOC"}, "90-180 days", 20, 35, false},
		{"food_processing", "Food Processing", 500000, 5000000, []string{"FSSAI", "GST", "POLLUTION_CLEARANCE", "FIRE_NOC"}, "60-120 days", 25, 40, false},
		{"handicrafts", "Handicrafts Manufacturing", 50000, 500000, []string{"GST", "MSME_UDYAM"}, "15-30 days", 30, 50, false},
	}},
	{key: "services", name: "Services", businesses: []catalogueBusiness{
		{"digital_marketing", "Digital Marketing Agency", 50000, 300000, []string{"GST", "PROFESSIONAL_TAX"}, "15-30 days", 40, 60, true},
		{"logistics", "Logistics Service", 200000, 2000000, []string{"GST", "GOODS_CARRIAGE_PERMIT"}, "45-90 days", 15, 25, true},
		{"consulting", "Business Consulting", 25000, 200000, []string{"GST", "PROFESSIONAL_TAX"}, "15-30 days", 50, 70, false},
	}},
	{key: "technology", name: "Technology", businesses: []catalogueBusiness{
		{"software_development", "Software Development", 100000, 1000000, []string{"GST", "PROFESSIONAL_TAX", "STARTUP_INDIA"}, "30-60 days", 35, 55, true},
		{"app_development", "Mobile App Development", 50000, 500000, []string{"GST", "STARTUP_INDIA"}, "15-45 days", 40, 60, true},
		{"web_design", "Web Design Agency", 30000, 300000, []string{"GST"}, "15-30 days", 45, 65, false},
	}},
}

type locationTier struct {
	cities   []string
	suitable []string
}

var locationTiers = map[string]locationTier{
	"metro": {
		cities:   []string{"Delhi", "Mumbai", "Kolkata", "Chennai", "Bangalore", "Hyderabad"},
		suitable: []string{"technology", "services", "food_service"},
	},
	"tier2": {
		cities:   []string{"Pune", "Ahmedabad", "Surat", "Jaipur", "Lucknow", "Kanpur"},
		suitable: []string{"manufacturing", "retail", "services"},
	},
	"tier3": {
		suitable: []string{"retail", "food_service", "manufacturing"},
	},
}

var marketTrends = map[string]string{
	"cloud_kitchen":        "Growing rapidly due to online food delivery boom",
	"digital_marketing":    "High demand as businesses go digital",
	"software_development": "Consistent growth in digital transformation",
	"app_development":      "Mobile-first approach driving demand",
}

var seasonality = map[string]string{
	"restaurant":     "Peak during festivals and holidays",
	"clothing_store": "High during festival seasons",
	"handicrafts":    "Peak during tourist season",
}

var (
	highCompetition   = []string{"restaurant", "cafe", "grocery_store", "clothing_store"}
	mediumCompetition = []string{"catering", "pharmacy", "consulting"}
	highScalability   = []string{"software_development", "app_development", "digital_marketing", "cloud_kitchen"}
	mediumScalability = []string{"catering", "consulting", "logistics"}
)

var rupeePrinter = message.NewPrinter(language.English)

// recommendationProfile is a BusinessProfile with defaults applied.
type recommendationProfile struct {
	budget     int64
	experience string
	risk       string
	location   string
}

func newRecommendationProfile(p domain.BusinessProfile) recommendationProfile {
	out := recommendationProfile{
		budget:     defaultBudgetRupees,
		experience: strings.ToLower(strings.TrimSpace(p.Experience)),
		risk:       strings.ToLower(strings.TrimSpace(p.RiskTolerance)),
		location:   LocationTier(p.City),
	}
	if p.InvestmentCrore > 0 {
		out.budget = int64(math.Round(p.InvestmentCrore * croreRupees))
	}
	if out.experience == "" {
		out.experience = "beginner"
	}
	if out.risk == "" {
		out.risk = "medium"
	}
	return out
}

// LocationTier maps a city to "metro", "tier2" or "tier3". An unknown city
// is tier3; no city at all is treated as tier2.
func LocationTier(city string) string {
	city = strings.TrimSpace(city)
	if city == "" {
		return "tier2"
	}
	for _, tier := range []string{"metro", "tier2"} {
		for _, c := range locationTiers[tier].cities {
			if strings.EqualFold(c, city) {
				return tier
			}
		}
	}
	return "tier3"
}

// RecommendBusinesses ranks the catalogue businesses a profile can afford
// and returns at most five, best first. A business is affordable when the
// budget is at least its minimum and at most twice its maximum.
func RecommendBusinesses(profile domain.BusinessProfile) []domain.BusinessRecommendation {
	p := newRecommendationProfile(profile)

	var out []domain.BusinessRecommendation
	for _, category := range businessCatalogue {
		for _, b := range category.businesses {
			if p.budget < b.minRupees || p.budget > b.maxRupees*2 {
				continue
			}
			out = append(out, domain.BusinessRecommendation{
				Type:                b.kind,
				Name:                b.name,
				Category:            category.name,
				CategoryKey:         category.key,
				InvestmentMin:       b.minRupees,
				InvestmentMax:       b.maxRupees,
				InvestmentRange:     investmentRange(b),
				Licenses:            b.licenses,
				LicensesRequired:    len(b.licenses),
				Timeline:            b.timeline,
				ProfitMargin:        fmt.Sprintf("%d-%d%%", b.marginLow, b.marginHi),
				Trending:            b.trending,
				Score:               recommendationScore(b, p),
				Reasoning:           recommendationReasons(b, p),
				LocationSuitability: locationSuitability(category.key, p.location),
				EstimatedROI:        estimatedROI(b),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > maxRecommendations {
		out = out[:maxRecommendations]
	}
	return out
}

func recommendationScore(b catalogueBusiness, p recommendationProfile) int {
	score := 50
	if float64(p.budget) >= float64(b.minRupees+b.maxRupees)/2 {
		score += 20
	} else {
		score += 10
	}
	if b.trending {
		score += 15
	}
	if p.experience == "beginner" && len(b.licenses) <= 3 {
		score += 15
	}
	if p.experience == "experienced" && len(b.licenses) > 3 {
		score += 10
	}
	margin := b.averageMargin()
	if p.risk == "high" && margin > 30 {
		score += 15
	}
	if p.risk == "low" && margin < 25 {
		score += 10
	}
	return min(score, 100)
}

func recommendationReasons(b catalogueBusiness, p recommendationProfile) []string {
	var reasons []string
	if b.trending {
		reasons = append(reasons, "Currently trending in the market")
	}
	if len(b.licenses) <= 3 {
		reasons = append(reasons, "Relatively simple licensing process")
	}
	if b.minRupees <= p.budget {
		reasons = append(reasons, "Fits within your budget range")
	}
	if b.averageMargin() > 25 {
		reasons = append(reasons, "High profit margin potential")
	}
	return reasons
}

func locationSuitability(categoryKey, tier string) string {
	loc, ok := locationTiers[tier]
	if !ok {
		return "neutral"
	}
	if slices.Contains(loc.suitable, categoryKey) {
		return "highly_suitable"
	}
	return "suitable"
}

// estimatedROI is the annual profit as a percentage of the average
// investment, assuming monthly revenue of 30% of that investment.
func estimatedROI(b catalogueBusiness) int {
	investment := float64(b.minRupees+b.maxRupees) / 2
	monthlyProfit := investment * revenueToInvestment * b.averageMargin() / 100
	return int(math.Round(monthlyProfit * 12 / investment * 100))
}

func investmentRange(b catalogueBusiness) string {
	return rupeePrinter.Sprintf("₹%d - ₹%d", b.minRupees, b.maxRupees)
}

// BusinessInsightsFor looks up market notes for a catalogue business by
// type key ("cloud_kitchen") or display name ("Cloud Kitchen").
func BusinessInsightsFor(businessType string) (domain.BusinessInsights, bool) {
	lower := strings.ToLower(strings.TrimSpace(businessType))
	key := strings.NewReplacer(" ", "_", "/", "_", "-", "_").Replace(lower)
	for _, category := range businessCatalogue {
		for _, b := range category.businesses {
			if b.kind != key && strings.ToLower(b.name) != lower {
				continue
			}
			return domain.BusinessInsights{
				Type:                 b.kind,
				Name:                 b.name,
				MarketTrends:         lookupOr(marketTrends, b.kind, "Stable market with steady growth opportunities"),
				CompetitionLevel:     tierOf(b.kind, highCompetition, mediumCompetition, "low"),
				Seasonality:          lookupOr(seasonality, b.kind, "Consistent demand throughout the year"),
				ScalabilityPotential: tierOf(b.kind, highScalability, mediumScalability, "limited"),
			}, true
		}
	}
	return domain.BusinessInsights{}, false
}

func lookupOr(m map[string]string, key, fallback string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}

func tierOf(kind string, high, medium []string, fallback string) string {
	switch {
	case slices.Contains(high, kind):
		return "high"
	case slices.Contains(medium, kind):
		return "medium"
	}
	return fallback
}
