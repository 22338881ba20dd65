package domain

// Subscription tier constants.
const (
	TierFree       = "FREE"
	TierBasic      = "BASIC"
	TierPremium    = "PREMIUM"
	TierEnterprise = "ENTERPRISE"
)

// TierLimits describes what a subscription tier allows.
type TierLimits struct {
	Tier             string  `json:"tier"`
	MaxCourses       int     `json:"max_courses"`
	MonthlyPrice     float64 `json:"monthly_price"`
	AdvancedFeatures bool    `json:"advanced_features"`
}

// tierTable is the static tier catalog. MaxCourses caps the number of
// concurrent enrollments a registered user may hold.
var tierTable = map[string]TierLimits{
	TierFree:       {Tier: TierFree, MaxCourses: 3, MonthlyPrice: 0, AdvancedFeatures: false},
	TierBasic:      {Tier: TierBasic, MaxCourses: 10, MonthlyPrice: 9.99, AdvancedFeatures: true},
	TierPremium:    {Tier: TierPremium, MaxCourses: 25, MonthlyPrice: 19.99, AdvancedFeatures: true},
	TierEnterprise: {Tier: TierEnterprise, MaxCourses: 100, MonthlyPrice: 49.99, AdvancedFeatures: true},
}

// LimitsFor resolves a tier to its limits. The second return is false for
// unknown tiers.
func LimitsFor(tier string) (TierLimits, bool) {
	limits, ok := tierTable[tier]
	return limits, ok
}

// IsValidTier checks whether the given tier is defined.
func IsValidTier(tier string) bool {
	_, ok := tierTable[tier]
	return ok
}

// AllTiers returns the tier catalog in ascending price order.
func AllTiers() []TierLimits {
	return []TierLimits{
		tierTable[TierFree],
		tierTable[TierBasic],
		tierTable[TierPremium],
		tierTable[TierEnterprise],
	}
}
