package entitlements

import "strings"

type Tier string

const (
	TierFree       Tier = "free"
	TierStarter    Tier = "starter"
	TierPro        Tier = "pro"
	TierPremium    Tier = "premium"
	TierEnterprise Tier = "enterprise"
)

// Limits are the feature allowances attached to a subscription tier. The
// webhook pipeline moves users between tiers; this package answers what a
// tier is worth.
type Limits struct {
	Projects          int  `json:"projects"`
	APIRequestsPerDay int  `json:"api_requests_per_day"`
	PrioritySupport   bool `json:"priority_support"`
}

// ForTier returns the limits for a tier. Unknown tiers get the free limits so
// a bad tier value can only ever under-entitle.
func ForTier(tier string) Limits {
	switch Tier(strings.ToLower(strings.TrimSpace(tier))) {
	case TierStarter:
		return Limits{Projects: 3, APIRequestsPerDay: 1_000}
	case TierPro:
		return Limits{Projects: 10, APIRequestsPerDay: 10_000}
	case TierPremium:
		return Limits{Projects: 50, APIRequestsPerDay: 100_000, PrioritySupport: true}
	case TierEnterprise:
		return Limits{Projects: 500, APIRequestsPerDay: 1_000_000, PrioritySupport: true}
	default:
		return Limits{Projects: 1, APIRequestsPerDay: 100}
	}
}

// IsPaid reports whether the tier comes from a purchasable plan.
func IsPaid(tier string) bool {
	switch Tier(strings.ToLower(strings.TrimSpace(tier))) {
	case TierStarter, TierPro, TierPremium, TierEnterprise:
		return true
	default:
		return false
	}
}
