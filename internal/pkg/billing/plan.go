package billing

import (
	"strings"

	"github.com/velorahq/velora/internal/pkg/env"
)

// PlanConfig maps an internal plan slug to its provider product and price.
type PlanConfig struct {
	Slug       string
	ProductID  string
	PriceCents int64
}

const defaultPlanSlug = "pro"

// GetPlanConfig resolves a plan slug to its checkout configuration. Product
// ids come from the environment since they differ per provider account.
func GetPlanConfig(slug string) (PlanConfig, bool) {
	switch normalizePlanSlug(slug) {
	case "starter":
		return PlanConfig{Slug: "starter", ProductID: env.GetEnv("DODO_PRODUCT_ID_STARTER", ""), PriceCents: 14900}, true
	case "pro":
		return PlanConfig{Slug: "pro", ProductID: env.GetEnv("DODO_PRODUCT_ID_PRO", ""), PriceCents: 49900}, true
	case "premium":
		return PlanConfig{Slug: "premium", ProductID: env.GetEnv("DODO_PRODUCT_ID_PREMIUM", ""), PriceCents: 129900}, true
	case "enterprise":
		return PlanConfig{Slug: "enterprise", ProductID: env.GetEnv("DODO_PRODUCT_ID_ENTERPRISE", ""), PriceCents: 199900}, true
	default:
		return PlanConfig{}, false
	}
}

// IsValidPlan reports whether a slug names a purchasable plan.
func IsValidPlan(slug string) bool {
	_, ok := GetPlanConfig(slug)
	return ok
}

func normalizePlanSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

// planSlugOrDefault falls back to the default paid plan when checkout
// metadata did not carry a slug.
func planSlugOrDefault(slug string) string {
	s := normalizePlanSlug(slug)
	if s == "" {
		return defaultPlanSlug
	}
	return s
}
