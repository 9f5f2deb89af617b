package models

import "strings"

// Plan is a purchasable subscription plan.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

var planPrices = map[Plan]int64{
	PlanFree:       0,
	PlanPro:        2900,
	PlanEnterprise: 9900,
}

func ParsePlan(raw string) (Plan, bool) {
	p := Plan(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := planPrices[p]
	return p, ok
}

// PriceCents is the fixed unit amount charged at checkout.
func (p Plan) PriceCents() int64 {
	return planPrices[p]
}

func (p Plan) DisplayName() string {
	if p == "" {
		return ""
	}
	s := string(p)
	return strings.ToUpper(s[:1]) + s[1:] + " Plan"
}

// Tier maps a purchased plan onto the subscription state it grants.
func (p Plan) Tier() Tier {
	switch p {
	case PlanPro:
		return TierPro
	case PlanEnterprise:
		return TierEnterprise
	default:
		return TierPaid
	}
}

type CheckoutResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId"`
	Plan      Plan   `json:"plan"`
}
