package billing

import (
	"fmt"

	"textbehind-be/internal/config"
	"textbehind-be/internal/entity"
)

// Plan is a purchasable subscription option shown at checkout.
type Plan struct {
	Type    entity.SubscriptionTier
	Name    string
	PriceId string
	Price   float64
}

// PlanCatalog maps plan types to provider price ids. Prices here are display
// values only; the provider's price object is authoritative at charge time.
type PlanCatalog struct {
	plans map[entity.SubscriptionTier]Plan
}

func NewPlanCatalog(cfg config.BillingConfig) *PlanCatalog {
	return &PlanCatalog{
		plans: map[entity.SubscriptionTier]Plan{
			entity.TierMonthly: {
				Type:    entity.TierMonthly,
				Name:    "TextBehind Pro Monthly",
				PriceId: cfg.MonthlyPriceId,
				Price:   9.99,
			},
			entity.TierYearly: {
				Type:    entity.TierYearly,
				Name:    "TextBehind Pro Yearly",
				PriceId: cfg.YearlyPriceId,
				Price:   59.99,
			},
		},
	}
}

func (c *PlanCatalog) PlanForType(planType string) (Plan, error) {
	plan, ok := c.plans[entity.SubscriptionTier(planType)]
	if !ok {
		return Plan{}, fmt.Errorf("unknown plan type: %s", planType)
	}
	return plan, nil
}
