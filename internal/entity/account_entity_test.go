package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPremium(t *testing.T) {
	tests := []struct {
		name   string
		tier   SubscriptionTier
		status SubscriptionStatus
		want   bool
	}{
		{"monthly active", TierMonthly, SubscriptionStatusActive, true},
		{"yearly active", TierYearly, SubscriptionStatusActive, true},
		{"free active", TierFree, SubscriptionStatusActive, false},
		{"monthly canceled", TierMonthly, SubscriptionStatusCanceled, false},
		{"monthly past_due", TierMonthly, SubscriptionStatusPastDue, false},
		{"yearly inactive", TierYearly, SubscriptionStatusInactive, false},
		{"yearly trialing", TierYearly, SubscriptionStatusTrialing, false},
		{"free inactive", TierFree, SubscriptionStatusInactive, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPremium(tt.tier, tt.status))
		})
	}
}

func TestUserAccountIsPremiumMatchesPredicate(t *testing.T) {
	a := &UserAccount{SubscriptionTier: TierMonthly, SubscriptionStatus: SubscriptionStatusActive}
	assert.True(t, a.IsPremium())

	a.SubscriptionStatus = SubscriptionStatusCanceled
	assert.False(t, a.IsPremium())
}

func TestTierForPrice(t *testing.T) {
	const yearly = "price_yearly_123"

	assert.Equal(t, TierYearly, TierForPrice("price_yearly_123", yearly))
	assert.Equal(t, TierMonthly, TierForPrice("price_monthly_456", yearly))
	// Unknown price ids resolve to monthly, never to an error state
	assert.Equal(t, TierMonthly, TierForPrice("price_does_not_exist", yearly))
	// Empty price never matches, even if the yearly config is empty too
	assert.Equal(t, TierMonthly, TierForPrice("", ""))
}
