// FILE: internal/entity/account_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionTier string
type SubscriptionStatus string

const (
	TierFree    SubscriptionTier = "free"
	TierMonthly SubscriptionTier = "monthly"
	TierYearly  SubscriptionTier = "yearly"

	SubscriptionStatusInactive SubscriptionStatus = "inactive"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	// Provider-passthrough statuses, mirrored verbatim.
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusUnpaid   SubscriptionStatus = "unpaid"
)

// IsPremium is the single entitlement predicate. Every place that checks
// premium access (gate, reconciler, status endpoint) must go through this
// function so the definition cannot drift.
func IsPremium(tier SubscriptionTier, status SubscriptionStatus) bool {
	return (tier == TierMonthly || tier == TierYearly) && status == SubscriptionStatusActive
}

// TierForPrice derives the tier from a billing-provider price identifier.
// Anything that is not the configured yearly price resolves to monthly;
// there is no "unknown" tier.
func TierForPrice(priceId, yearlyPriceId string) SubscriptionTier {
	if priceId != "" && priceId == yearlyPriceId {
		return TierYearly
	}
	return TierMonthly
}

// UserAccount mirrors identity, billing and usage state for one end-user.
// The identity provider owns the profile fields, the billing provider owns
// the subscription fields; this row is an eventually-consistent mirror.
type UserAccount struct {
	Id                 uuid.UUID
	ExternalIdentityId string
	Email              string
	FirstName          string
	LastName           string
	FullName           string
	AvatarURL          *string

	BillingCustomerId             *string
	SubscriptionId                *string
	SubscriptionTier              SubscriptionTier
	SubscriptionStatus            SubscriptionStatus
	SubscriptionPeriodStart       *time.Time
	SubscriptionPeriodEnd         *time.Time
	SubscriptionCancelAtPeriodEnd bool
	// LastBillingEventAt is the version guard: a billing event older than this
	// timestamp is stale and must not be applied.
	LastBillingEventAt *time.Time

	UsageCount  int
	Preferences map[string]interface{}

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *UserAccount) IsPremium() bool {
	return IsPremium(a.SubscriptionTier, a.SubscriptionStatus)
}
