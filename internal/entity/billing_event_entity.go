// FILE: internal/entity/billing_event_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type BillingEventKind string

const (
	BillingEventCheckoutCompleted   BillingEventKind = "checkout_completed"
	BillingEventSubscriptionCreated BillingEventKind = "subscription_created"
	BillingEventSubscriptionUpdated BillingEventKind = "subscription_updated"
	BillingEventSubscriptionDeleted BillingEventKind = "subscription_deleted"
	BillingEventUnhandled           BillingEventKind = "unhandled"
)

// ProviderSubscription is the normalized view of the billing provider's
// subscription object, detached from any SDK type.
type ProviderSubscription struct {
	ProviderId         string
	CustomerId         string
	Status             SubscriptionStatus
	PriceId            string
	PeriodStart        time.Time
	PeriodEnd          time.Time
	CancelAtPeriodEnd  bool
	ExternalIdentityId string // from subscription metadata; empty if absent
}

// BillingEvent is the tagged variant every inbound billing webhook is parsed
// into before it reaches the reconciler. One case per event type; no loose
// payload bags.
type BillingEvent struct {
	ProviderEventId    string
	Kind               BillingEventKind
	RawType            string // provider event type string, for logging
	OccurredAt         time.Time
	ExternalIdentityId string
	CustomerId         string
	Subscription       *ProviderSubscription // set for created/updated events
}

// WebhookEvent is the persisted dedup record for inbound webhooks.
type WebhookEvent struct {
	Id              uuid.UUID
	Provider        string
	ProviderEventId string
	EventType       string
	ProcessedAt     *time.Time
	ProcessingError string
	CreatedAt       time.Time
}
