// Package billing wraps the payment provider behind a narrow adapter so the
// reconciler and controllers never touch SDK types directly.
package billing

import (
	"context"
	"errors"

	"textbehind-be/internal/entity"
)

var (
	ErrInvalidSignature = errors.New("billing: invalid webhook signature")
	ErrNotFound         = errors.New("billing: object not found")
)

// CheckoutParams carries everything needed to open a hosted checkout.
// CustomerId is optional; when empty the provider creates a new customer
// from Email.
type CheckoutParams struct {
	ExternalIdentityId string
	Email              string
	CustomerId         string
	PriceId            string
	SuccessURL         string
	CancelURL          string
}

// CheckoutSession is the normalized view of a provider checkout session.
type CheckoutSession struct {
	Id                 string
	URL                string
	CustomerId         string
	SubscriptionId     string
	ExternalIdentityId string
	Completed          bool
}

type Provider interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionId string) (*CheckoutSession, error)
	GetSubscription(ctx context.Context, subscriptionId string) (*entity.ProviderSubscription, error)
	// LatestSubscription returns the most recent subscription for a customer,
	// or ErrNotFound when the customer has none.
	LatestSubscription(ctx context.Context, customerId string) (*entity.ProviderSubscription, error)
	CreatePortalSession(ctx context.Context, customerId, returnURL string) (string, error)
	// ParseWebhook verifies the signature and normalizes the payload into a
	// BillingEvent. A signature failure returns ErrInvalidSignature; event
	// types the reconciler does not handle come back with KindUnhandled.
	ParseWebhook(payload []byte, signature string) (*entity.BillingEvent, error)
}
