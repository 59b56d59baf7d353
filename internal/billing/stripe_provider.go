package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"textbehind-be/internal/entity"
)

// metadataKey is set on both the checkout session and the subscription so
// every webhook can be traced back to an account without extra lookups.
const metadataKey = "external_identity_id"

type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	return &StripeProvider{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
	}
}

var _ Provider = (*StripeProvider)(nil)

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	sessionParams := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(params.PriceId),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(params.SuccessURL),
		CancelURL:         stripe.String(params.CancelURL),
		ClientReferenceID: stripe.String(params.ExternalIdentityId),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{metadataKey: params.ExternalIdentityId},
		},
	}
	sessionParams.Context = ctx
	sessionParams.AddMetadata(metadataKey, params.ExternalIdentityId)

	// Reuse the existing customer when we already have one so the provider
	// does not accumulate duplicate customer objects per user.
	if params.CustomerId != "" {
		sessionParams.Customer = stripe.String(params.CustomerId)
	} else if params.Email != "" {
		sessionParams.CustomerEmail = stripe.String(params.Email)
	}

	session, err := p.api.CheckoutSessions.New(sessionParams)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return mapCheckoutSession(session), nil
}

func (p *StripeProvider) GetCheckoutSession(ctx context.Context, sessionId string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := p.api.CheckoutSessions.Get(sessionId, params)
	if err != nil {
		return nil, fmt.Errorf("get checkout session %s: %w", sessionId, err)
	}
	return mapCheckoutSession(session), nil
}

func (p *StripeProvider) GetSubscription(ctx context.Context, subscriptionId string) (*entity.ProviderSubscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := p.api.Subscriptions.Get(subscriptionId, params)
	if err != nil {
		return nil, fmt.Errorf("get subscription %s: %w", subscriptionId, err)
	}
	return mapSubscription(sub), nil
}

func (p *StripeProvider) LatestSubscription(ctx context.Context, customerId string) (*entity.ProviderSubscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerId),
		Status:   stripe.String("all"),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := p.api.Subscriptions.List(params)
	for iter.Next() {
		return mapSubscription(iter.Subscription()), nil
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list subscriptions for %s: %w", customerId, err)
	}
	return nil, ErrNotFound
}

func (p *StripeProvider) CreatePortalSession(ctx context.Context, customerId, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerId),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	session, err := p.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create portal session for %s: %w", customerId, err)
	}
	return session.URL, nil
}

func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*entity.BillingEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	be := &entity.BillingEvent{
		ProviderEventId: event.ID,
		RawType:         string(event.Type),
		OccurredAt:      time.Unix(event.Created, 0).UTC(),
	}

	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("decode checkout.session.completed: %w", err)
		}
		be.Kind = entity.BillingEventCheckoutCompleted
		be.ExternalIdentityId = checkoutIdentity(&session)
		if session.Customer != nil {
			be.CustomerId = session.Customer.ID
		}

	case "customer.subscription.created", "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("decode %s: %w", event.Type, err)
		}
		if event.Type == "customer.subscription.created" {
			be.Kind = entity.BillingEventSubscriptionCreated
		} else {
			be.Kind = entity.BillingEventSubscriptionUpdated
		}
		be.Subscription = mapSubscription(&sub)
		be.ExternalIdentityId = be.Subscription.ExternalIdentityId
		be.CustomerId = be.Subscription.CustomerId

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("decode customer.subscription.deleted: %w", err)
		}
		be.Kind = entity.BillingEventSubscriptionDeleted
		be.Subscription = mapSubscription(&sub)
		be.ExternalIdentityId = be.Subscription.ExternalIdentityId
		be.CustomerId = be.Subscription.CustomerId

	default:
		be.Kind = entity.BillingEventUnhandled
	}

	return be, nil
}

func mapCheckoutSession(session *stripe.CheckoutSession) *CheckoutSession {
	cs := &CheckoutSession{
		Id:                 session.ID,
		URL:                session.URL,
		ExternalIdentityId: checkoutIdentity(session),
		Completed:          session.Status == stripe.CheckoutSessionStatusComplete,
	}
	if session.Customer != nil {
		cs.CustomerId = session.Customer.ID
	}
	if session.Subscription != nil {
		cs.SubscriptionId = session.Subscription.ID
	}
	return cs
}

// checkoutIdentity prefers session metadata but falls back to the client
// reference id, which older checkout links still carry.
func checkoutIdentity(session *stripe.CheckoutSession) string {
	if id := session.Metadata[metadataKey]; id != "" {
		return id
	}
	return session.ClientReferenceID
}

func mapSubscription(sub *stripe.Subscription) *entity.ProviderSubscription {
	ps := &entity.ProviderSubscription{
		ProviderId:         sub.ID,
		Status:             entity.SubscriptionStatus(sub.Status),
		PeriodStart:        time.Unix(sub.CurrentPeriodStart, 0).UTC(),
		PeriodEnd:          time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		ExternalIdentityId: sub.Metadata[metadataKey],
	}
	if sub.Customer != nil {
		ps.CustomerId = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		ps.PriceId = sub.Items.Data[0].Price.ID
	}
	return ps
}
