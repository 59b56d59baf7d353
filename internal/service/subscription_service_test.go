package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"textbehind-be/internal/billing"
	"textbehind-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subscriptionEvent(eventId string, kind entity.BillingEventKind, occurredAt time.Time, sub *entity.ProviderSubscription) *entity.BillingEvent {
	evt := &entity.BillingEvent{
		ProviderEventId: eventId,
		Kind:            kind,
		RawType:         string(kind),
		OccurredAt:      occurredAt,
		Subscription:    sub,
	}
	if sub != nil {
		evt.ExternalIdentityId = sub.ExternalIdentityId
		evt.CustomerId = sub.CustomerId
	}
	return evt
}

func activeSub(externalId string) *entity.ProviderSubscription {
	return &entity.ProviderSubscription{
		ProviderId:         "sub_1",
		CustomerId:         "cus_1",
		Status:             entity.SubscriptionStatusActive,
		PriceId:            "price_monthly",
		PeriodStart:        time.Now(),
		PeriodEnd:          time.Now().Add(30 * 24 * time.Hour),
		ExternalIdentityId: externalId,
	}
}

func TestReconcilerActivatesFromWebhook(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	evt := subscriptionEvent("evt_1", entity.BillingEventSubscriptionCreated, time.Now(), activeSub("user_1"))
	require.NoError(t, env.subs.HandleBillingEvent(ctx, evt))

	account, err := env.accounts.GetByExternalId(ctx, "user_1")
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.True(t, account.IsPremium())
	assert.Equal(t, entity.TierMonthly, account.SubscriptionTier)
	require.NotNil(t, account.SubscriptionId)
	assert.Equal(t, "sub_1", *account.SubscriptionId)
}

func TestReconcilerWebhookBeforeFirstRequestCreatesAccount(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// user_2 has never hit an authenticated endpoint and is unknown to the
	// fake identity admin API; the webhook must still land.
	evt := subscriptionEvent("evt_1", entity.BillingEventSubscriptionCreated, time.Now(), activeSub("user_2"))
	require.NoError(t, env.subs.HandleBillingEvent(ctx, evt))

	account, err := env.accounts.GetByExternalId(ctx, "user_2")
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.True(t, account.IsPremium())
}

func TestReconcilerDuplicateEventIdIsIgnored(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	created := subscriptionEvent("evt_1", entity.BillingEventSubscriptionCreated, time.Now(), activeSub("user_1"))
	require.NoError(t, env.subs.HandleBillingEvent(ctx, created))

	// Same event id redelivered with different content must be a no-op
	replay := subscriptionEvent("evt_1", entity.BillingEventSubscriptionDeleted, time.Now().Add(time.Hour), activeSub("user_1"))
	require.NoError(t, env.subs.HandleBillingEvent(ctx, replay))

	account, err := env.accounts.GetByExternalId(ctx, "user_1")
	require.NoError(t, err)
	assert.True(t, account.IsPremium(), "replayed event id must not change state")
}

func TestReconcilerStaleEventNotApplied(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	now := time.Now()
	newer := subscriptionEvent("evt_2", entity.BillingEventSubscriptionUpdated, now, activeSub("user_1"))
	require.NoError(t, env.subs.HandleBillingEvent(ctx, newer))

	// A cancellation that happened before the update, delivered late
	stale := subscriptionEvent("evt_1", entity.BillingEventSubscriptionDeleted, now.Add(-time.Hour), activeSub("user_1"))
	require.NoError(t, env.subs.HandleBillingEvent(ctx, stale))

	account, err := env.accounts.GetByExternalId(ctx, "user_1")
	require.NoError(t, err)
	assert.True(t, account.IsPremium(), "older event must not overwrite newer state")
}

func TestReconcilerDeletionResetsSubscription(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	now := time.Now()
	created := subscriptionEvent("evt_1", entity.BillingEventSubscriptionCreated, now, activeSub("user_1"))
	require.NoError(t, env.subs.HandleBillingEvent(ctx, created))

	deleted := subscriptionEvent("evt_2", entity.BillingEventSubscriptionDeleted, now.Add(time.Minute), activeSub("user_1"))
	require.NoError(t, env.subs.HandleBillingEvent(ctx, deleted))

	account, err := env.accounts.GetByExternalId(ctx, "user_1")
	require.NoError(t, err)
	assert.False(t, account.IsPremium())
	assert.Equal(t, entity.TierFree, account.SubscriptionTier)
	assert.Equal(t, entity.SubscriptionStatusCanceled, account.SubscriptionStatus)
	assert.Nil(t, account.SubscriptionId)
	assert.Nil(t, account.SubscriptionPeriodStart)
	assert.Nil(t, account.SubscriptionPeriodEnd)
	// Customer relationship survives for future checkouts
	require.NotNil(t, account.BillingCustomerId)
	assert.Equal(t, "cus_1", *account.BillingCustomerId)
}

func TestReconcilerEventWithoutIdentityIsAcked(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	sub := activeSub("")
	sub.CustomerId = "cus_unknown"
	evt := subscriptionEvent("evt_1", entity.BillingEventSubscriptionCreated, time.Now(), sub)

	// No metadata and no matching customer: logged and acked, never an error
	require.NoError(t, env.subs.HandleBillingEvent(ctx, evt))

	account, err := env.accounts.GetByExternalId(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, account)
}

func TestReconcilerResolvesAccountByCustomerId(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	now := time.Now()
	checkout := &entity.BillingEvent{
		ProviderEventId:    "evt_1",
		Kind:               entity.BillingEventCheckoutCompleted,
		RawType:            "checkout.session.completed",
		OccurredAt:         now,
		ExternalIdentityId: "user_1",
		CustomerId:         "cus_1",
	}
	require.NoError(t, env.subs.HandleBillingEvent(ctx, checkout))

	// Subscription event carrying only the customer id, no metadata
	sub := activeSub("")
	evt := subscriptionEvent("evt_2", entity.BillingEventSubscriptionCreated, now.Add(time.Second), sub)
	require.NoError(t, env.subs.HandleBillingEvent(ctx, evt))

	account, err := env.accounts.GetByExternalId(ctx, "user_1")
	require.NoError(t, err)
	assert.True(t, account.IsPremium())
}

func TestReconcilerUnhandledKindIsAcked(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	evt := &entity.BillingEvent{
		ProviderEventId: "evt_1",
		Kind:            entity.BillingEventUnhandled,
		RawType:         "invoice.paid",
		OccurredAt:      time.Now(),
	}
	require.NoError(t, env.subs.HandleBillingEvent(ctx, evt))
}

func TestSyncServesPersistedStateWhenProviderDown(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	created := subscriptionEvent("evt_1", entity.BillingEventSubscriptionCreated, time.Now(), activeSub("user_1"))
	require.NoError(t, env.subs.HandleBillingEvent(ctx, created))

	env.billing.err = errors.New("provider 503")

	res, err := env.subs.SyncFromProvider(ctx, "user_1")
	require.NoError(t, err, "provider outage must not fail the sync call")
	assert.True(t, res.Success)
	require.NotNil(t, res.User)
	assert.True(t, res.User.IsPremium, "persisted premium state is served as-is")
}

func TestSyncClearsWhenProviderHasNoSubscription(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	created := subscriptionEvent("evt_1", entity.BillingEventSubscriptionCreated, time.Now(), activeSub("user_1"))
	require.NoError(t, env.subs.HandleBillingEvent(ctx, created))

	// Provider authoritatively reports no subscription for the customer
	env.billing.subscription = nil

	res, err := env.subs.SyncFromProvider(ctx, "user_1")
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.NotNil(t, res.User)
	assert.False(t, res.User.IsPremium)
	assert.Equal(t, string(entity.TierFree), res.User.SubscriptionTier)
}

func TestSyncRefreshesFromProviderRead(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	checkout := &entity.BillingEvent{
		ProviderEventId:    "evt_1",
		Kind:               entity.BillingEventCheckoutCompleted,
		RawType:            "checkout.session.completed",
		OccurredAt:         time.Now(),
		ExternalIdentityId: "user_1",
		CustomerId:         "cus_1",
	}
	require.NoError(t, env.subs.HandleBillingEvent(ctx, checkout))

	// The subscription webhook never arrived; the provider read repairs it
	env.billing.subscription = activeSub("user_1")

	res, err := env.subs.SyncFromProvider(ctx, "user_1")
	require.NoError(t, err)
	require.NotNil(t, res.User)
	assert.True(t, res.User.IsPremium)
}

func TestSyncSessionRejectsForeignSession(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.billing.session = &billing.CheckoutSession{
		Id:                 "cs_test_1",
		CustomerId:         "cus_other",
		ExternalIdentityId: "someone_else",
		Completed:          true,
	}

	_, err := env.subs.SyncFromCheckoutSession(ctx, "user_1", "cs_test_1")
	assert.Error(t, err)
}

func TestSyncSessionRejectsIncompleteSession(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.billing.session = &billing.CheckoutSession{
		Id:                 "cs_test_1",
		ExternalIdentityId: "user_1",
		Completed:          false,
	}

	_, err := env.subs.SyncFromCheckoutSession(ctx, "user_1", "cs_test_1")
	assert.ErrorIs(t, err, ErrSessionIncomplete)

	// Completed but customer-less sessions are equally unusable
	env.billing.session = &billing.CheckoutSession{
		Id:                 "cs_test_1",
		ExternalIdentityId: "user_1",
		Completed:          true,
	}

	_, err = env.subs.SyncFromCheckoutSession(ctx, "user_1", "cs_test_1")
	assert.ErrorIs(t, err, ErrSessionIncomplete)
}

func TestGetStatusReflectsPersistedSubscription(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	created := subscriptionEvent("evt_1", entity.BillingEventSubscriptionCreated, time.Now(), activeSub("user_1"))
	require.NoError(t, env.subs.HandleBillingEvent(ctx, created))

	status, err := env.subs.GetStatus(ctx, "user_1")
	require.NoError(t, err)
	assert.True(t, status.IsPremium)
	assert.Equal(t, string(entity.TierMonthly), status.Tier)
	require.NotNil(t, status.Subscription)
	assert.Equal(t, "sub_1", status.Subscription.Id)
	assert.Equal(t, "cus_1", status.Subscription.CustomerId)
}
