package memory

import (
	"context"
	"testing"
	"time"

	"textbehind-be/internal/entity"
	"textbehind-be/internal/repository/contract"
	"textbehind-be/internal/repository/specification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAccount(t *testing.T, repo *AccountRepository, externalId string) {
	t.Helper()
	err := repo.Create(context.Background(), &entity.UserAccount{
		ExternalIdentityId: externalId,
		SubscriptionTier:   entity.TierFree,
		SubscriptionStatus: entity.SubscriptionStatusInactive,
	})
	require.NoError(t, err)
}

func TestBillingGuardRejectsOlderEvents(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()
	seedAccount(t, repo, "user_1")

	now := time.Now()
	sub := &entity.ProviderSubscription{
		ProviderId: "sub_1",
		CustomerId: "cus_1",
		Status:     entity.SubscriptionStatusActive,
	}

	applied, err := repo.ApplySubscription(ctx, "user_1", sub, entity.TierMonthly, now)
	require.NoError(t, err)
	assert.True(t, applied)

	// An event older than the last applied one bounces off the guard
	applied, err = repo.ClearSubscription(ctx, "user_1", now.Add(-time.Minute))
	require.NoError(t, err)
	assert.False(t, applied)

	account, err := repo.FindOne(ctx, specification.ByExternalIdentityId{ExternalIdentityId: "user_1"})
	require.NoError(t, err)
	assert.True(t, account.IsPremium())
}

func TestBillingGuardAcceptsEqualTimestamp(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()
	seedAccount(t, repo, "user_1")

	now := time.Now()
	sub := &entity.ProviderSubscription{ProviderId: "sub_1", Status: entity.SubscriptionStatusActive}

	applied, err := repo.ApplySubscription(ctx, "user_1", sub, entity.TierMonthly, now)
	require.NoError(t, err)
	require.True(t, applied)

	// Same timestamp is not stale: two events in one provider batch share it
	applied, err = repo.ClearSubscription(ctx, "user_1", now)
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestGuardedUpdateOnMissingAccount(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	applied, err := repo.ApplyCheckoutCompleted(ctx, "ghost", "cus_1", time.Now())
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestIncrementUsageStopsAtLimit(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()
	seedAccount(t, repo, "user_1")

	for i := 1; i <= 3; i++ {
		count, applied, err := repo.IncrementUsage(ctx, "user_1", 3, false)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, i, count)
	}

	_, applied, err := repo.IncrementUsage(ctx, "user_1", 3, false)
	require.NoError(t, err)
	assert.False(t, applied)

	// Unlimited flag bypasses the limit comparison
	count, applied, err := repo.IncrementUsage(ctx, "user_1", 3, true)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 4, count)
}

func TestClearSubscriptionKeepsCustomerId(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()
	seedAccount(t, repo, "user_1")

	now := time.Now()
	_, err := repo.ApplyCheckoutCompleted(ctx, "user_1", "cus_1", now)
	require.NoError(t, err)

	applied, err := repo.ClearSubscription(ctx, "user_1", now.Add(time.Second))
	require.NoError(t, err)
	require.True(t, applied)

	account, err := repo.FindOne(ctx, specification.ByExternalIdentityId{ExternalIdentityId: "user_1"})
	require.NoError(t, err)
	require.NotNil(t, account.BillingCustomerId)
	assert.Equal(t, "cus_1", *account.BillingCustomerId)
	assert.Equal(t, entity.TierFree, account.SubscriptionTier)
}

func TestWebhookEventRepositoryDeduplicates(t *testing.T) {
	repo := NewWebhookEventRepository()
	ctx := context.Background()

	evt := &entity.WebhookEvent{Provider: "billing", ProviderEventId: "evt_1", EventType: "customer.subscription.created"}
	require.NoError(t, repo.Record(ctx, evt))

	err := repo.Record(ctx, &entity.WebhookEvent{Provider: "billing", ProviderEventId: "evt_1", EventType: "customer.subscription.created"})
	assert.ErrorIs(t, err, contract.ErrDuplicateEvent)

	// Same event id under a different provider namespace is distinct
	err = repo.Record(ctx, &entity.WebhookEvent{Provider: "identity", ProviderEventId: "evt_1", EventType: "user.updated"})
	assert.NoError(t, err)
}
