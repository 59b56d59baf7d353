package contract

import (
	"context"
	"time"

	"textbehind-be/internal/entity"
	"textbehind-be/internal/repository/specification"
)

// AccountRepository persists UserAccount rows. Billing mutations are
// column-scoped and guarded by last_billing_event_at so the reconciler and the
// usage gate can write concurrently without clobbering each other, and so a
// delayed webhook cannot overwrite newer state. The boolean result of the
// guarded methods reports whether the update was applied (false = stale event
// or missing account).
type AccountRepository interface {
	Create(ctx context.Context, account *entity.UserAccount) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.UserAccount, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.UserAccount, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// Profile mirror (identity provider is source of truth)
	UpdateProfile(ctx context.Context, externalId string, email, firstName, lastName, fullName string, avatarURL *string) error

	// Billing mirror (billing provider is source of truth)
	ApplyCheckoutCompleted(ctx context.Context, externalId, customerId string, eventAt time.Time) (bool, error)
	ApplySubscription(ctx context.Context, externalId string, sub *entity.ProviderSubscription, tier entity.SubscriptionTier, eventAt time.Time) (bool, error)
	ClearSubscription(ctx context.Context, externalId string, eventAt time.Time) (bool, error)

	// Usage counter. Atomic conditional increment: the row is updated only if
	// unlimited is set or usage_count is still below limit. Returns the
	// post-increment count and whether the increment was applied.
	IncrementUsage(ctx context.Context, externalId string, limit int, unlimited bool) (int, bool, error)
}
