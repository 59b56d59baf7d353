package memory

import (
	"context"
	"sync"
	"time"

	"textbehind-be/internal/entity"
	"textbehind-be/internal/repository/contract"
	"textbehind-be/internal/repository/specification"

	"github.com/google/uuid"
)

// AccountRepository is the in-memory record store used when no database is
// configured (mock mode) and by the service tests. It mirrors the semantics of
// the gorm implementation, including the billing-event guard and the atomic
// conditional usage increment.
type AccountRepository struct {
	mu       sync.Mutex
	accounts map[string]*entity.UserAccount // keyed by ExternalIdentityId
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		accounts: make(map[string]*entity.UserAccount),
	}
}

func (r *AccountRepository) clone(a *entity.UserAccount) *entity.UserAccount {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}

func (r *AccountRepository) Create(ctx context.Context, account *entity.UserAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if account.Id == uuid.Nil {
		account.Id = uuid.New()
	}
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	r.accounts[account.ExternalIdentityId] = r.clone(account)
	return nil
}

func (r *AccountRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.UserAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if matchesAll(a, specs) {
			return r.clone(a), nil
		}
	}
	return nil, nil
}

func (r *AccountRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.UserAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.UserAccount
	for _, a := range r.accounts {
		if matchesAll(a, specs) {
			out = append(out, r.clone(a))
		}
	}
	return out, nil
}

func (r *AccountRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil {
		return 0, err
	}
	return int64(len(all)), nil
}

func (r *AccountRepository) UpdateProfile(ctx context.Context, externalId string, email, firstName, lastName, fullName string, avatarURL *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[externalId]
	if !ok {
		return nil
	}
	a.Email = email
	a.FirstName = firstName
	a.LastName = lastName
	a.FullName = fullName
	a.AvatarURL = avatarURL
	a.UpdatedAt = time.Now()
	return nil
}

func (r *AccountRepository) guarded(externalId string, eventAt time.Time) (*entity.UserAccount, bool) {
	a, ok := r.accounts[externalId]
	if !ok {
		return nil, false
	}
	if a.LastBillingEventAt != nil && a.LastBillingEventAt.After(eventAt) {
		return nil, false
	}
	return a, true
}

func (r *AccountRepository) ApplyCheckoutCompleted(ctx context.Context, externalId, customerId string, eventAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.guarded(externalId, eventAt)
	if !ok {
		return false, nil
	}
	cid := customerId
	a.BillingCustomerId = &cid
	a.SubscriptionStatus = entity.SubscriptionStatusActive
	at := eventAt
	a.LastBillingEventAt = &at
	a.UpdatedAt = time.Now()
	return true, nil
}

func (r *AccountRepository) ApplySubscription(ctx context.Context, externalId string, sub *entity.ProviderSubscription, tier entity.SubscriptionTier, eventAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.guarded(externalId, eventAt)
	if !ok {
		return false, nil
	}
	cid := sub.CustomerId
	sid := sub.ProviderId
	start := sub.PeriodStart
	end := sub.PeriodEnd
	at := eventAt
	a.BillingCustomerId = &cid
	a.SubscriptionId = &sid
	a.SubscriptionTier = tier
	a.SubscriptionStatus = sub.Status
	a.SubscriptionPeriodStart = &start
	a.SubscriptionPeriodEnd = &end
	a.SubscriptionCancelAtPeriodEnd = sub.CancelAtPeriodEnd
	a.LastBillingEventAt = &at
	a.UpdatedAt = time.Now()
	return true, nil
}

func (r *AccountRepository) ClearSubscription(ctx context.Context, externalId string, eventAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.guarded(externalId, eventAt)
	if !ok {
		return false, nil
	}
	at := eventAt
	a.SubscriptionId = nil
	a.SubscriptionTier = entity.TierFree
	a.SubscriptionStatus = entity.SubscriptionStatusCanceled
	a.SubscriptionPeriodStart = nil
	a.SubscriptionPeriodEnd = nil
	a.SubscriptionCancelAtPeriodEnd = false
	a.LastBillingEventAt = &at
	a.UpdatedAt = time.Now()
	return true, nil
}

func (r *AccountRepository) IncrementUsage(ctx context.Context, externalId string, limit int, unlimited bool) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[externalId]
	if !ok {
		return 0, false, nil
	}
	if !unlimited && a.UsageCount >= limit {
		return 0, false, nil
	}
	a.UsageCount++
	a.UpdatedAt = time.Now()
	return a.UsageCount, true, nil
}

func matchesAll(a *entity.UserAccount, specs []specification.Specification) bool {
	for _, spec := range specs {
		if !spec.Matches(a) {
			return false
		}
	}
	return true
}

var _ contract.AccountRepository = (*AccountRepository)(nil)
