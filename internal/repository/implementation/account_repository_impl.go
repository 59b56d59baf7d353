package implementation

import (
	"context"
	"errors"
	"time"

	"textbehind-be/internal/entity"
	"textbehind-be/internal/mapper"
	"textbehind-be/internal/model"
	"textbehind-be/internal/repository/contract"
	"textbehind-be/internal/repository/specification"

	"gorm.io/gorm"
)

type AccountRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AccountMapper
}

func NewAccountRepository(db *gorm.DB) contract.AccountRepository {
	return &AccountRepositoryImpl{
		db:     db,
		mapper: mapper.NewAccountMapper(),
	}
}

func (r *AccountRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *AccountRepositoryImpl) Create(ctx context.Context, account *entity.UserAccount) error {
	m := r.mapper.ToModel(account)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*account = *r.mapper.ToEntity(m)
	return nil
}

func (r *AccountRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.UserAccount, error) {
	var m model.UserAccount
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.mapper.ToEntity(&m), nil
}

func (r *AccountRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.UserAccount, error) {
	var models []*model.UserAccount
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	return r.mapper.ToEntities(models), nil
}

func (r *AccountRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.UserAccount{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AccountRepositoryImpl) UpdateProfile(ctx context.Context, externalId string, email, firstName, lastName, fullName string, avatarURL *string) error {
	return r.db.WithContext(ctx).Model(&model.UserAccount{}).
		Where("external_identity_id = ?", externalId).
		Updates(map[string]interface{}{
			"email":      email,
			"first_name": firstName,
			"last_name":  lastName,
			"full_name":  fullName,
			"avatar_url": avatarURL,
		}).Error
}

// billingGuard restricts a billing write to events at least as new as the one
// last applied. Stale webhook deliveries fall through with RowsAffected == 0.
func (r *AccountRepositoryImpl) billingGuard(ctx context.Context, externalId string, eventAt time.Time) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.UserAccount{}).
		Where("external_identity_id = ?", externalId).
		Where("last_billing_event_at IS NULL OR last_billing_event_at <= ?", eventAt)
}

func (r *AccountRepositoryImpl) ApplyCheckoutCompleted(ctx context.Context, externalId, customerId string, eventAt time.Time) (bool, error) {
	tx := r.billingGuard(ctx, externalId, eventAt).
		Updates(map[string]interface{}{
			"billing_customer_id":   customerId,
			"subscription_status":   string(entity.SubscriptionStatusActive),
			"last_billing_event_at": eventAt,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *AccountRepositoryImpl) ApplySubscription(ctx context.Context, externalId string, sub *entity.ProviderSubscription, tier entity.SubscriptionTier, eventAt time.Time) (bool, error) {
	tx := r.billingGuard(ctx, externalId, eventAt).
		Updates(map[string]interface{}{
			"billing_customer_id":               sub.CustomerId,
			"subscription_id":                   sub.ProviderId,
			"subscription_tier":                 string(tier),
			"subscription_status":               string(sub.Status),
			"subscription_period_start":         sub.PeriodStart,
			"subscription_period_end":           sub.PeriodEnd,
			"subscription_cancel_at_period_end": sub.CancelAtPeriodEnd,
			"last_billing_event_at":             eventAt,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *AccountRepositoryImpl) ClearSubscription(ctx context.Context, externalId string, eventAt time.Time) (bool, error) {
	// billing_customer_id is intentionally left in place: the customer
	// relationship survives cancellation.
	tx := r.billingGuard(ctx, externalId, eventAt).
		Updates(map[string]interface{}{
			"subscription_id":                   nil,
			"subscription_tier":                 string(entity.TierFree),
			"subscription_status":               string(entity.SubscriptionStatusCanceled),
			"subscription_period_start":         nil,
			"subscription_period_end":           nil,
			"subscription_cancel_at_period_end": false,
			"last_billing_event_at":             eventAt,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *AccountRepositoryImpl) IncrementUsage(ctx context.Context, externalId string, limit int, unlimited bool) (int, bool, error) {
	// Single-statement conditional increment. Two concurrent calls for the
	// same account serialize on the row lock, so they can never both observe
	// the same pre-increment value.
	var newCount int
	tx := r.db.WithContext(ctx).Raw(`
		UPDATE user_accounts
		SET usage_count = usage_count + 1, updated_at = NOW()
		WHERE external_identity_id = ? AND (? OR usage_count < ?)
		RETURNING usage_count
	`, externalId, unlimited, limit).Scan(&newCount)

	if tx.Error != nil {
		return 0, false, tx.Error
	}
	if tx.RowsAffected == 0 {
		return 0, false, nil
	}
	return newCount, true, nil
}
