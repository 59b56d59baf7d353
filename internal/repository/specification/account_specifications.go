package specification

import (
	"textbehind-be/internal/entity"

	"gorm.io/gorm"
)

// ByExternalIdentityId is the join key for every authenticated request and
// webhook lookup.
type ByExternalIdentityId struct {
	ExternalIdentityId string
}

func (s ByExternalIdentityId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("external_identity_id = ?", s.ExternalIdentityId)
}

func (s ByExternalIdentityId) Matches(a *entity.UserAccount) bool {
	return a != nil && a.ExternalIdentityId == s.ExternalIdentityId
}

// ByBillingCustomerId finds the account owning a billing customer record.
type ByBillingCustomerId struct {
	CustomerId string
}

func (s ByBillingCustomerId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("billing_customer_id = ?", s.CustomerId)
}

func (s ByBillingCustomerId) Matches(a *entity.UserAccount) bool {
	return a != nil && a.BillingCustomerId != nil && *a.BillingCustomerId == s.CustomerId
}

// ByEmail filters by the mirrored profile email.
type ByEmail struct {
	Email string
}

func (s ByEmail) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("email = ?", s.Email)
}

func (s ByEmail) Matches(a *entity.UserAccount) bool {
	return a != nil && a.Email == s.Email
}
