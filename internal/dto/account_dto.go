// FILE: internal/dto/account_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
)

// AccountResponse is the API view of a mirrored user account
type AccountResponse struct {
	Id                 uuid.UUID  `json:"id"`
	ExternalIdentityId string     `json:"externalIdentityId"`
	Email              string     `json:"email"`
	FullName           string     `json:"fullName,omitempty"`
	AvatarURL          *string    `json:"avatarUrl,omitempty"`
	SubscriptionTier   string     `json:"subscriptionTier"`
	SubscriptionStatus string     `json:"subscriptionStatus"`
	IsPremium          bool       `json:"isPremium"`
	PeriodStart        *time.Time `json:"currentPeriodStart,omitempty"`
	PeriodEnd          *time.Time `json:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd  bool       `json:"cancelAtPeriodEnd"`
	UsageCount         int        `json:"usageCount"`
	CreatedAt          time.Time  `json:"createdAt"`
}
