package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UserAccount struct {
	Id                 uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ExternalIdentityId string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Email              string    `gorm:"type:varchar(255);index;not null"`
	FirstName          string    `gorm:"type:varchar(255)"`
	LastName           string    `gorm:"type:varchar(255)"`
	FullName           string    `gorm:"type:varchar(255)"`
	AvatarURL          *string   `gorm:"type:text"`

	BillingCustomerId             *string `gorm:"type:varchar(255);index"`
	SubscriptionId                *string `gorm:"type:varchar(255)"`
	SubscriptionTier              string  `gorm:"type:varchar(20);not null;default:'free'"`
	SubscriptionStatus            string  `gorm:"type:varchar(30);not null;default:'inactive'"`
	SubscriptionPeriodStart       *time.Time
	SubscriptionPeriodEnd         *time.Time
	SubscriptionCancelAtPeriodEnd bool `gorm:"default:false"`
	LastBillingEventAt            *time.Time

	UsageCount  int               `gorm:"not null;default:0"`
	Preferences datatypes.JSONMap `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (UserAccount) TableName() string {
	return "user_accounts"
}
