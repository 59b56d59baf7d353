package model

import (
	"time"

	"github.com/google/uuid"
)

// WebhookEvent deduplicates inbound provider webhooks. The unique index on
// (provider, provider_event_id) is the backstop behind the redis fast path.
type WebhookEvent struct {
	Id              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Provider        string     `gorm:"type:varchar(30);not null;uniqueIndex:ux_webhook_events_provider_event,priority:1"`
	ProviderEventId string     `gorm:"type:varchar(255);not null;uniqueIndex:ux_webhook_events_provider_event,priority:2"`
	EventType       string     `gorm:"type:varchar(100);not null;index"`
	ProcessedAt     *time.Time `gorm:"default:null"`
	ProcessingError string     `gorm:"type:text"`
	CreatedAt       time.Time  `gorm:"autoCreateTime"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}
