package implementation

import (
	"context"
	"errors"
	"time"

	"textbehind-be/internal/entity"
	"textbehind-be/internal/mapper"
	"textbehind-be/internal/model"
	"textbehind-be/internal/repository/contract"

	"gorm.io/gorm"
)

type WebhookEventRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AccountMapper
}

func NewWebhookEventRepository(db *gorm.DB) contract.WebhookEventRepository {
	return &WebhookEventRepositoryImpl{
		db:     db,
		mapper: mapper.NewAccountMapper(),
	}
}

func (r *WebhookEventRepositoryImpl) Record(ctx context.Context, event *entity.WebhookEvent) error {
	m := r.mapper.WebhookEventToModel(event)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		// Relies on TranslateError in the gorm config mapping the unique
		// violation on (provider, provider_event_id).
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return contract.ErrDuplicateEvent
		}
		return err
	}
	*event = *r.mapper.WebhookEventToEntity(m)
	return nil
}

func (r *WebhookEventRepositoryImpl) MarkProcessed(ctx context.Context, provider, providerEventId string, processingError string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.WebhookEvent{}).
		Where("provider = ? AND provider_event_id = ?", provider, providerEventId).
		Updates(map[string]interface{}{
			"processed_at":     now,
			"processing_error": processingError,
		}).Error
}
