package memory

import (
	"context"
	"sync"
	"time"

	"textbehind-be/internal/entity"
	"textbehind-be/internal/repository/contract"

	"github.com/google/uuid"
)

type WebhookEventRepository struct {
	mu     sync.Mutex
	events map[string]*entity.WebhookEvent // keyed by provider + "/" + event id
}

func NewWebhookEventRepository() *WebhookEventRepository {
	return &WebhookEventRepository{
		events: make(map[string]*entity.WebhookEvent),
	}
}

func (r *WebhookEventRepository) Record(ctx context.Context, event *entity.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := event.Provider + "/" + event.ProviderEventId
	if _, exists := r.events[key]; exists {
		return contract.ErrDuplicateEvent
	}
	if event.Id == uuid.Nil {
		event.Id = uuid.New()
	}
	event.CreatedAt = time.Now()
	cp := *event
	r.events[key] = &cp
	return nil
}

func (r *WebhookEventRepository) MarkProcessed(ctx context.Context, provider, providerEventId string, processingError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.events[provider+"/"+providerEventId]; ok {
		now := time.Now()
		e.ProcessedAt = &now
		e.ProcessingError = processingError
	}
	return nil
}

var _ contract.WebhookEventRepository = (*WebhookEventRepository)(nil)
