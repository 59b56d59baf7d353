package contract

import (
	"context"
	"errors"

	"textbehind-be/internal/entity"
)

// ErrDuplicateEvent reports that a webhook with the same provider event id was
// already recorded; the caller should acknowledge without reprocessing.
var ErrDuplicateEvent = errors.New("webhook event already recorded")

type WebhookEventRepository interface {
	Record(ctx context.Context, event *entity.WebhookEvent) error
	MarkProcessed(ctx context.Context, provider, providerEventId string, processingError string) error
}
