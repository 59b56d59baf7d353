package unitofwork

import (
	"context"

	"textbehind-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	AccountRepository() contract.AccountRepository
	WebhookEventRepository() contract.WebhookEventRepository
}
