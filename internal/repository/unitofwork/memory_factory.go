package unitofwork

import (
	"context"

	"textbehind-be/internal/repository/contract"
	"textbehind-be/internal/repository/memory"
)

// MemoryRepositoryFactory backs the boundary when no record store is
// configured (mock mode) and is what the service tests run against. The
// repositories are shared singletons; Begin/Commit/Rollback are no-ops since
// the memory store has no transactions.
type MemoryRepositoryFactory struct {
	accounts *memory.AccountRepository
	events   *memory.WebhookEventRepository
}

func NewMemoryRepositoryFactory() *MemoryRepositoryFactory {
	return &MemoryRepositoryFactory{
		accounts: memory.NewAccountRepository(),
		events:   memory.NewWebhookEventRepository(),
	}
}

func (f *MemoryRepositoryFactory) NewUnitOfWork(ctx context.Context) UnitOfWork {
	return &memoryUnitOfWork{factory: f}
}

type memoryUnitOfWork struct {
	factory *MemoryRepositoryFactory
}

func (u *memoryUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *memoryUnitOfWork) Commit() error                   { return nil }
func (u *memoryUnitOfWork) Rollback() error                 { return nil }

func (u *memoryUnitOfWork) AccountRepository() contract.AccountRepository {
	return u.factory.accounts
}

func (u *memoryUnitOfWork) WebhookEventRepository() contract.WebhookEventRepository {
	return u.factory.events
}
