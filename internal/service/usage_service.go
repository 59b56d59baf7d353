// FILE: internal/service/usage_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"textbehind-be/internal/config"
	"textbehind-be/internal/dto"
	"textbehind-be/internal/entity"
	"textbehind-be/internal/pkg/logger"
	"textbehind-be/internal/repository/unitofwork"
	"textbehind-be/pkg/events"
	pktNats "textbehind-be/pkg/nats"
)

type IUsageService interface {
	// Check reports whether the caller may perform one more metered action.
	// Advisory only; ConsumeOne re-validates atomically.
	Check(ctx context.Context, externalId string) (*dto.UsageCheckResponse, error)
	// ConsumeOne performs the metered increment. The limit comparison and the
	// increment are a single conditional write, so two concurrent calls can
	// never both consume the last slot.
	ConsumeOne(ctx context.Context, externalId string) (*dto.UsageIncrementResponse, error)
}

type usageService struct {
	uowFactory     unitofwork.RepositoryFactory
	accountService IAccountService
	limits         config.UsageConfig
	eventPublisher *pktNats.Publisher
	log            logger.ILogger
}

func NewUsageService(
	uowFactory unitofwork.RepositoryFactory,
	accountService IAccountService,
	limits config.UsageConfig,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IUsageService {
	return &usageService{
		uowFactory:     uowFactory,
		accountService: accountService,
		limits:         limits,
		eventPublisher: eventPublisher,
		log:            log,
	}
}

// limitFor returns the metered limit for the account's stored tier. The tier
// itself only resets to free through the reconciler (subscription deletion),
// so a past_due monthly account keeps the monthly limit but loses the premium
// bypass.
func (s *usageService) limitFor(account *entity.UserAccount) int {
	switch account.SubscriptionTier {
	case entity.TierMonthly:
		return s.limits.MonthlyLimit
	case entity.TierYearly:
		return s.limits.YearlyLimit
	default:
		return s.limits.FreeLimit
	}
}

func (s *usageService) usageInfo(account *entity.UserAccount, limit int) dto.UsageInfo {
	remaining := limit - account.UsageCount
	if remaining < 0 {
		remaining = 0
	}
	return dto.UsageInfo{
		CurrentUsage:     account.UsageCount,
		Limit:            limit,
		Remaining:        remaining,
		SubscriptionTier: string(account.SubscriptionTier),
		IsPremium:        account.IsPremium(),
	}
}

func (s *usageService) Check(ctx context.Context, externalId string) (*dto.UsageCheckResponse, error) {
	account, err := s.accountService.GetOrCreateByIdentity(ctx, externalId)
	if err != nil {
		return nil, err
	}

	// Premium is never blocked by count; the limit is advisory UI context.
	limit := s.limitFor(account)
	res := &dto.UsageCheckResponse{
		CanCreate: account.IsPremium() || account.UsageCount < limit,
		UsageInfo: s.usageInfo(account, limit),
	}
	if !res.CanCreate {
		res.Reason = dto.ReasonLimitReached
	}
	return res, nil
}

func (s *usageService) ConsumeOne(ctx context.Context, externalId string) (*dto.UsageIncrementResponse, error) {
	account, err := s.accountService.GetOrCreateByIdentity(ctx, externalId)
	if err != nil {
		return nil, err
	}

	// The tier is read here, but the count comparison happens inside the
	// store's conditional update against the live row. Reading a stale tier
	// can only pick the wrong limit, never double-count.
	limit := s.limitFor(account)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	newCount, applied, err := uow.AccountRepository().IncrementUsage(ctx, externalId, limit, account.IsPremium())
	if err != nil {
		return nil, fmt.Errorf("increment usage: %w", err)
	}

	if !applied {
		s.log.Info("usage", "Increment denied at limit", map[string]interface{}{
			"external_id": externalId,
			"limit":       limit,
			"tier":        string(account.SubscriptionTier),
		})
		s.publishLimitReached(ctx, externalId, account, limit)

		return &dto.UsageIncrementResponse{
			Success:    false,
			UsageCount: account.UsageCount,
			Remaining:  0,
			Limit:      limit,
			Reason:     dto.ReasonLimitReached,
		}, nil
	}

	remaining := limit - newCount
	if remaining < 0 {
		remaining = 0
	}
	return &dto.UsageIncrementResponse{
		Success:    true,
		UsageCount: newCount,
		Remaining:  remaining,
		Limit:      limit,
	}, nil
}

func (s *usageService) publishLimitReached(ctx context.Context, externalId string, account *entity.UserAccount, limit int) {
	if s.eventPublisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type: "USAGE_LIMIT_REACHED",
		Data: map[string]interface{}{
			"external_id": externalId,
			"tier":        string(account.SubscriptionTier),
			"limit":       limit,
			"occurred_at": time.Now(),
		},
		OccurredAt: time.Now(),
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		fmt.Printf("[WARN] Failed to publish USAGE_LIMIT_REACHED event: %v\n", err)
	}
}
