// FILE: internal/service/subscription_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"textbehind-be/internal/billing"
	"textbehind-be/internal/config"
	"textbehind-be/internal/dto"
	"textbehind-be/internal/entity"
	"textbehind-be/internal/pkg/logger"
	"textbehind-be/internal/repository/contract"
	"textbehind-be/internal/repository/specification"
	"textbehind-be/internal/repository/unitofwork"
	"textbehind-be/pkg/events"
	pktNats "textbehind-be/pkg/nats"
	"textbehind-be/pkg/tasks"

	"github.com/redis/go-redis/v9"
)

var (
	ErrNoBillingCustomer = errors.New("account has no billing customer")
	// ErrSessionIncomplete rejects session sync for checkouts that never
	// completed or carry no customer; nothing authoritative can be derived
	// from them.
	ErrSessionIncomplete = errors.New("checkout session incomplete or has no customer")
)

type ISubscriptionService interface {
	// HandleBillingEvent is the reconciler entrypoint for verified webhooks.
	// It is idempotent per provider event id and tolerant of out-of-order
	// delivery.
	HandleBillingEvent(ctx context.Context, evt *entity.BillingEvent) error
	// SyncFromProvider re-reads the caller's subscription from the billing
	// provider and repairs the persisted mirror.
	SyncFromProvider(ctx context.Context, externalId string) (*dto.SyncResponse, error)
	// SyncFromCheckoutSession reconciles immediately after checkout redirect,
	// before the corresponding webhook may have arrived.
	SyncFromCheckoutSession(ctx context.Context, externalId, sessionId string) (*dto.SyncResponse, error)
	GetStatus(ctx context.Context, externalId string) (*dto.SubscriptionStatusResponse, error)
	CreateCheckoutSession(ctx context.Context, externalId string, req *dto.CheckoutSessionRequest) (*dto.CheckoutSessionResponse, error)
	CreatePortalSession(ctx context.Context, externalId string) (*dto.PortalSessionResponse, error)
}

type subscriptionService struct {
	uowFactory      unitofwork.RepositoryFactory
	billingProvider billing.Provider
	plans           *billing.PlanCatalog
	accountService  IAccountService
	cfg             *config.Config
	redisClient     *redis.Client // nil disables the dedup fast path
	eventPublisher  *pktNats.Publisher
	dispatcher      *tasks.Dispatcher
	log             logger.ILogger
}

func NewSubscriptionService(
	uowFactory unitofwork.RepositoryFactory,
	billingProvider billing.Provider,
	plans *billing.PlanCatalog,
	accountService IAccountService,
	cfg *config.Config,
	redisClient *redis.Client,
	eventPublisher *pktNats.Publisher,
	dispatcher *tasks.Dispatcher,
	log logger.ILogger,
) ISubscriptionService {
	return &subscriptionService{
		uowFactory:      uowFactory,
		billingProvider: billingProvider,
		plans:           plans,
		accountService:  accountService,
		cfg:             cfg,
		redisClient:     redisClient,
		eventPublisher:  eventPublisher,
		dispatcher:      dispatcher,
		log:             log,
	}
}

// --- Webhook reconciliation ---

func (s *subscriptionService) HandleBillingEvent(ctx context.Context, evt *entity.BillingEvent) error {
	if evt.Kind == entity.BillingEventUnhandled {
		s.log.Debug("reconciler", "Ignoring unhandled billing event", map[string]interface{}{
			"event_id": evt.ProviderEventId,
			"type":     evt.RawType,
		})
		return nil
	}

	// Dedup fast path: SETNX wins exactly once per event id. Redis being down
	// just means we fall through to the unique-index backstop.
	if s.redisClient != nil {
		key := "billing:evt:" + evt.ProviderEventId
		set, err := s.redisClient.SetNX(ctx, key, 1, 24*time.Hour).Result()
		if err == nil && !set {
			s.log.Info("reconciler", "Duplicate billing event (cache)", map[string]interface{}{
				"event_id": evt.ProviderEventId,
			})
			return nil
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	eventRepo := uow.WebhookEventRepository()

	err := eventRepo.Record(ctx, &entity.WebhookEvent{
		Provider:        "billing",
		ProviderEventId: evt.ProviderEventId,
		EventType:       evt.RawType,
	})
	if errors.Is(err, contract.ErrDuplicateEvent) {
		s.log.Info("reconciler", "Duplicate billing event (store)", map[string]interface{}{
			"event_id": evt.ProviderEventId,
		})
		return nil
	}
	if err != nil {
		return fmt.Errorf("record webhook event: %w", err)
	}

	procErr := s.applyBillingEvent(ctx, uow, evt)

	procMsg := ""
	if procErr != nil {
		procMsg = procErr.Error()
	}
	if markErr := eventRepo.MarkProcessed(ctx, "billing", evt.ProviderEventId, procMsg); markErr != nil {
		s.log.Warn("reconciler", "Failed to mark webhook processed", map[string]interface{}{
			"event_id": evt.ProviderEventId,
			"error":    markErr.Error(),
		})
	}

	return procErr
}

func (s *subscriptionService) applyBillingEvent(ctx context.Context, uow unitofwork.UnitOfWork, evt *entity.BillingEvent) error {
	repo := uow.AccountRepository()

	externalId, err := s.resolveAccount(ctx, repo, evt)
	if err != nil {
		return err
	}
	if externalId == "" {
		// No identity attached and no matching customer. Acknowledge anyway:
		// the provider would retry forever and the client sync endpoint can
		// repair the account later.
		s.log.Warn("reconciler", "Billing event has no resolvable account, skipping", map[string]interface{}{
			"event_id": evt.ProviderEventId,
			"type":     evt.RawType,
			"customer": evt.CustomerId,
		})
		return nil
	}

	switch evt.Kind {
	case entity.BillingEventCheckoutCompleted:
		applied, err := repo.ApplyCheckoutCompleted(ctx, externalId, evt.CustomerId, evt.OccurredAt)
		if err != nil {
			return fmt.Errorf("apply checkout: %w", err)
		}
		s.log.Info("reconciler", "Checkout completed", map[string]interface{}{
			"external_id": externalId,
			"applied":     applied,
		})
		return nil

	case entity.BillingEventSubscriptionCreated, entity.BillingEventSubscriptionUpdated:
		sub := evt.Subscription
		tier := entity.TierForPrice(sub.PriceId, s.cfg.Billing.YearlyPriceId)

		applied, err := repo.ApplySubscription(ctx, externalId, sub, tier, evt.OccurredAt)
		if err != nil {
			return fmt.Errorf("apply subscription: %w", err)
		}
		s.log.Info("reconciler", "Subscription state applied", map[string]interface{}{
			"external_id": externalId,
			"tier":        string(tier),
			"status":      string(sub.Status),
			"applied":     applied,
		})

		if applied && evt.Kind == entity.BillingEventSubscriptionCreated && entity.IsPremium(tier, sub.Status) {
			s.afterActivation(ctx, repo, externalId, tier, sub.PeriodEnd)
		}
		return nil

	case entity.BillingEventSubscriptionDeleted:
		applied, err := repo.ClearSubscription(ctx, externalId, evt.OccurredAt)
		if err != nil {
			return fmt.Errorf("clear subscription: %w", err)
		}
		s.log.Info("reconciler", "Subscription deleted", map[string]interface{}{
			"external_id": externalId,
			"applied":     applied,
		})
		if applied {
			s.afterCancellation(ctx, repo, externalId)
		}
		return nil
	}

	return nil
}

// resolveAccount finds the external identity id for an event, preferring the
// metadata put on the object at checkout and falling back to a lookup by
// billing customer id. Checkout events with metadata lazily create the row so
// a webhook arriving before the first authenticated request still lands.
func (s *subscriptionService) resolveAccount(ctx context.Context, repo contract.AccountRepository, evt *entity.BillingEvent) (string, error) {
	if evt.ExternalIdentityId != "" {
		if _, err := s.accountService.GetOrCreateByIdentity(ctx, evt.ExternalIdentityId); err != nil {
			return "", fmt.Errorf("resolve account %s: %w", evt.ExternalIdentityId, err)
		}
		return evt.ExternalIdentityId, nil
	}

	if evt.CustomerId != "" {
		account, err := repo.FindOne(ctx, specification.ByBillingCustomerId{CustomerId: evt.CustomerId})
		if err != nil {
			return "", err
		}
		if account != nil {
			return account.ExternalIdentityId, nil
		}
	}

	return "", nil
}

func (s *subscriptionService) afterActivation(ctx context.Context, repo contract.AccountRepository, externalId string, tier entity.SubscriptionTier, periodEnd time.Time) {
	account, err := repo.FindOne(ctx, specification.ByExternalIdentityId{ExternalIdentityId: externalId})
	if err != nil || account == nil {
		return
	}

	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: "SUBSCRIPTION_ACTIVATED",
			Data: map[string]interface{}{
				"external_id": externalId,
				"tier":        string(tier),
				"period_end":  periodEnd,
				"occurred_at": time.Now(),
			},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			fmt.Printf("[WARN] Failed to publish SUBSCRIPTION_ACTIVATED event: %v\n", err)
		}
	}

	if s.dispatcher != nil && account.Email != "" {
		plan, perr := s.plans.PlanForType(string(tier))
		if perr != nil {
			return
		}
		end := periodEnd
		_ = s.dispatcher.Dispatch(tasks.TopicSubscriptionEmail, tasks.SubscriptionEmailTask{
			Kind:      tasks.EmailActivated,
			Email:     account.Email,
			PlanName:  plan.Name,
			PeriodEnd: &end,
		})
	}
}

func (s *subscriptionService) afterCancellation(ctx context.Context, repo contract.AccountRepository, externalId string) {
	account, err := repo.FindOne(ctx, specification.ByExternalIdentityId{ExternalIdentityId: externalId})
	if err != nil || account == nil {
		return
	}

	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: "SUBSCRIPTION_CANCELED",
			Data: map[string]interface{}{
				"external_id": externalId,
				"occurred_at": time.Now(),
			},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			fmt.Printf("[WARN] Failed to publish SUBSCRIPTION_CANCELED event: %v\n", err)
		}
	}

	if s.dispatcher != nil && account.Email != "" {
		_ = s.dispatcher.Dispatch(tasks.TopicSubscriptionEmail, tasks.SubscriptionEmailTask{
			Kind:  tasks.EmailCanceled,
			Email: account.Email,
		})
	}
}

// --- Client-triggered sync ---

func (s *subscriptionService) SyncFromProvider(ctx context.Context, externalId string) (*dto.SyncResponse, error) {
	account, err := s.accountService.GetOrCreateByIdentity(ctx, externalId)
	if err != nil {
		return nil, err
	}

	if account.BillingCustomerId == nil || *account.BillingCustomerId == "" {
		return &dto.SyncResponse{
			Success: true,
			Message: "No billing customer on record",
			User:    ToAccountResponse(account),
		}, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.AccountRepository()

	sub, err := s.billingProvider.LatestSubscription(ctx, *account.BillingCustomerId)
	switch {
	case errors.Is(err, billing.ErrNotFound):
		// Authoritative read says no subscription exists.
		if _, cerr := repo.ClearSubscription(ctx, externalId, time.Now()); cerr != nil {
			return nil, cerr
		}
	case err != nil:
		// Provider unreachable: degrade to the persisted mirror rather than
		// failing the caller's page load.
		s.log.Warn("reconciler", "Provider read failed during sync, serving persisted state", map[string]interface{}{
			"external_id": externalId,
			"error":       err.Error(),
		})
		return &dto.SyncResponse{
			Success: true,
			Message: "Billing provider unavailable, showing last known state",
			User:    ToAccountResponse(account),
		}, nil
	default:
		tier := entity.TierForPrice(sub.PriceId, s.cfg.Billing.YearlyPriceId)
		if _, aerr := repo.ApplySubscription(ctx, externalId, sub, tier, time.Now()); aerr != nil {
			return nil, aerr
		}
	}

	refreshed, err := repo.FindOne(ctx, specification.ByExternalIdentityId{ExternalIdentityId: externalId})
	if err != nil {
		return nil, err
	}
	return &dto.SyncResponse{
		Success: true,
		Message: "Subscription synced",
		User:    ToAccountResponse(refreshed),
	}, nil
}

func (s *subscriptionService) SyncFromCheckoutSession(ctx context.Context, externalId, sessionId string) (*dto.SyncResponse, error) {
	account, err := s.accountService.GetOrCreateByIdentity(ctx, externalId)
	if err != nil {
		return nil, err
	}

	session, err := s.billingProvider.GetCheckoutSession(ctx, sessionId)
	if err != nil {
		// Same degradation as SyncFromProvider: never block the success page.
		s.log.Warn("reconciler", "Checkout session read failed, serving persisted state", map[string]interface{}{
			"external_id": externalId,
			"session_id":  sessionId,
			"error":       err.Error(),
		})
		return &dto.SyncResponse{
			Success: true,
			Message: "Billing provider unavailable, showing last known state",
			User:    ToAccountResponse(account),
		}, nil
	}

	// The session id comes from the client; the metadata binding is what makes
	// it trustworthy. A session belonging to someone else is rejected outright.
	if session.ExternalIdentityId != "" && session.ExternalIdentityId != externalId {
		return nil, fmt.Errorf("checkout session %s does not belong to caller", sessionId)
	}

	if !session.Completed || session.CustomerId == "" {
		return nil, ErrSessionIncomplete
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.AccountRepository()

	if _, err := repo.ApplyCheckoutCompleted(ctx, externalId, session.CustomerId, time.Now()); err != nil {
		return nil, err
	}

	if session.SubscriptionId != "" {
		sub, serr := s.billingProvider.GetSubscription(ctx, session.SubscriptionId)
		if serr == nil {
			tier := entity.TierForPrice(sub.PriceId, s.cfg.Billing.YearlyPriceId)
			if _, aerr := repo.ApplySubscription(ctx, externalId, sub, tier, time.Now()); aerr != nil {
				return nil, aerr
			}
		} else {
			s.log.Warn("reconciler", "Subscription read failed during session sync", map[string]interface{}{
				"subscription_id": session.SubscriptionId,
				"error":           serr.Error(),
			})
		}
	}

	refreshed, err := repo.FindOne(ctx, specification.ByExternalIdentityId{ExternalIdentityId: externalId})
	if err != nil {
		return nil, err
	}
	return &dto.SyncResponse{
		Success: true,
		Message: "Checkout session synced",
		User:    ToAccountResponse(refreshed),
	}, nil
}

// --- Status / checkout / portal ---

func (s *subscriptionService) GetStatus(ctx context.Context, externalId string) (*dto.SubscriptionStatusResponse, error) {
	account, err := s.accountService.GetOrCreateByIdentity(ctx, externalId)
	if err != nil {
		return nil, err
	}

	res := &dto.SubscriptionStatusResponse{
		IsPremium: account.IsPremium(),
		Tier:      string(account.SubscriptionTier),
	}

	if account.SubscriptionId != nil && *account.SubscriptionId != "" {
		info := &dto.SubscriptionInfo{
			Id:                 *account.SubscriptionId,
			Status:             string(account.SubscriptionStatus),
			PlanType:           string(account.SubscriptionTier),
			CurrentPeriodStart: account.SubscriptionPeriodStart,
			CurrentPeriodEnd:   account.SubscriptionPeriodEnd,
			CancelAtPeriodEnd:  account.SubscriptionCancelAtPeriodEnd,
		}
		if account.BillingCustomerId != nil {
			info.CustomerId = *account.BillingCustomerId
		}
		res.Subscription = info
	}

	return res, nil
}

func (s *subscriptionService) CreateCheckoutSession(ctx context.Context, externalId string, req *dto.CheckoutSessionRequest) (*dto.CheckoutSessionResponse, error) {
	account, err := s.accountService.GetOrCreateByIdentity(ctx, externalId)
	if err != nil {
		return nil, err
	}

	plan, err := s.plans.PlanForType(req.PlanType)
	if err != nil {
		return nil, err
	}

	params := billing.CheckoutParams{
		ExternalIdentityId: externalId,
		Email:              account.Email,
		PriceId:            plan.PriceId,
		SuccessURL:         s.cfg.App.PublicAppURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:          s.cfg.App.PublicAppURL + "/pricing",
	}
	if account.BillingCustomerId != nil {
		params.CustomerId = *account.BillingCustomerId
	}

	session, err := s.billingProvider.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, err
	}

	s.log.Info("reconciler", "Checkout session created", map[string]interface{}{
		"external_id": externalId,
		"plan":        req.PlanType,
		"session_id":  session.Id,
	})

	return &dto.CheckoutSessionResponse{
		SessionId: session.Id,
		URL:       session.URL,
		PlanType:  string(plan.Type),
		PlanName:  plan.Name,
		Price:     plan.Price,
	}, nil
}

func (s *subscriptionService) CreatePortalSession(ctx context.Context, externalId string) (*dto.PortalSessionResponse, error) {
	account, err := s.accountService.GetOrCreateByIdentity(ctx, externalId)
	if err != nil {
		return nil, err
	}
	if account.BillingCustomerId == nil || *account.BillingCustomerId == "" {
		return nil, ErrNoBillingCustomer
	}

	url, err := s.billingProvider.CreatePortalSession(ctx, *account.BillingCustomerId, s.cfg.App.PublicAppURL+"/settings")
	if err != nil {
		return nil, err
	}
	return &dto.PortalSessionResponse{URL: url}, nil
}
