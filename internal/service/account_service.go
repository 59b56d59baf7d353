// FILE: internal/service/account_service.go
package service

import (
	"context"
	"errors"
	"fmt"

	"textbehind-be/internal/dto"
	"textbehind-be/internal/entity"
	"textbehind-be/internal/identity"
	"textbehind-be/internal/pkg/logger"
	"textbehind-be/internal/repository/specification"
	"textbehind-be/internal/repository/unitofwork"

	"gorm.io/gorm"
)

type IAccountService interface {
	// GetOrCreateByIdentity resolves the account row for an authenticated
	// caller, lazily creating it on first contact.
	GetOrCreateByIdentity(ctx context.Context, externalId string) (*entity.UserAccount, error)
	GetByExternalId(ctx context.Context, externalId string) (*entity.UserAccount, error)
	HandleIdentityEvent(ctx context.Context, evt *identity.UserEvent) error
	SyncProfile(ctx context.Context, id identity.Identity) error
}

type accountService struct {
	uowFactory       unitofwork.RepositoryFactory
	identityProvider identity.Provider
	log              logger.ILogger
}

func NewAccountService(
	uowFactory unitofwork.RepositoryFactory,
	identityProvider identity.Provider,
	log logger.ILogger,
) IAccountService {
	return &accountService{
		uowFactory:       uowFactory,
		identityProvider: identityProvider,
		log:              log,
	}
}

func (s *accountService) GetByExternalId(ctx context.Context, externalId string) (*entity.UserAccount, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.AccountRepository().FindOne(ctx, specification.ByExternalIdentityId{ExternalIdentityId: externalId})
}

func (s *accountService) GetOrCreateByIdentity(ctx context.Context, externalId string) (*entity.UserAccount, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.AccountRepository()

	account, err := repo.FindOne(ctx, specification.ByExternalIdentityId{ExternalIdentityId: externalId})
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}

	account = &entity.UserAccount{
		ExternalIdentityId: externalId,
		SubscriptionTier:   entity.TierFree,
		SubscriptionStatus: entity.SubscriptionStatusInactive,
	}

	// Best effort profile fill; the identity webhook will correct it later if
	// the admin API is unavailable right now.
	if profile, perr := s.identityProvider.GetUser(ctx, externalId); perr == nil {
		account.Email = profile.Email
		account.FirstName = profile.FirstName
		account.LastName = profile.LastName
		account.FullName = profile.FullName()
		if profile.AvatarURL != "" {
			url := profile.AvatarURL
			account.AvatarURL = &url
		}
	} else if !errors.Is(perr, identity.ErrNotConfigured) {
		s.log.Warn("account", "Profile lookup failed during lazy create", map[string]interface{}{
			"external_id": externalId,
			"error":       perr.Error(),
		})
	}

	if err := repo.Create(ctx, account); err != nil {
		// Two first requests can race on the unique index; the loser reloads.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repo.FindOne(ctx, specification.ByExternalIdentityId{ExternalIdentityId: externalId})
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.log.Info("account", "Account created", map[string]interface{}{
		"external_id": externalId,
	})
	return account, nil
}

func (s *accountService) SyncProfile(ctx context.Context, id identity.Identity) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.AccountRepository()

	account, err := repo.FindOne(ctx, specification.ByExternalIdentityId{ExternalIdentityId: id.ExternalId})
	if err != nil {
		return err
	}

	var avatarURL *string
	if id.AvatarURL != "" {
		url := id.AvatarURL
		avatarURL = &url
	}

	if account == nil {
		account = &entity.UserAccount{
			ExternalIdentityId: id.ExternalId,
			Email:              id.Email,
			FirstName:          id.FirstName,
			LastName:           id.LastName,
			FullName:           id.FullName(),
			AvatarURL:          avatarURL,
			SubscriptionTier:   entity.TierFree,
			SubscriptionStatus: entity.SubscriptionStatusInactive,
		}
		if err := repo.Create(ctx, account); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return repo.UpdateProfile(ctx, id.ExternalId, id.Email, id.FirstName, id.LastName, id.FullName(), avatarURL)
			}
			return err
		}
		return nil
	}

	return repo.UpdateProfile(ctx, id.ExternalId, id.Email, id.FirstName, id.LastName, id.FullName(), avatarURL)
}

func (s *accountService) HandleIdentityEvent(ctx context.Context, evt *identity.UserEvent) error {
	switch evt.Type {
	case "user.created", "user.updated":
		return s.SyncProfile(ctx, evt.Identity)
	case "user.deleted":
		// The row is retained: billing history must survive identity deletion
		// and the billing customer id is needed to reconcile trailing webhooks.
		s.log.Info("account", "Identity deleted, retaining account for billing audit", map[string]interface{}{
			"external_id": evt.Identity.ExternalId,
		})
		return nil
	default:
		s.log.Debug("account", "Ignoring identity event", map[string]interface{}{
			"type": evt.Type,
		})
		return nil
	}
}

// ToAccountResponse maps an account entity to its API view.
func ToAccountResponse(a *entity.UserAccount) *dto.AccountResponse {
	if a == nil {
		return nil
	}
	return &dto.AccountResponse{
		Id:                 a.Id,
		ExternalIdentityId: a.ExternalIdentityId,
		Email:              a.Email,
		FullName:           a.FullName,
		AvatarURL:          a.AvatarURL,
		SubscriptionTier:   string(a.SubscriptionTier),
		SubscriptionStatus: string(a.SubscriptionStatus),
		IsPremium:          a.IsPremium(),
		PeriodStart:        a.SubscriptionPeriodStart,
		PeriodEnd:          a.SubscriptionPeriodEnd,
		CancelAtPeriodEnd:  a.SubscriptionCancelAtPeriodEnd,
		UsageCount:         a.UsageCount,
		CreatedAt:          a.CreatedAt,
	}
}
