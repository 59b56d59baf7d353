package mapper

import (
	"textbehind-be/internal/entity"
	"textbehind-be/internal/model"

	"gorm.io/datatypes"
)

type AccountMapper struct{}

func NewAccountMapper() *AccountMapper {
	return &AccountMapper{}
}

func (m *AccountMapper) ToEntity(a *model.UserAccount) *entity.UserAccount {
	if a == nil {
		return nil
	}
	return &entity.UserAccount{
		Id:                 a.Id,
		ExternalIdentityId: a.ExternalIdentityId,
		Email:              a.Email,
		FirstName:          a.FirstName,
		LastName:           a.LastName,
		FullName:           a.FullName,
		AvatarURL:          a.AvatarURL,

		BillingCustomerId:             a.BillingCustomerId,
		SubscriptionId:                a.SubscriptionId,
		SubscriptionTier:              entity.SubscriptionTier(a.SubscriptionTier),
		SubscriptionStatus:            entity.SubscriptionStatus(a.SubscriptionStatus),
		SubscriptionPeriodStart:       a.SubscriptionPeriodStart,
		SubscriptionPeriodEnd:         a.SubscriptionPeriodEnd,
		SubscriptionCancelAtPeriodEnd: a.SubscriptionCancelAtPeriodEnd,
		LastBillingEventAt:            a.LastBillingEventAt,

		UsageCount:  a.UsageCount,
		Preferences: a.Preferences,

		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (m *AccountMapper) ToModel(a *entity.UserAccount) *model.UserAccount {
	if a == nil {
		return nil
	}
	return &model.UserAccount{
		Id:                 a.Id,
		ExternalIdentityId: a.ExternalIdentityId,
		Email:              a.Email,
		FirstName:          a.FirstName,
		LastName:           a.LastName,
		FullName:           a.FullName,
		AvatarURL:          a.AvatarURL,

		BillingCustomerId:             a.BillingCustomerId,
		SubscriptionId:                a.SubscriptionId,
		SubscriptionTier:              string(a.SubscriptionTier),
		SubscriptionStatus:            string(a.SubscriptionStatus),
		SubscriptionPeriodStart:       a.SubscriptionPeriodStart,
		SubscriptionPeriodEnd:         a.SubscriptionPeriodEnd,
		SubscriptionCancelAtPeriodEnd: a.SubscriptionCancelAtPeriodEnd,
		LastBillingEventAt:            a.LastBillingEventAt,

		UsageCount:  a.UsageCount,
		Preferences: datatypes.JSONMap(a.Preferences),

		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (m *AccountMapper) ToEntities(accounts []*model.UserAccount) []*entity.UserAccount {
	entities := make([]*entity.UserAccount, len(accounts))
	for i, a := range accounts {
		entities[i] = m.ToEntity(a)
	}
	return entities
}

// Webhook Event Mappers

func (m *AccountMapper) WebhookEventToEntity(e *model.WebhookEvent) *entity.WebhookEvent {
	if e == nil {
		return nil
	}
	return &entity.WebhookEvent{
		Id:              e.Id,
		Provider:        e.Provider,
		ProviderEventId: e.ProviderEventId,
		EventType:       e.EventType,
		ProcessedAt:     e.ProcessedAt,
		ProcessingError: e.ProcessingError,
		CreatedAt:       e.CreatedAt,
	}
}

func (m *AccountMapper) WebhookEventToModel(e *entity.WebhookEvent) *model.WebhookEvent {
	if e == nil {
		return nil
	}
	return &model.WebhookEvent{
		Id:              e.Id,
		Provider:        e.Provider,
		ProviderEventId: e.ProviderEventId,
		EventType:       e.EventType,
		ProcessedAt:     e.ProcessedAt,
		ProcessingError: e.ProcessingError,
		CreatedAt:       e.CreatedAt,
	}
}
