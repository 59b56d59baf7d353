// FILE: internal/dto/billing_dto.go
package dto

import "time"

// --- Checkout ---

// CheckoutSessionRequest for POST /api/checkout/session
type CheckoutSessionRequest struct {
	PlanType string `json:"planType" validate:"required,oneof=monthly yearly"`
}

// CheckoutSessionResponse carries the hosted checkout redirect
type CheckoutSessionResponse struct {
	SessionId string  `json:"sessionId"`
	URL       string  `json:"url"`
	PlanType  string  `json:"planType"`
	PlanName  string  `json:"planName"`
	Price     float64 `json:"price"`
}

// PortalSessionResponse for POST /api/billing/portal
type PortalSessionResponse struct {
	URL string `json:"url"`
}

// --- Subscription sync / status ---

// SyncSessionRequest for POST /api/subscription/sync-session
type SyncSessionRequest struct {
	SessionId string `json:"sessionId" validate:"required"`
}

// SyncResponse is returned by both sync endpoints
type SyncResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	User    *AccountResponse `json:"user,omitempty"`
}

// SubscriptionInfo mirrors the provider subscription for the status endpoint
type SubscriptionInfo struct {
	Id                 string     `json:"id"`
	CustomerId         string     `json:"customerId"`
	Status             string     `json:"status"`
	PlanType           string     `json:"planType"`
	CurrentPeriodStart *time.Time `json:"currentPeriodStart,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd  bool       `json:"cancelAtPeriodEnd"`
}

// SubscriptionStatusResponse for GET /api/subscription/status
type SubscriptionStatusResponse struct {
	IsPremium    bool              `json:"isPremium"`
	Tier         string            `json:"tier"`
	Subscription *SubscriptionInfo `json:"subscription,omitempty"`
}
