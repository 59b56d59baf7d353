// FILE: internal/dto/usage_dto.go
// DTOs for the image-generation usage gate
package dto

// UsageInfo is the snapshot attached to every gate response so the client
// can render the counter without a second request.
type UsageInfo struct {
	CurrentUsage     int    `json:"current_usage"`
	Limit            int    `json:"limit"`
	Remaining        int    `json:"remaining"`
	SubscriptionTier string `json:"subscription_tier"`
	IsPremium        bool   `json:"is_premium"`
}

// UsageCheckResponse is returned by GET/POST /api/usage/check
type UsageCheckResponse struct {
	CanCreate bool      `json:"canCreate"`
	Reason    string    `json:"reason,omitempty"`
	UsageInfo UsageInfo `json:"usage_info"`
}

// UsageIncrementResponse is returned by POST /api/usage/increment
type UsageIncrementResponse struct {
	Success    bool   `json:"success"`
	UsageCount int    `json:"usage_count"`
	Remaining  int    `json:"remaining"`
	Limit      int    `json:"limit"`
	Reason     string `json:"reason,omitempty"`
}

// Denial reason constants surfaced in gate responses
const (
	ReasonLimitReached = "usage_limit_reached"
)
