package tasks

import "time"

type EmailKind string

const (
	EmailActivated EmailKind = "activated"
	EmailCanceled  EmailKind = "canceled"
)

// SubscriptionEmailTask is dispatched on TopicSubscriptionEmail. Identity
// webhook payloads go over TopicProfileSync as the provider's normalized
// UserEvent; this package stays payload-agnostic for those.
type SubscriptionEmailTask struct {
	Kind      EmailKind  `json:"kind"`
	Email     string     `json:"email"`
	PlanName  string     `json:"plan_name,omitempty"`
	PeriodEnd *time.Time `json:"period_end,omitempty"`
}
