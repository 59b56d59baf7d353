// Package identity wraps the external auth service. The rest of the app only
// ever sees a stable external id plus profile fields.
package identity

import (
	"context"
	"errors"
	"net/http"
)

var (
	ErrInvalidSession   = errors.New("identity: invalid session token")
	ErrInvalidSignature = errors.New("identity: invalid webhook signature")
	ErrUserNotFound     = errors.New("identity: user not found")
	ErrNotConfigured    = errors.New("identity: provider not configured")
)

// Identity is the provider's view of one user.
type Identity struct {
	ExternalId string
	Email      string
	FirstName  string
	LastName   string
	AvatarURL  string
}

func (i Identity) FullName() string {
	switch {
	case i.FirstName != "" && i.LastName != "":
		return i.FirstName + " " + i.LastName
	case i.FirstName != "":
		return i.FirstName
	default:
		return i.LastName
	}
}

// UserEvent is a normalized identity webhook payload.
type UserEvent struct {
	Type     string // "user.created", "user.updated", "user.deleted"
	Identity Identity
}

type Provider interface {
	// ResolveSession verifies a session JWT and returns the external id it
	// was issued for.
	ResolveSession(token string) (string, error)
	// GetUser fetches a profile through the provider's admin API.
	GetUser(ctx context.Context, externalId string) (*Identity, error)
	// ParseWebhook verifies the svix signature headers and decodes the event.
	ParseWebhook(payload []byte, headers http.Header) (*UserEvent, error)
	// Configured reports whether webhook verification credentials are present.
	Configured() bool
}
