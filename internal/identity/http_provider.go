package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	cache "github.com/patrickmn/go-cache"
	svix "github.com/svix/svix-webhooks/go"

	"textbehind-be/internal/config"
)

// HttpProvider talks to a Clerk-compatible identity service: HS256 session
// JWTs, a REST admin API, and svix-signed webhooks.
type HttpProvider struct {
	cfg        config.IdentityConfig
	httpClient *http.Client
	wh         *svix.Webhook
	// profileCache keeps admin API lookups off the hot path; entries are
	// short-lived since webhooks refresh profiles anyway.
	profileCache *cache.Cache
}

func NewHttpProvider(cfg config.IdentityConfig) (*HttpProvider, error) {
	p := &HttpProvider{
		cfg:          cfg,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		profileCache: cache.New(5*time.Minute, 10*time.Minute),
	}

	if cfg.WebhookSecret != "" {
		wh, err := svix.NewWebhook(cfg.WebhookSecret)
		if err != nil {
			return nil, fmt.Errorf("identity webhook verifier: %w", err)
		}
		p.wh = wh
	}

	return p, nil
}

var _ Provider = (*HttpProvider)(nil)

func (p *HttpProvider) Configured() bool {
	return p.wh != nil
}

func (p *HttpProvider) ResolveSession(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(p.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidSession
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrInvalidSession
	}
	return sub, nil
}

// providerUser is the wire shape of the admin API's user object.
type providerUser struct {
	Id             string `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ImageURL       string `json:"image_url"`
	PrimaryEmailId string `json:"primary_email_address_id"`
	EmailAddresses []struct {
		Id           string `json:"id"`
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
}

func (u *providerUser) toIdentity() Identity {
	id := Identity{
		ExternalId: u.Id,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		AvatarURL:  u.ImageURL,
	}
	for _, e := range u.EmailAddresses {
		if e.Id == u.PrimaryEmailId || id.Email == "" {
			id.Email = e.EmailAddress
		}
	}
	return id
}

func (p *HttpProvider) GetUser(ctx context.Context, externalId string) (*Identity, error) {
	if p.cfg.SecretKey == "" {
		return nil, ErrNotConfigured
	}

	if cached, found := p.profileCache.Get(externalId); found {
		identity := cached.(Identity)
		return &identity, nil
	}

	url := fmt.Sprintf("%s/users/%s", p.cfg.APIBaseURL, externalId)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.SecretKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity admin api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrUserNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("identity admin api: status %d: %s", resp.StatusCode, body)
	}

	var user providerUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("identity admin api: decode: %w", err)
	}

	identity := user.toIdentity()
	p.profileCache.Set(externalId, identity, cache.DefaultExpiration)
	return &identity, nil
}

func (p *HttpProvider) ParseWebhook(payload []byte, headers http.Header) (*UserEvent, error) {
	if p.wh == nil {
		return nil, ErrNotConfigured
	}
	if err := p.wh.Verify(payload, headers); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var envelope struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("identity webhook: decode envelope: %w", err)
	}

	var user providerUser
	if err := json.Unmarshal(envelope.Data, &user); err != nil {
		return nil, fmt.Errorf("identity webhook: decode user: %w", err)
	}

	return &UserEvent{
		Type:     envelope.Type,
		Identity: user.toIdentity(),
	}, nil
}
