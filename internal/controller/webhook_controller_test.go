package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"textbehind-be/internal/billing"
	"textbehind-be/internal/dto"
	"textbehind-be/internal/entity"
	"textbehind-be/internal/identity"
	"textbehind-be/pkg/tasks"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

// webhookBillingProvider fakes signature verification: signature "valid"
// parses, anything else is rejected.
type webhookBillingProvider struct{}

func (webhookBillingProvider) CreateCheckoutSession(context.Context, billing.CheckoutParams) (*billing.CheckoutSession, error) {
	return nil, errors.New("not implemented")
}
func (webhookBillingProvider) GetCheckoutSession(context.Context, string) (*billing.CheckoutSession, error) {
	return nil, errors.New("not implemented")
}
func (webhookBillingProvider) GetSubscription(context.Context, string) (*entity.ProviderSubscription, error) {
	return nil, errors.New("not implemented")
}
func (webhookBillingProvider) LatestSubscription(context.Context, string) (*entity.ProviderSubscription, error) {
	return nil, errors.New("not implemented")
}
func (webhookBillingProvider) CreatePortalSession(context.Context, string, string) (string, error) {
	return "", errors.New("not implemented")
}
func (webhookBillingProvider) ParseWebhook(payload []byte, signature string) (*entity.BillingEvent, error) {
	if signature != "valid" {
		return nil, billing.ErrInvalidSignature
	}
	return &entity.BillingEvent{
		ProviderEventId: "evt_1",
		Kind:            entity.BillingEventSubscriptionCreated,
		RawType:         "customer.subscription.created",
	}, nil
}

// configuredIdentityProvider treats every payload as signature-verified.
type configuredIdentityProvider struct{}

func (configuredIdentityProvider) ResolveSession(string) (string, error) {
	return "", identity.ErrInvalidSession
}
func (configuredIdentityProvider) GetUser(context.Context, string) (*identity.Identity, error) {
	return nil, identity.ErrUserNotFound
}
func (configuredIdentityProvider) ParseWebhook([]byte, http.Header) (*identity.UserEvent, error) {
	return &identity.UserEvent{
		Type:     "user.updated",
		Identity: identity.Identity{ExternalId: "user_1", Email: "one@example.com"},
	}, nil
}
func (configuredIdentityProvider) Configured() bool { return true }

type unconfiguredIdentityProvider struct{}

func (unconfiguredIdentityProvider) ResolveSession(string) (string, error) {
	return "", identity.ErrInvalidSession
}
func (unconfiguredIdentityProvider) GetUser(context.Context, string) (*identity.Identity, error) {
	return nil, identity.ErrNotConfigured
}
func (unconfiguredIdentityProvider) ParseWebhook([]byte, http.Header) (*identity.UserEvent, error) {
	return nil, identity.ErrNotConfigured
}
func (unconfiguredIdentityProvider) Configured() bool { return false }

// recordingSubscriptionService captures HandleBillingEvent calls.
type recordingSubscriptionService struct {
	handled        []*entity.BillingEvent
	err            error
	syncSessionErr error
}

func (r *recordingSubscriptionService) HandleBillingEvent(ctx context.Context, evt *entity.BillingEvent) error {
	r.handled = append(r.handled, evt)
	return r.err
}
func (r *recordingSubscriptionService) SyncFromProvider(context.Context, string) (*dto.SyncResponse, error) {
	return nil, errors.New("not implemented")
}
func (r *recordingSubscriptionService) SyncFromCheckoutSession(context.Context, string, string) (*dto.SyncResponse, error) {
	if r.syncSessionErr != nil {
		return nil, r.syncSessionErr
	}
	return &dto.SyncResponse{Success: true, Message: "Checkout session synced"}, nil
}
func (r *recordingSubscriptionService) GetStatus(context.Context, string) (*dto.SubscriptionStatusResponse, error) {
	return nil, errors.New("not implemented")
}
func (r *recordingSubscriptionService) CreateCheckoutSession(context.Context, string, *dto.CheckoutSessionRequest) (*dto.CheckoutSessionResponse, error) {
	return nil, errors.New("not implemented")
}
func (r *recordingSubscriptionService) CreatePortalSession(context.Context, string) (*dto.PortalSessionResponse, error) {
	return nil, errors.New("not implemented")
}

func newWebhookTestApp(svc *recordingSubscriptionService, idp identity.Provider) *fiber.App {
	app := fiber.New()
	api := app.Group("/api")

	ctrl := NewWebhookController(
		webhookBillingProvider{},
		idp,
		svc,
		tasks.NewDispatcher(),
		nopLogger{},
	)
	ctrl.RegisterRoutes(api)
	return app
}

func TestBillingWebhookRejectsBadSignature(t *testing.T) {
	svc := &recordingSubscriptionService{}
	app := newWebhookTestApp(svc, unconfiguredIdentityProvider{})

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/billing", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "forged")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, svc.handled, "unverified events must never reach the reconciler")
}

func TestBillingWebhookAcknowledgesVerifiedEvent(t *testing.T) {
	svc := &recordingSubscriptionService{}
	app := newWebhookTestApp(svc, unconfiguredIdentityProvider{})

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/billing", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "valid")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &parsed))
	assert.Equal(t, true, parsed["received"])

	require.Len(t, svc.handled, 1)
	assert.Equal(t, "evt_1", svc.handled[0].ProviderEventId)
}

func TestBillingWebhookAcksDespiteProcessingError(t *testing.T) {
	svc := &recordingSubscriptionService{err: errors.New("db down")}
	app := newWebhookTestApp(svc, unconfiguredIdentityProvider{})

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/billing", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "valid")

	// Processing failures are logged and acked; retries come from the client
	// sync path, not from provider redelivery.
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIdentityWebhookWhenUnconfigured(t *testing.T) {
	svc := &recordingSubscriptionService{}
	app := newWebhookTestApp(svc, unconfiguredIdentityProvider{})

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/identity", strings.NewReader(`{}`))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &parsed))
	assert.Contains(t, parsed["message"], "not configured")
}

func TestIdentityWebhookAcksVerifiedEvent(t *testing.T) {
	svc := &recordingSubscriptionService{}
	app := newWebhookTestApp(svc, configuredIdentityProvider{})

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/identity", strings.NewReader(`{}`))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &parsed))
	assert.Equal(t, true, parsed["success"])
}
