package service

import (
	"context"
	"errors"
	"net/http"

	"textbehind-be/internal/billing"
	"textbehind-be/internal/config"
	"textbehind-be/internal/entity"
	"textbehind-be/internal/identity"
	"textbehind-be/internal/repository/unitofwork"
)

// nopLogger satisfies logger.ILogger for tests.
type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type fakeIdentityProvider struct {
	users map[string]identity.Identity
	err   error
}

func (f *fakeIdentityProvider) ResolveSession(token string) (string, error) {
	return token, nil
}

func (f *fakeIdentityProvider) GetUser(ctx context.Context, externalId string) (*identity.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[externalId]; ok {
		return &u, nil
	}
	return nil, identity.ErrUserNotFound
}

func (f *fakeIdentityProvider) ParseWebhook(payload []byte, headers http.Header) (*identity.UserEvent, error) {
	return nil, identity.ErrNotConfigured
}

func (f *fakeIdentityProvider) Configured() bool { return false }

type fakeBillingProvider struct {
	subscription *entity.ProviderSubscription
	session      *billing.CheckoutSession
	err          error
}

func (f *fakeBillingProvider) CreateCheckoutSession(ctx context.Context, params billing.CheckoutParams) (*billing.CheckoutSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &billing.CheckoutSession{
		Id:                 "cs_test_1",
		URL:                "https://checkout.example.com/cs_test_1",
		ExternalIdentityId: params.ExternalIdentityId,
	}, nil
}

func (f *fakeBillingProvider) GetCheckoutSession(ctx context.Context, sessionId string) (*billing.CheckoutSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.session == nil {
		return nil, billing.ErrNotFound
	}
	return f.session, nil
}

func (f *fakeBillingProvider) GetSubscription(ctx context.Context, subscriptionId string) (*entity.ProviderSubscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.subscription == nil {
		return nil, billing.ErrNotFound
	}
	return f.subscription, nil
}

func (f *fakeBillingProvider) LatestSubscription(ctx context.Context, customerId string) (*entity.ProviderSubscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.subscription == nil {
		return nil, billing.ErrNotFound
	}
	return f.subscription, nil
}

func (f *fakeBillingProvider) CreatePortalSession(ctx context.Context, customerId, returnURL string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://billing.example.com/portal", nil
}

func (f *fakeBillingProvider) ParseWebhook(payload []byte, signature string) (*entity.BillingEvent, error) {
	return nil, errors.New("not used in service tests")
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			PublicAppURL: "https://app.example.com",
		},
		Billing: config.BillingConfig{
			MonthlyPriceId: "price_monthly",
			YearlyPriceId:  "price_yearly",
		},
		Usage: config.UsageConfig{
			FreeLimit:    6,
			MonthlyLimit: 1000,
			YearlyLimit:  10000,
		},
	}
}

type testEnv struct {
	factory  unitofwork.RepositoryFactory
	accounts IAccountService
	billing  *fakeBillingProvider
	subs     ISubscriptionService
	usage    IUsageService
	cfg      *config.Config
}

func newTestEnv() *testEnv {
	cfg := testConfig()
	factory := unitofwork.NewMemoryRepositoryFactory()
	idp := &fakeIdentityProvider{users: map[string]identity.Identity{
		"user_1": {ExternalId: "user_1", Email: "one@example.com", FirstName: "One"},
	}}
	bp := &fakeBillingProvider{}

	accounts := NewAccountService(factory, idp, nopLogger{})
	subs := NewSubscriptionService(factory, bp, billing.NewPlanCatalog(cfg.Billing), accounts, cfg, nil, nil, nil, nopLogger{})
	usage := NewUsageService(factory, accounts, cfg.Usage, nil, nopLogger{})

	return &testEnv{
		factory:  factory,
		accounts: accounts,
		billing:  bp,
		subs:     subs,
		usage:    usage,
		cfg:      cfg,
	}
}
