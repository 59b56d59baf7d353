package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"textbehind-be/internal/dto"
	"textbehind-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

func sessionToken(t *testing.T, externalId string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": externalId,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

type stubUsageService struct {
	check     *dto.UsageCheckResponse
	increment *dto.UsageIncrementResponse
	lastId    string
}

func (s *stubUsageService) Check(ctx context.Context, externalId string) (*dto.UsageCheckResponse, error) {
	s.lastId = externalId
	if s.check == nil {
		return nil, errors.New("no response configured")
	}
	return s.check, nil
}

func (s *stubUsageService) ConsumeOne(ctx context.Context, externalId string) (*dto.UsageIncrementResponse, error) {
	s.lastId = externalId
	if s.increment == nil {
		return nil, errors.New("no response configured")
	}
	return s.increment, nil
}

const testAppOrigin = "https://app.example.com"

func newUsageTestApp(svc *stubUsageService) *fiber.App {
	app := fiber.New()
	api := app.Group("/api")
	NewUsageController(svc).RegisterRoutes(
		api,
		serverutils.SessionMiddleware(testJWTSecret),
		serverutils.OriginGuardMiddleware(testAppOrigin),
	)
	return app
}

func TestUsageCheckRequiresSession(t *testing.T) {
	app := newUsageTestApp(&stubUsageService{})

	req := httptest.NewRequest(http.MethodGet, "/api/usage/check", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/usage/check", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUsageCheckPassesCallerIdentity(t *testing.T) {
	svc := &stubUsageService{check: &dto.UsageCheckResponse{
		CanCreate: true,
		UsageInfo: dto.UsageInfo{CurrentUsage: 2, Limit: 6, Remaining: 4, SubscriptionTier: "free"},
	}}
	app := newUsageTestApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/usage/check", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, "user_1"))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "user_1", svc.lastId)

	body, _ := io.ReadAll(resp.Body)
	var parsed dto.UsageCheckResponse
	require.NoError(t, json.Unmarshal(body, &parsed))
	assert.True(t, parsed.CanCreate)
	assert.Equal(t, 4, parsed.UsageInfo.Remaining)
}

func TestUsageIncrementDeniedReturns403(t *testing.T) {
	svc := &stubUsageService{increment: &dto.UsageIncrementResponse{
		Success:    false,
		UsageCount: 6,
		Limit:      6,
		Reason:     dto.ReasonLimitReached,
	}}
	app := newUsageTestApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/usage/increment", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, "user_1"))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var parsed dto.UsageIncrementResponse
	require.NoError(t, json.Unmarshal(body, &parsed))
	assert.False(t, parsed.Success)
	assert.Equal(t, dto.ReasonLimitReached, parsed.Reason)
}

func TestUsageIncrementRejectsForeignOrigin(t *testing.T) {
	svc := &stubUsageService{increment: &dto.UsageIncrementResponse{
		Success:    true,
		UsageCount: 1,
		Remaining:  5,
		Limit:      6,
	}}
	app := newUsageTestApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/usage/increment", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, "user_1"))
	req.Header.Set("Origin", "https://evil.example.com")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, svc.lastId, "guard must reject before the gate is invoked")

	// The editor's own origin goes through
	req = httptest.NewRequest(http.MethodPost, "/api/usage/increment", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, "user_1"))
	req.Header.Set("Origin", testAppOrigin)

	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "user_1", svc.lastId)
}
