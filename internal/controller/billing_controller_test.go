package controller

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"textbehind-be/internal/pkg/serverutils"
	"textbehind-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBillingTestApp(svc *recordingSubscriptionService) *fiber.App {
	app := fiber.New()
	api := app.Group("/api")
	NewBillingController(svc).RegisterRoutes(api, serverutils.SessionMiddleware(testJWTSecret))
	return app
}

func syncSessionRequest(t *testing.T) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/subscription/sync-session", strings.NewReader(`{"sessionId":"cs_1"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, "user_1"))
	return req
}

func TestSyncSessionEndpointRejectsIncompleteSession(t *testing.T) {
	svc := &recordingSubscriptionService{syncSessionErr: service.ErrSessionIncomplete}
	app := newBillingTestApp(svc)

	resp, err := app.Test(syncSessionRequest(t))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSyncSessionEndpointReturnsSyncedState(t *testing.T) {
	svc := &recordingSubscriptionService{}
	app := newBillingTestApp(svc)

	resp, err := app.Test(syncSessionRequest(t))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
