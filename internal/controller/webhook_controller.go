// FILE: internal/controller/webhook_controller.go
package controller

import (
	"errors"
	"net/http"

	"textbehind-be/internal/billing"
	"textbehind-be/internal/identity"
	"textbehind-be/internal/pkg/logger"
	"textbehind-be/internal/pkg/serverutils"
	"textbehind-be/internal/service"
	"textbehind-be/pkg/tasks"

	"github.com/gofiber/fiber/v2"
)

type IWebhookController interface {
	RegisterRoutes(r fiber.Router)
	BillingWebhook(ctx *fiber.Ctx) error
	IdentityWebhook(ctx *fiber.Ctx) error
}

type webhookController struct {
	billingProvider     billing.Provider
	identityProvider    identity.Provider
	subscriptionService service.ISubscriptionService
	dispatcher          *tasks.Dispatcher
	// webhookLog is the isolated audit log; provider retries are noisy
	log logger.ILogger
}

func NewWebhookController(
	billingProvider billing.Provider,
	identityProvider identity.Provider,
	subscriptionService service.ISubscriptionService,
	dispatcher *tasks.Dispatcher,
	log logger.ILogger,
) IWebhookController {
	return &webhookController{
		billingProvider:     billingProvider,
		identityProvider:    identityProvider,
		subscriptionService: subscriptionService,
		dispatcher:          dispatcher,
		log:                 log,
	}
}

func (c *webhookController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/webhooks")
	h.Post("/billing", c.BillingWebhook)
	h.Post("/identity", c.IdentityWebhook)
}

// BillingWebhook verifies, reconciles, and always acknowledges. Only a
// signature failure earns a 400; processing errors are logged and acked so
// the provider does not retry an event we have already recorded, and the
// client sync endpoints repair any resulting drift.
func (c *webhookController) BillingWebhook(ctx *fiber.Ctx) error {
	payload := ctx.Body()
	signature := ctx.Get("Stripe-Signature")

	evt, err := c.billingProvider.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, billing.ErrInvalidSignature) {
			c.log.Warn("webhook", "Billing webhook signature rejected", map[string]interface{}{
				"error": err.Error(),
			})
			return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid signature"))
		}
		c.log.Error("webhook", "Billing webhook payload rejected", map[string]interface{}{
			"error": err.Error(),
		})
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid payload"))
	}

	c.log.Info("webhook", "Billing event received", map[string]interface{}{
		"event_id": evt.ProviderEventId,
		"type":     evt.RawType,
	})

	if err := c.subscriptionService.HandleBillingEvent(ctx.Context(), evt); err != nil {
		c.log.Error("webhook", "Billing event processing failed", map[string]interface{}{
			"event_id": evt.ProviderEventId,
			"type":     evt.RawType,
			"error":    err.Error(),
		})
	}

	return ctx.JSON(fiber.Map{"received": true})
}

func (c *webhookController) IdentityWebhook(ctx *fiber.Ctx) error {
	if !c.identityProvider.Configured() {
		return ctx.JSON(fiber.Map{"message": "Identity webhooks not configured"})
	}

	headers := http.Header{}
	ctx.Request().Header.VisitAll(func(key, value []byte) {
		headers.Add(string(key), string(value))
	})

	evt, err := c.identityProvider.ParseWebhook(ctx.Body(), headers)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidSignature) {
			c.log.Warn("webhook", "Identity webhook signature rejected", nil)
			return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid signature"))
		}
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid payload"))
	}

	// Profile sync is best-effort and must not delay the provider's timeout.
	if err := c.dispatcher.Dispatch(tasks.TopicProfileSync, evt); err != nil {
		c.log.Error("webhook", "Failed to queue profile sync", map[string]interface{}{
			"external_id": evt.Identity.ExternalId,
			"error":       err.Error(),
		})
	}

	return ctx.JSON(fiber.Map{"success": true})
}
