// FILE: internal/controller/billing_controller.go
package controller

import (
	"errors"

	"textbehind-be/internal/dto"
	"textbehind-be/internal/pkg/serverutils"
	"textbehind-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IBillingController interface {
	RegisterRoutes(r fiber.Router, authMiddleware fiber.Handler)
	CreateCheckoutSession(ctx *fiber.Ctx) error
	CreatePortalSession(ctx *fiber.Ctx) error
	SyncSubscription(ctx *fiber.Ctx) error
	SyncCheckoutSession(ctx *fiber.Ctx) error
	GetStatus(ctx *fiber.Ctx) error
}

type billingController struct {
	service service.ISubscriptionService
}

func NewBillingController(service service.ISubscriptionService) IBillingController {
	return &billingController{service: service}
}

func (c *billingController) RegisterRoutes(r fiber.Router, authMiddleware fiber.Handler) {
	checkout := r.Group("/checkout", authMiddleware)
	checkout.Post("/session", c.CreateCheckoutSession)

	billing := r.Group("/billing", authMiddleware)
	billing.Post("/portal", c.CreatePortalSession)

	sub := r.Group("/subscription", authMiddleware)
	sub.Post("/sync", c.SyncSubscription)
	sub.Post("/sync-session", c.SyncCheckoutSession)
	sub.Get("/status", c.GetStatus)
}

func (c *billingController) CreateCheckoutSession(ctx *fiber.Ctx) error {
	var req dto.CheckoutSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateCheckoutSession(ctx.Context(), serverutils.ExternalId(ctx), &req)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Checkout session created", res))
}

func (c *billingController) CreatePortalSession(ctx *fiber.Ctx) error {
	res, err := c.service.CreatePortalSession(ctx.Context(), serverutils.ExternalId(ctx))
	if err != nil {
		if errors.Is(err, service.ErrNoBillingCustomer) {
			return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "No billing account on record"))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Portal session created", res))
}

func (c *billingController) SyncSubscription(ctx *fiber.Ctx) error {
	res, err := c.service.SyncFromProvider(ctx.Context(), serverutils.ExternalId(ctx))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(res)
}

func (c *billingController) SyncCheckoutSession(ctx *fiber.Ctx) error {
	var req dto.SyncSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SyncFromCheckoutSession(ctx.Context(), serverutils.ExternalId(ctx), req.SessionId)
	if err != nil {
		if errors.Is(err, service.ErrSessionIncomplete) {
			return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Checkout session incomplete or has no customer"))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(res)
}

func (c *billingController) GetStatus(ctx *fiber.Ctx) error {
	res, err := c.service.GetStatus(ctx.Context(), serverutils.ExternalId(ctx))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(res)
}
