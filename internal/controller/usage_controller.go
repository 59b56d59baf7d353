// FILE: internal/controller/usage_controller.go
package controller

import (
	"textbehind-be/internal/pkg/serverutils"
	"textbehind-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IUsageController interface {
	RegisterRoutes(r fiber.Router, authMiddleware, originGuard fiber.Handler)
	Check(ctx *fiber.Ctx) error
	Increment(ctx *fiber.Ctx) error
}

type usageController struct {
	service service.IUsageService
}

func NewUsageController(service service.IUsageService) IUsageController {
	return &usageController{service: service}
}

func (c *usageController) RegisterRoutes(r fiber.Router, authMiddleware, originGuard fiber.Handler) {
	h := r.Group("/usage", authMiddleware)
	// Both verbs: the editor polls with GET, the pre-generate hook uses POST.
	h.Get("/check", c.Check)
	h.Post("/check", c.Check)
	// Increment is the spending route: origin sanity rejects before the gate.
	h.Post("/increment", originGuard, c.Increment)
}

func (c *usageController) Check(ctx *fiber.Ctx) error {
	externalId := serverutils.ExternalId(ctx)

	res, err := c.service.Check(ctx.Context(), externalId)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(res)
}

func (c *usageController) Increment(ctx *fiber.Ctx) error {
	externalId := serverutils.ExternalId(ctx)

	res, err := c.service.ConsumeOne(ctx.Context(), externalId)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	if !res.Success {
		// 403, not 429: the client treats this as "show the upgrade dialog"
		return ctx.Status(fiber.StatusForbidden).JSON(res)
	}
	return ctx.JSON(res)
}
