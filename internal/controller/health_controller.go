package controller

import (
	"sales-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
}

type healthController struct {
	service service.IAdminService
}

func NewHealthController(service service.IAdminService) IHealthController {
	return &healthController{service: service}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
}

// Health reports "degraded" while any circuit breaker is open. The status code
// stays 200 so load balancers keep routing to the instance.
func (c *healthController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(c.service.Health())
}
