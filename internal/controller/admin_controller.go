package controller

import (
	"errors"
	"fmt"

	"sales-assistant-be/internal/dto"
	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/internal/pkg/serverutils"
	"sales-assistant-be/internal/service"
	internalWS "sales-assistant-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)

	// Sessions
	GetSessionStats(ctx *fiber.Ctx) error
	GetSessionHistory(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error

	// Circuit breakers
	GetBreakers(ctx *fiber.Ctx) error
	ResetBreaker(ctx *fiber.Ctx) error

	GetLogs(ctx *fiber.Ctx) error

	// Leads
	GetLeads(ctx *fiber.Ctx) error
	LeadFeed(ctx *fiber.Ctx) error
}

type adminController struct {
	service   service.IAdminService
	hub       *internalWS.Hub
	jwtSecret string
	logger    logger.ILogger
}

// NewAdminController builds the admin API. hub may be nil, in which case the live
// lead feed answers 503.
func NewAdminController(service service.IAdminService, hub *internalWS.Hub, jwtSecret string, log logger.ILogger) IAdminController {
	return &adminController{
		service:   service,
		hub:       hub,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin")
	h.Use(serverutils.NewJwtMiddleware(c.jwtSecret))

	h.Get("/sessions/:id", c.GetSessionStats)
	h.Get("/sessions/:id/history", c.GetSessionHistory)
	h.Delete("/sessions/:id", c.DeleteSession)

	h.Get("/breakers", c.GetBreakers)
	h.Post("/breakers/:name/reset", c.ResetBreaker)

	h.Get("/logs", c.GetLogs)

	h.Get("/leads", c.GetLeads)
	h.Get("/leads/ws", c.LeadFeed)
}

func notFound(err error) error {
	if errors.Is(err, service.ErrSessionNotFound) || errors.Is(err, service.ErrBreakerNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return err
}

func (c *adminController) GetSessionStats(ctx *fiber.Ctx) error {
	res, err := c.service.GetSessionStats(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return notFound(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Session stats", res))
}

func (c *adminController) GetSessionHistory(ctx *fiber.Ctx) error {
	res, err := c.service.GetSessionHistory(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return notFound(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Session history", res))
}

func (c *adminController) DeleteSession(ctx *fiber.Ctx) error {
	if err := c.service.DeleteSession(ctx.UserContext(), ctx.Params("id")); err != nil {
		return notFound(err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Session deleted", nil))
}

func (c *adminController) GetBreakers(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Circuit breakers", dto.BreakerStatsResponse{
		Breakers: c.service.GetBreakers(),
	}))
}

func (c *adminController) ResetBreaker(ctx *fiber.Ctx) error {
	name := ctx.Params("name")
	if err := c.service.ResetBreaker(name); err != nil {
		return notFound(err)
	}
	c.logger.Info("AdminController", "Circuit breaker reset", map[string]interface{}{
		"breaker": name,
		"user_id": ctx.Locals("user_id"),
	})
	return ctx.JSON(serverutils.SuccessResponse[any]("Circuit breaker reset", nil))
}

func (c *adminController) GetLogs(ctx *fiber.Ctx) error {
	page := ctx.QueryInt("page", 1)
	limit := ctx.QueryInt("limit", 20)

	logs, err := c.service.GetSystemLogs(ctx.UserContext(), page, limit, ctx.Query("level"), ctx.Query("error_id"))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("System logs", logs))
}

func (c *adminController) GetLeads(ctx *fiber.Ctx) error {
	page := ctx.QueryInt("page", 1)
	limit := ctx.QueryInt("limit", 20)

	leads, err := c.service.GetLeads(ctx.UserContext(), page, limit, ctx.Query("email"))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Leads", leads))
}

// LeadFeed upgrades to a websocket that receives every captured lead. The JWT
// middleware has already run; browsers pass the token as ?token=.
func (c *adminController) LeadFeed(ctx *fiber.Ctx) error {
	if c.hub == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "lead feed is not available")
	}
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	userID := fmt.Sprint(ctx.Locals("user_id"))
	return websocket.New(func(conn *websocket.Conn) {
		c.logger.Info("AdminController", "Lead feed connected", map[string]interface{}{"user_id": userID})
		internalWS.ServeWs(c.hub, conn, userID)
		c.logger.Info("AdminController", "Lead feed closed", map[string]interface{}{"user_id": userID})
	})(ctx)
}
