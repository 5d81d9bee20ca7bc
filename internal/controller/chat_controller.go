package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sales-assistant-be/internal/dto"
	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/internal/pkg/serverutils"
	"sales-assistant-be/internal/service"
	"sales-assistant-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	SessionHeader = "x-session-id"
	doneFrame     = "data: [DONE]\n\n"

	DefaultRequestTimeout    = 90 * time.Second
	DefaultHeartbeatInterval = 15 * time.Second
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	Options(ctx *fiber.Ctx) error
}

type ChatControllerConfig struct {
	RequestTimeout    time.Duration
	HeartbeatInterval time.Duration
}

type chatController struct {
	chatService service.IChatService
	cfg         ChatControllerConfig
	logger      logger.ILogger
}

func NewChatController(chatService service.IChatService, cfg ChatControllerConfig, log logger.ILogger) IChatController {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	return &chatController{
		chatService: chatService,
		cfg:         cfg,
		logger:      log,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat")
	h.Post("", c.Chat)
	h.Options("", c.Options)
}

func (c *chatController) Options(ctx *fiber.Ctx) error {
	ctx.Set(fiber.HeaderAccessControlAllowOrigin, "*")
	ctx.Set(fiber.HeaderAccessControlAllowMethods, "POST, OPTIONS")
	ctx.Set(fiber.HeaderAccessControlAllowHeaders, "Content-Type, "+SessionHeader)
	ctx.Set(fiber.HeaderAccessControlExposeHeaders, SessionHeader)
	return ctx.SendStatus(fiber.StatusNoContent)
}

// Chat validates the request up front and answers with JSON on failure. Once the
// body is valid the response switches to an event stream: one content event, one
// metadata event and the [DONE] terminator, or an error event and [DONE].
func (c *chatController) Chat(ctx *fiber.Ctx) error {
	sessionId := ctx.Get(SessionHeader)
	if sessionId == "" {
		sessionId = uuid.NewString()
	}
	ctx.Set(SessionHeader, sessionId)
	ctx.Set(fiber.HeaderAccessControlExposeHeaders, SessionHeader)

	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.WriteError(ctx, apperror.Wrap(apperror.CodeInvalidInput, "malformed body", err).
			WithUserMessage("Request body must be JSON with a messages array."))
	}
	req.Sanitize()
	if err := serverutils.ValidateRequest(req); err != nil {
		return serverutils.WriteError(ctx, err)
	}
	if _, ok := req.Input(); !ok {
		return serverutils.WriteError(ctx, apperror.New(apperror.CodeInvalidInput, "last message is not a user message").
			WithUserMessage("The last message must be a non-empty user message."))
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	// The fiber ctx is recycled once the handler returns; the stream writer only
	// uses values captured here.
	parent := context.WithoutCancel(ctx.UserContext())
	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		c.stream(parent, w, sessionId, &req)
	})
	return nil
}

type turnResult struct {
	res *dto.ChatTurnResponse
	err error
}

func (c *chatController) stream(parent context.Context, w *bufio.Writer, sessionId string, req *dto.ChatRequest) {
	runCtx, cancel := context.WithTimeout(parent, c.cfg.RequestTimeout)
	defer cancel()

	results := make(chan turnResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				results <- turnResult{err: apperror.New(apperror.CodeGeneric, fmt.Sprintf("panic: %v", r))}
			}
		}()
		res, err := c.chatService.Chat(runCtx, sessionId, req)
		results <- turnResult{res: res, err: err}
	}()

	heartbeat := time.NewTicker(c.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-heartbeat.C:
			// A failed flush means the client went away.
			if _, err := w.WriteString(": ping\n\n"); err != nil || w.Flush() != nil {
				c.logger.Info("ChatController", "Client disconnected", map[string]interface{}{
					"session_id": sessionId,
				})
				cancel()
				return
			}
		case r := <-results:
			if r.err != nil {
				writeErrorEvent(w, r.err)
			} else {
				writeEvent(w, dto.ContentEvent{Content: r.res.Content})
				writeEvent(w, dto.MetadataEvent{Metadata: r.res.Metadata})
			}
			_, _ = w.WriteString(doneFrame)
			if err := w.Flush(); err != nil {
				c.logger.Warn("ChatController", "Failed to flush final frames", map[string]interface{}{
					"session_id": sessionId,
					"error":      err.Error(),
				})
			}
			return
		}
	}
}

func writeErrorEvent(w *bufio.Writer, err error) {
	appErr := apperror.As(err)
	writeEvent(w, dto.ErrorEvent{
		Error:     string(appErr.Code),
		Message:   appErr.UserMessage,
		Retryable: appErr.Retryable,
		ErrorId:   appErr.ErrorID,
	})
}

func writeEvent(w *bufio.Writer, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = w.WriteString("data: ")
	_, _ = w.Write(data)
	_, _ = w.WriteString("\n\n")
}
