package serverutils

import (
	"errors"

	"sales-assistant-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

func statusFor(code apperror.Code) int {
	switch code {
	case apperror.CodeInvalidInput:
		return fiber.StatusBadRequest
	case apperror.CodeRateLimit:
		return fiber.StatusTooManyRequests
	case apperror.CodeModelTimeout:
		return fiber.StatusGatewayTimeout
	case apperror.CodeRetrievalFailed:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// WriteError renders err as the JSON error body with a matching status.
// An AppError wins over any fiber error it wraps.
func WriteError(ctx *fiber.Ctx, err error) error {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return ctx.Status(fe.Code).JSON(ErrorResponse(fe.Code, fe.Message))
		}
		appErr = apperror.As(err)
	}

	return ctx.Status(statusFor(appErr.Code)).JSON(AppErrorBody{
		Error:     string(appErr.Code),
		Message:   appErr.UserMessage,
		Retryable: appErr.Retryable,
		ErrorId:   appErr.ErrorID,
	})
}

func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return WriteError(ctx, err)
	}
}
