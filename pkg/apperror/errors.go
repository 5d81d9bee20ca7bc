package apperror

import (
	"context"
	"errors"
	"fmt"

	"sales-assistant-be/pkg/llm"
	"sales-assistant-be/pkg/resilience"

	"github.com/google/uuid"
)

type Code string

const (
	CodeRateLimit         Code = "RATE_LIMIT"
	CodeModelTimeout      Code = "MODEL_TIMEOUT"
	CodeRetrievalFailed   Code = "RETRIEVAL_FAILED"
	CodeInvalidInput      Code = "INVALID_INPUT"
	CodeLeadCaptureFailed Code = "LEAD_CAPTURE_FAILED"
	CodeGeneric           Code = "GENERIC"
)

const UnavailableMessage = "The assistant is temporarily unavailable. Please try again in a minute."

type definition struct {
	userMessage string
	retryable   bool
}

var definitions = map[Code]definition{
	CodeRateLimit:         {"Too many requests right now. Please wait a moment and try again.", true},
	CodeModelTimeout:      {"Sorry, generating a response took too long. Please try again.", true},
	CodeRetrievalFailed:   {"Sorry, I couldn't look up the information needed to answer. Please try again.", true},
	CodeInvalidInput:      {"Your message could not be processed. Please check it and try again.", false},
	CodeLeadCaptureFailed: {"We couldn't save your contact details.", false},
	CodeGeneric:           {"Sorry, something went wrong. Please try again.", true},
}

// AppError carries an internal message for logs and a separate message that is
// safe to show to the user.
type AppError struct {
	Code        Code
	Message     string
	UserMessage string
	Retryable   bool
	ErrorID     string
	Err         error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code Code, message string) *AppError {
	return Wrap(code, message, nil)
}

func Wrap(code Code, message string, err error) *AppError {
	def, ok := definitions[code]
	if !ok {
		code, def = CodeGeneric, definitions[CodeGeneric]
	}
	return &AppError{
		Code:        code,
		Message:     message,
		UserMessage: def.userMessage,
		Retryable:   def.retryable,
		ErrorID:     uuid.NewString(),
		Err:         err,
	}
}

// WithUserMessage overrides the user-facing text.
func (e *AppError) WithUserMessage(msg string) *AppError {
	e.UserMessage = msg
	return e
}

// FromDependency classifies a failure returned by a breaker-wrapped call. An open
// breaker keeps the stage code but tells the user the service is temporarily
// unavailable. Deadline and rate-limit failures get their own codes.
func FromDependency(code Code, err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		e := Wrap(code, "dependency circuit open", err).WithUserMessage(UnavailableMessage)
		e.Retryable = true
		return e
	case errors.Is(err, llm.ErrRateLimited):
		return Wrap(CodeRateLimit, "dependency rate limited", err)
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(CodeModelTimeout, "dependency deadline exceeded", err)
	}
	return Wrap(code, "dependency call failed", err)
}

// As extracts an AppError from err, wrapping unknown errors as GENERIC.
func As(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(CodeGeneric, "unexpected error", err)
}
