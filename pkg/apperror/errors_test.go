package apperror

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"sales-assistant-be/pkg/llm"
	"sales-assistant-be/pkg/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_Defaults(t *testing.T) {
	tests := []struct {
		code      Code
		retryable bool
	}{
		{CodeRateLimit, true},
		{CodeModelTimeout, true},
		{CodeRetrievalFailed, true},
		{CodeInvalidInput, false},
		{CodeLeadCaptureFailed, false},
		{CodeGeneric, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			e := New(tt.code, "internal detail")
			assert.Equal(t, tt.code, e.Code)
			assert.Equal(t, tt.retryable, e.Retryable)
			assert.NotEmpty(t, e.ErrorID)
			assert.NotEmpty(t, e.UserMessage)
			assert.NotContains(t, e.UserMessage, "internal detail")
		})
	}
}

func TestWrap_UnknownCodeBecomesGeneric(t *testing.T) {
	e := New(Code("NOPE"), "x")
	assert.Equal(t, CodeGeneric, e.Code)
}

func TestFromDependency(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name        string
		code        Code
		err         error
		wantCode    Code
		wantMessage string
	}{
		{"breaker open", CodeModelTimeout, fmt.Errorf("generate: %w", resilience.ErrCircuitOpen), CodeModelTimeout, UnavailableMessage},
		{"breaker open retrieval", CodeRetrievalFailed, resilience.ErrCircuitOpen, CodeRetrievalFailed, UnavailableMessage},
		{"rate limited", CodeModelTimeout, fmt.Errorf("openai: %w", llm.ErrRateLimited), CodeRateLimit, definitions[CodeRateLimit].userMessage},
		{"deadline", CodeRetrievalFailed, context.DeadlineExceeded, CodeModelTimeout, definitions[CodeModelTimeout].userMessage},
		{"plain failure", CodeRetrievalFailed, cause, CodeRetrievalFailed, definitions[CodeRetrievalFailed].userMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := FromDependency(tt.code, tt.err)
			assert.Equal(t, tt.wantCode, e.Code)
			assert.Equal(t, tt.wantMessage, e.UserMessage)
			assert.True(t, e.Retryable)
			assert.ErrorIs(t, e, tt.err)
		})
	}
}

func TestAs(t *testing.T) {
	assert.Nil(t, As(nil))

	original := New(CodeInvalidInput, "bad")
	wrapped := fmt.Errorf("handler: %w", original)
	require.Same(t, original, As(wrapped))

	generic := As(errors.New("boom"))
	assert.Equal(t, CodeGeneric, generic.Code)
}
