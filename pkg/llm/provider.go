package llm

import (
	"context"
	"errors"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrRateLimited is wrapped by providers when the backend answers with HTTP 429.
var ErrRateLimited = errors.New("llm backend rate limited")

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// ApplyOptions resolves opts over the default temperature.
func ApplyOptions(opts ...Option) *Options {
	options := &Options{Temperature: 0.7}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// ChunkHandler receives incremental output. Returning an error stops the stream.
type ChunkHandler func(chunk string) error

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// ChatStream delivers the response incrementally. The concatenation of all
	// chunks equals what Chat would have returned.
	ChatStream(ctx context.Context, history []Message, onChunk ChunkHandler, options ...Option) error

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}

// Collect drains a streaming call into a single string.
func Collect(ctx context.Context, p LLMProvider, history []Message, options ...Option) (string, error) {
	var buf []byte
	err := p.ChatStream(ctx, history, func(chunk string) error {
		buf = append(buf, chunk...)
		return nil
	}, options...)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}
