package response

import (
	"context"
	"strings"

	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/pkg/apperror"
	"sales-assistant-be/pkg/llm"
	"sales-assistant-be/pkg/resilience"
	"sales-assistant-be/pkg/store"
)

const DefaultMaxHistory = 10

type Request struct {
	Input   string
	Docs    []store.ScoredDocument
	History []store.Turn
	Session *store.Session
}

// Generator calls the generation backend through its breaker and buffers the whole
// streamed answer. Nothing is returned until the stream has finished.
type Generator struct {
	llmProvider llm.LLMProvider
	breaker     *resilience.CircuitBreaker
	maxHistory  int
	options     []llm.Option
	logger      logger.ILogger
}

func NewGenerator(llmProvider llm.LLMProvider, breaker *resilience.CircuitBreaker, maxHistory int, log logger.ILogger, opts ...llm.Option) *Generator {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Generator{
		llmProvider: llmProvider,
		breaker:     breaker,
		maxHistory:  maxHistory,
		options:     opts,
		logger:      log,
	}
}

// BuildMessages produces system prompt, capped history and the user input.
func (g *Generator) BuildMessages(req Request) ([]llm.Message, Mode) {
	mode := SelectMode(req.Input, req.Session)

	var topics []string
	if req.Session != nil {
		topics = req.Session.TopicsDiscussed
	}

	history := req.History
	if len(history) > g.maxHistory {
		history = history[len(history)-g.maxHistory:]
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: BuildSystemPrompt(mode, req.Docs, topics)})
	for _, t := range history {
		messages = append(messages, llm.Message{Role: string(t.Role), Content: t.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: req.Input})
	return messages, mode
}

// Generate returns the complete raw model output, metadata markers included.
// Failures come back as MODEL_TIMEOUT (or RATE_LIMIT) AppErrors.
func (g *Generator) Generate(ctx context.Context, req Request) (string, error) {
	messages, mode := g.BuildMessages(req)

	var buf strings.Builder
	chunks := 0
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		buf.Reset()
		chunks = 0
		return g.llmProvider.ChatStream(ctx, messages, func(chunk string) error {
			chunks++
			buf.WriteString(chunk)
			return ctx.Err()
		}, g.options...)
	})
	if err != nil {
		appErr := apperror.FromDependency(apperror.CodeModelTimeout, err)
		g.logger.Error("ResponseGenerator", "Generation failed", map[string]interface{}{
			"error":    err,
			"error_id": appErr.ErrorID,
			"mode":     mode,
		})
		return "", appErr
	}

	g.logger.Debug("ResponseGenerator", "Generation buffered", map[string]interface{}{
		"mode":   mode,
		"chunks": chunks,
		"length": buf.Len(),
		"docs":   len(req.Docs),
	})
	return buf.String(), nil
}
