package response

import (
	"context"
	"errors"
	"testing"
	"time"

	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/pkg/apperror"
	"sales-assistant-be/pkg/llm"
	"sales-assistant-be/pkg/rag/metadata"
	"sales-assistant-be/pkg/resilience"
	"sales-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type streamLLM struct {
	chunks   []string
	err      error
	messages []llm.Message
}

func (s *streamLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (s *streamLLM) ChatStream(ctx context.Context, history []llm.Message, onChunk llm.ChunkHandler, opts ...llm.Option) error {
	s.messages = history
	for _, c := range s.chunks {
		if err := onChunk(c); err != nil {
			return err
		}
	}
	return s.err
}

func (s *streamLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func TestSelectMode(t *testing.T) {
	followUp := store.NewSession("s", time.Now())
	followUp.Stage = store.StageInformationGathering
	followUp.AppendTurn(store.RoleUser, "hi")
	followUp.AppendTurn(store.RoleAssistant, "which platform?")

	pricingSession := store.NewSession("p", time.Now())
	pricingSession.LastIntent = store.IntentPricing

	tests := []struct {
		name    string
		input   string
		session *store.Session
		want    Mode
	}{
		{"pricing keyword", "How much does a website cost?", nil, ModePricing},
		{"previous pricing intent", "and for mobile?", pricingSession, ModePricing},
		{"steps", "How to start a project with you?", nil, ModeSteps},
		{"detailed", "Explain your QA process", nil, ModeDetailed},
		{"follow up", "iOS only", followUp, ModeQuick},
		{"default", "Do you build e-commerce sites?", store.NewSession("n", time.Now()), ModeDetailed},
		{"accurate is not pricing", "Is your estimate accurate?", nil, ModeDetailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectMode(tt.input, tt.session))
		})
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	updated := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	doc := store.ScoredDocument{Document: store.Document{
		Title:    "Pricing",
		Content:  "Websites start at $5,000.",
		Metadata: map[string]interface{}{store.MetaSource: "pricing.md", store.MetaLastUpdated: updated},
	}}

	p := BuildSystemPrompt(ModePricing, []store.ScoredDocument{doc}, []string{"websites"})
	assert.Contains(t, p, "SOURCE 1: Pricing (pricing.md) [updated 2024-03-01]")
	assert.Contains(t, p, "Websites start at $5,000.")
	assert.Contains(t, p, ModePricing.Instruction())
	assert.Contains(t, p, "<conversation_topics>websites</conversation_topics>")
	assert.Contains(t, p, metadata.Instruction)
	assert.NotContains(t, p, "<freshness_warning>")

	warned := doc.Document.WithMetadata(map[string]interface{}{
		store.MetaFreshnessWarning: true,
		store.MetaSuggestedAction:  "contact sales",
	})
	p = BuildSystemPrompt(ModeDetailed, []store.ScoredDocument{{Document: warned}}, nil)
	assert.Contains(t, p, "<freshness_warning>")
	assert.Contains(t, p, "contact sales")
	assert.NotContains(t, p, "<conversation_topics>")
}

func TestBuildSystemPrompt_NoDocs(t *testing.T) {
	p := BuildSystemPrompt(ModeDetailed, nil, nil)
	assert.Contains(t, p, "No reference material matched")
}

func TestGenerator_BuffersStream(t *testing.T) {
	stub := &streamLLM{chunks: []string{"We build ", "web apps.", "\n[CONFIDENCE: 0.9] [INTENT: information]"}}
	g := NewGenerator(stub, resilience.NewCircuitBreaker("llm"), 2, logger.NewNop())

	history := []store.Turn{
		{Role: store.RoleUser, Content: "one"},
		{Role: store.RoleAssistant, Content: "two"},
		{Role: store.RoleUser, Content: "three"},
	}
	out, err := g.Generate(context.Background(), Request{Input: "What do you do?", History: history})
	require.NoError(t, err)
	assert.Equal(t, "We build web apps.\n[CONFIDENCE: 0.9] [INTENT: information]", out)

	require.Len(t, stub.messages, 4)
	assert.Equal(t, llm.RoleSystem, stub.messages[0].Role)
	assert.Equal(t, "two", stub.messages[1].Content)
	assert.Equal(t, "What do you do?", stub.messages[3].Content)
}

func TestGenerator_StreamFailureReturnsNothing(t *testing.T) {
	stub := &streamLLM{chunks: []string{"partial "}, err: context.DeadlineExceeded}
	g := NewGenerator(stub, resilience.NewCircuitBreaker("llm"), 0, logger.NewNop())

	out, err := g.Generate(context.Background(), Request{Input: "hi"})
	assert.Empty(t, out)
	appErr := apperror.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperror.CodeModelTimeout, appErr.Code)
}

func TestGenerator_BreakerOpen(t *testing.T) {
	cb := resilience.NewCircuitBreaker("llm", resilience.WithFailureThreshold(1))
	_ = cb.Execute(context.Background(), func(ctx context.Context) error { return errors.New("down") })

	stub := &streamLLM{chunks: []string{"never"}}
	g := NewGenerator(stub, cb, 0, logger.NewNop())

	_, err := g.Generate(context.Background(), Request{Input: "hi"})
	appErr := apperror.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperror.UnavailableMessage, appErr.UserMessage)
	assert.Nil(t, stub.messages)
}
