package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/pkg/llm"
	"sales-assistant-be/pkg/resilience"

	"github.com/stretchr/testify/assert"
)

type stubLLM struct {
	out    string
	err    error
	prompt string
	calls  int
}

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return s.out, s.err
}

func (s *stubLLM) ChatStream(ctx context.Context, history []llm.Message, onChunk llm.ChunkHandler, opts ...llm.Option) error {
	return errors.New("not used")
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	s.calls++
	s.prompt = prompt
	return s.out, s.err
}

func TestPreprocessor(t *testing.T) {
	tests := []struct {
		name  string
		out   string
		err   error
		query string
		want  string
	}{
		{"rewrite", "React Native mobile app development pricing", nil, "RN app cost?", "React Native mobile app development pricing"},
		{"quoted with label", "Query: \"SEO audit pricing\"\nextra", nil, "seo price", "SEO audit pricing"},
		{"backend error", "", errors.New("timeout"), "pricing?", "pricing?"},
		{"empty rewrite", "   \n ", nil, "pricing?", "pricing?"},
		{"runaway rewrite", strings.Repeat("word ", 200), nil, "pricing?", "pricing?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubLLM{out: tt.out, err: tt.err}
			p := NewPreprocessor(stub, resilience.NewCircuitBreaker("llm"), 0, logger.NewNop())
			assert.Equal(t, tt.want, p.Preprocess(context.Background(), tt.query, []string{"mobile apps"}))
			assert.Contains(t, stub.prompt, "<topics>mobile apps</topics>")
		})
	}
}

func TestPreprocessor_BreakerOpenFallsBack(t *testing.T) {
	stub := &stubLLM{out: "rewritten"}
	cb := resilience.NewCircuitBreaker("llm", resilience.WithFailureThreshold(1))
	_ = cb.Execute(context.Background(), func(ctx context.Context) error { return errors.New("down") })

	p := NewPreprocessor(stub, cb, 0, logger.NewNop())
	assert.Equal(t, "what is new", p.Preprocess(context.Background(), "what is new", nil))
	assert.Equal(t, 0, stub.calls)
}

func TestPreprocessor_BlankQueryUntouched(t *testing.T) {
	stub := &stubLLM{out: "something"}
	p := NewPreprocessor(stub, resilience.NewCircuitBreaker("llm"), 0, logger.NewNop())
	assert.Equal(t, "  ", p.Preprocess(context.Background(), "  ", nil))
	assert.Equal(t, 0, stub.calls)
}

func TestBuildPrompt_NoTopics(t *testing.T) {
	p := BuildPrompt("pricing", nil)
	assert.NotContains(t, p, "<topics>")
	assert.True(t, strings.HasSuffix(p, "Question: pricing"))
}
