package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/pkg/llm"
	"sales-assistant-be/pkg/resilience"
)

const (
	DefaultTimeout = 8 * time.Second
	maxGrowth      = 4
	maxLength      = 500
)

// Preprocessor rewrites the user's question into a better retrieval query. It is
// best effort: every failure returns the original query.
type Preprocessor struct {
	llmProvider llm.LLMProvider
	breaker     *resilience.CircuitBreaker
	timeout     time.Duration
	logger      logger.ILogger
}

func NewPreprocessor(llmProvider llm.LLMProvider, breaker *resilience.CircuitBreaker, timeout time.Duration, log logger.ILogger) *Preprocessor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Preprocessor{
		llmProvider: llmProvider,
		breaker:     breaker,
		timeout:     timeout,
		logger:      log,
	}
}

// Preprocess returns the improved query, or query itself when the backend fails,
// the breaker is open or the rewrite looks unusable.
func (p *Preprocessor) Preprocess(ctx context.Context, query string, topics []string) string {
	original := strings.TrimSpace(query)
	if original == "" {
		return query
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	prompt := BuildPrompt(original, topics)
	out, err := resilience.Execute(ctx, p.breaker, func(ctx context.Context) (string, error) {
		return p.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0), llm.WithMaxTokens(120))
	})
	if err != nil {
		p.logger.Warn("QueryPreprocessor", "Falling back to original query", map[string]interface{}{
			"error": err.Error(),
		})
		return query
	}

	improved := Sanitize(out)
	if improved == "" || len(improved) > maxLength || len(improved) > maxGrowth*len(original)+40 {
		p.logger.Debug("QueryPreprocessor", "Rejected rewrite", map[string]interface{}{
			"rewrite_length": len(improved),
		})
		return query
	}

	p.logger.Debug("QueryPreprocessor", "Query rewritten", map[string]interface{}{
		"original": original,
		"improved": improved,
	})
	return improved
}

// BuildPrompt renders the fixed rewriting instruction with the session topics.
func BuildPrompt(query string, topics []string) string {
	var b strings.Builder
	b.WriteString("<task>\n")
	b.WriteString("Rewrite the user's question into a search query for a sales knowledge base.\n")
	b.WriteString("- Expand abbreviations.\n")
	b.WriteString("- Add context terms from the conversation topics when they clarify the question.\n")
	b.WriteString("- Normalize product and company names.\n")
	b.WriteString("- Keep the key entities (products, services, prices, dates).\n")
	b.WriteString("Return ONLY the rewritten query on a single line, without quotes or explanation.\n")
	b.WriteString("</task>\n\n")

	if len(topics) > 0 {
		fmt.Fprintf(&b, "<topics>%s</topics>\n\n", strings.Join(topics, ", "))
	}
	fmt.Fprintf(&b, "Question: %s", query)
	return b.String()
}

// Sanitize keeps the first non-empty line and strips wrapping quotes and labels.
func Sanitize(out string) string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, prefix := range []string{"Query:", "Rewritten query:", "Search query:"} {
			if len(line) >= len(prefix) && strings.EqualFold(line[:len(prefix)], prefix) {
				line = strings.TrimSpace(line[len(prefix):])
			}
		}
		return strings.Trim(line, "\"'` ")
	}
	return ""
}
