package bootstrap

import (
	"time"

	"sales-assistant-be/internal/config"
	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/internal/service"
	"sales-assistant-be/pkg/lead"
	"sales-assistant-be/pkg/llm"
	"sales-assistant-be/pkg/rag/clarify"
	"sales-assistant-be/pkg/rag/freshness"
	"sales-assistant-be/pkg/rag/query"
	"sales-assistant-be/pkg/rag/rerank"
	"sales-assistant-be/pkg/rag/response"
	"sales-assistant-be/pkg/rag/session"
	"sales-assistant-be/pkg/rag/state"
	"sales-assistant-be/pkg/resilience"
)

const (
	BreakerRetrieval  = "retrieval"
	BreakerLLM        = "llm"
	BreakerPreprocess = "preprocess"
)

// PipelineBreakers are the registered breakers guarding each dependency call.
// Query rewriting has its own breaker: its failures are swallowed and must not
// trip or hold the trial slot of the generation breaker.
type PipelineBreakers struct {
	Retrieval  *resilience.CircuitBreaker
	LLM        *resilience.CircuitBreaker
	Preprocess *resilience.CircuitBreaker
}

func RegisterBreakers(registry *resilience.Registry, cfg config.BreakerConfig, sysLogger logger.ILogger) PipelineBreakers {
	onStateChange := func(name string, from, to resilience.State) {
		sysLogger.Warn("CircuitBreaker", "State changed", map[string]interface{}{
			"breaker": name,
			"from":    from,
			"to":      to,
		})
	}
	newBreaker := func(name string) *resilience.CircuitBreaker {
		return registry.Register(resilience.NewCircuitBreaker(name,
			resilience.WithFailureThreshold(cfg.FailureThreshold),
			resilience.WithResetTimeout(cfg.ResetTimeout),
			resilience.WithStateChangeHook(onStateChange),
		))
	}
	return PipelineBreakers{
		Retrieval:  newBreaker(BreakerRetrieval),
		LLM:        newBreaker(BreakerLLM),
		Preprocess: newBreaker(BreakerPreprocess),
	}
}

// ChatPipeline is everything NewChatPipeline needs from the outside world.
type ChatPipeline struct {
	LLM       llm.LLMProvider
	Retriever service.Retriever
	Sessions  *session.Manager
	LeadSink  lead.Sink
	Breakers  PipelineBreakers
	Ai        config.AIConfig
	Retrieval config.RetrievalConfig
}

func NewChatPipeline(p ChatPipeline, sysLogger logger.ILogger) service.IChatService {
	chooser := clarify.NewSeededChooser(uint64(time.Now().UnixNano()))

	return service.NewChatService(service.ChatComponents{
		Sessions:     p.Sessions,
		Preprocessor: query.NewPreprocessor(p.LLM, p.Breakers.Preprocess, p.Ai.PreprocessTimeout, sysLogger),
		Retriever:    p.Retriever,
		Ranker:       rerank.NewRanker(rerank.Config{TopK: p.Retrieval.RerankTopK}),
		Freshness:    freshness.NewChecker(freshness.WithMaxAge(p.Retrieval.FreshnessAge)),
		Generator: response.NewGenerator(p.LLM, p.Breakers.LLM, p.Ai.MaxHistoryTurns, sysLogger,
			llm.WithTemperature(p.Ai.GenerationTemperature)),
		Clarifier:    clarify.NewGenerator(chooser),
		StateManager: state.NewManager(sysLogger),
		Detector:     lead.NewDetector(),
		LeadSink:     p.LeadSink,
		Chooser:      chooser,
		MaxHistory:   p.Ai.MaxHistoryTurns,
	}, sysLogger)
}
