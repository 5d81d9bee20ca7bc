package service

import (
	"context"
	"strings"
	"time"

	"sales-assistant-be/internal/dto"
	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/pkg/apperror"
	"sales-assistant-be/pkg/lead"
	"sales-assistant-be/pkg/rag/clarify"
	"sales-assistant-be/pkg/rag/freshness"
	"sales-assistant-be/pkg/rag/metadata"
	"sales-assistant-be/pkg/rag/query"
	"sales-assistant-be/pkg/rag/rerank"
	"sales-assistant-be/pkg/rag/response"
	"sales-assistant-be/pkg/rag/session"
	"sales-assistant-be/pkg/rag/state"
	"sales-assistant-be/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var chatTracer = otel.Tracer("sales-assistant/chat")

const queryExcerptLength = 120

type IChatService interface {
	Chat(ctx context.Context, sessionId string, req *dto.ChatRequest) (*dto.ChatTurnResponse, error)
}

// Retriever returns the merged, unscored candidate documents for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]store.Document, error)
}

// ChatComponents are the pipeline stages, in the order they run.
type ChatComponents struct {
	Sessions     *session.Manager
	Preprocessor *query.Preprocessor
	Retriever    Retriever
	Ranker       *rerank.Ranker
	Freshness    *freshness.Checker
	Generator    *response.Generator
	Clarifier    *clarify.Generator
	StateManager *state.Manager
	Detector     *lead.Detector
	LeadSink     lead.Sink
	Chooser      lead.Chooser
	MaxHistory   int
}

type chatService struct {
	ChatComponents
	logger logger.ILogger
	now    func() time.Time
}

func NewChatService(c ChatComponents, log logger.ILogger) IChatService {
	if c.MaxHistory <= 0 {
		c.MaxHistory = response.DefaultMaxHistory
	}
	return &chatService{
		ChatComponents: c,
		logger:         log,
		now:            time.Now,
	}
}

// Chat runs one conversational turn. The answer is complete when returned; any
// retrieval or generation failure ends the turn with an AppError and no answer.
func (cs *chatService) Chat(ctx context.Context, sessionId string, req *dto.ChatRequest) (*dto.ChatTurnResponse, error) {
	start := cs.now()
	ctx, span := chatTracer.Start(ctx, "ChatService.Chat", trace.WithAttributes(attribute.String("session.id", sessionId)))
	defer span.End()

	input, ok := req.Input()
	if !ok {
		return nil, apperror.New(apperror.CodeInvalidInput, "last message must be a non-empty user message").
			WithUserMessage("The last message must be a non-empty user message.")
	}

	sess, _, err := cs.Sessions.LoadOrCreate(ctx, sessionId, seedTurns(req.Earlier()))
	if err != nil {
		return nil, cs.fail(span, sessionId, input, apperror.Wrap(apperror.CodeGeneric, "session load failed", err))
	}

	// Preprocess
	improved := cs.preprocess(ctx, input, sess.TopicsDiscussed)

	// Retrieve
	docs, err := cs.retrieve(ctx, improved)
	if err != nil {
		return nil, cs.fail(span, sessionId, input, apperror.FromDependency(apperror.CodeRetrievalFailed, err))
	}
	ranked := cs.Ranker.Rank(improved, docs)
	checked := cs.Freshness.Check(input, ranked)

	// Generate
	mode := response.SelectMode(input, sess)
	raw, err := cs.generate(ctx, response.Request{
		Input:   input,
		Docs:    checked,
		History: sess.RecentHistory(cs.MaxHistory),
		Session: sess,
	})
	if err != nil {
		return nil, cs.fail(span, sessionId, input, apperror.FromDependency(apperror.CodeModelTimeout, err))
	}

	answer, meta := metadata.Parse(raw)
	answer, meta, clarified := cs.Clarifier.Apply(answer, meta)

	// Lead detection looks at history before this turn is appended.
	signal := cs.detectLead(ctx, input, meta, sess.ChatHistory)

	apply := func(s *store.Session) error {
		if len(s.ChatHistory) == 0 && len(sess.ChatHistory) > 0 {
			s.ChatHistory = append(s.ChatHistory, sess.ChatHistory...)
		}
		s.AppendTurn(store.RoleUser, input)
		s.AppendTurn(store.RoleAssistant, answer)
		s.AddTopics(meta.Topics...)
		cs.StateManager.Advance(s, meta)
		if signal.Complete() {
			cs.StateManager.MarkLeadCaptured(s)
		}
		confidence := meta.Confidence
		s.LastConfidence = &confidence
		s.LastIntent = meta.Intent
		return nil
	}

	saved, err := cs.Sessions.Update(ctx, sessionId, apply)
	if err != nil {
		// The answer is still delivered; the turn just isn't remembered.
		appErr := apperror.Wrap(apperror.CodeGeneric, "session save failed", err)
		cs.logger.Error("ChatService", "Failed to save session", map[string]interface{}{
			"session_id": sessionId,
			"error":      err,
			"error_id":   appErr.ErrorID,
		})
		_ = apply(sess)
		saved = sess
	}

	result := &dto.ChatTurnResponse{
		Content: answer,
		Metadata: dto.ChatMetadata{
			Confidence:        meta.Confidence,
			Intent:            string(meta.Intent),
			Topics:            meta.Topics,
			ConversationStage: string(saved.Stage),
			SessionId:         sessionId,
			ResponseMode:      string(mode),
			Clarification:     clarified,
			FreshnessWarning:  freshness.AnyWarning(checked),
			Sources:           summarize(checked),
		},
	}
	if result.Metadata.FreshnessWarning {
		result.Metadata.SuggestedAction = checked[0].SuggestedAction()
	}

	if signal != nil {
		lm := &dto.LeadMetadata{ShouldAsk: signal.ShouldAsk}
		if signal.Complete() {
			lm.Captured = true
			cs.submitLead(ctx, sessionId, input, meta, signal)
		} else {
			lm.Prompt = lead.CapturePrompt(cs.Chooser, meta.Intent)
		}
		result.Metadata.Lead = lm
	}

	result.Metadata.ProcessingTimeMs = cs.now().Sub(start).Milliseconds()
	span.SetAttributes(
		attribute.String("chat.intent", string(meta.Intent)),
		attribute.Float64("chat.confidence", meta.Confidence),
		attribute.String("chat.stage", string(saved.Stage)),
		attribute.Int("chat.documents", len(checked)),
		attribute.Bool("chat.clarification", clarified),
	)
	cs.logger.Info("ChatService", "Turn completed", map[string]interface{}{
		"session_id":    sessionId,
		"intent":        meta.Intent,
		"confidence":    meta.Confidence,
		"stage":         saved.Stage,
		"mode":          mode,
		"documents":     len(checked),
		"clarification": clarified,
		"duration_ms":   result.Metadata.ProcessingTimeMs,
	})
	return result, nil
}

func (cs *chatService) preprocess(ctx context.Context, input string, topics []string) string {
	ctx, span := chatTracer.Start(ctx, "chat.preprocess")
	defer span.End()
	return cs.Preprocessor.Preprocess(ctx, input, topics)
}

func (cs *chatService) retrieve(ctx context.Context, q string) ([]store.Document, error) {
	ctx, span := chatTracer.Start(ctx, "chat.retrieve")
	defer span.End()
	docs, err := cs.Retriever.Retrieve(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "retrieval failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("retrieval.documents", len(docs)))
	return docs, nil
}

func (cs *chatService) generate(ctx context.Context, req response.Request) (string, error) {
	ctx, span := chatTracer.Start(ctx, "chat.generate")
	defer span.End()
	raw, err := cs.Generator.Generate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return "", err
	}
	span.SetAttributes(attribute.Int("generation.length", len(raw)))
	return raw, nil
}

func (cs *chatService) detectLead(ctx context.Context, input string, meta store.ResponseMetadata, history []store.Turn) *lead.Signal {
	_, span := chatTracer.Start(ctx, "chat.lead_detect")
	defer span.End()
	signal := cs.Detector.Detect(input, meta, history)
	span.SetAttributes(
		attribute.Bool("lead.complete", signal.Complete()),
		attribute.Bool("lead.should_ask", signal != nil && signal.ShouldAsk),
	)
	return signal
}

// submitLead hands a resolved lead to the sink. Failures are logged only.
func (cs *chatService) submitLead(ctx context.Context, sessionId, input string, meta store.ResponseMetadata, signal *lead.Signal) {
	if cs.LeadSink == nil {
		return
	}
	capture := lead.Capture{
		SessionID:  sessionId,
		Signal:     *signal,
		Intent:     meta.Intent,
		Confidence: meta.Confidence,
		Topics:     meta.Topics,
		Message:    input,
		CapturedAt: cs.now(),
	}
	if err := cs.LeadSink.Submit(context.WithoutCancel(ctx), capture); err != nil {
		appErr := apperror.Wrap(apperror.CodeLeadCaptureFailed, "lead submit failed", err)
		cs.logger.Error("ChatService", "Lead capture failed", map[string]interface{}{
			"session_id": sessionId,
			"error":      err,
			"error_id":   appErr.ErrorID,
			"code":       appErr.Code,
		})
	}
}

func (cs *chatService) fail(span trace.Span, sessionId, input string, appErr *apperror.AppError) *apperror.AppError {
	span.RecordError(appErr)
	span.SetStatus(codes.Error, string(appErr.Code))
	cs.logger.Error("ChatService", "Turn failed", map[string]interface{}{
		"session_id": sessionId,
		"query":      excerpt(input),
		"code":       appErr.Code,
		"error":      appErr,
		"error_id":   appErr.ErrorID,
	})
	return appErr
}

// seedTurns converts earlier request messages into session turns. System messages
// are not part of the conversation history.
func seedTurns(msgs []dto.ChatMessage) []store.Turn {
	var turns []store.Turn
	for _, m := range msgs {
		switch store.Role(m.Role) {
		case store.RoleUser, store.RoleAssistant:
			turns = append(turns, store.Turn{Role: store.Role(m.Role), Content: m.Content})
		}
	}
	return turns
}

func summarize(docs []store.ScoredDocument) []dto.SourceSummary {
	out := make([]dto.SourceSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, dto.SourceSummary{
			Title:      d.Title,
			Source:     d.Source(),
			SourceType: d.SourceType(),
			Score:      d.FinalScore,
		})
	}
	return out
}

func excerpt(s string) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= queryExcerptLength {
		return string(r)
	}
	return string(r[:queryExcerptLength]) + "..."
}
