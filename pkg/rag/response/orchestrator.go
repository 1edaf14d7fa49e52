package response

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"legal-rag-be/internal/entity"
	"legal-rag-be/internal/pkg/logger"
	"legal-rag-be/pkg/events"
	"legal-rag-be/pkg/llm"
	"legal-rag-be/pkg/rag/prompt"
	"legal-rag-be/pkg/rag/session"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const logModule = "ORCHESTRATOR"

var tracer = otel.Tracer("legal-rag-be/pkg/rag/response")

// Retriever is the query side of the pipeline.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]entity.RetrievalResult, error)
}

type Config struct {
	TopK               int
	GroundingWindow    int
	MaxContextMessages int
	Temperature        float64
	MaxTokens          int
}

func DefaultConfig() Config {
	return Config{
		TopK:               5,
		GroundingWindow:    3,
		MaxContextMessages: 10,
		Temperature:        0.2,
		MaxTokens:          500,
	}
}

// Orchestrator answers one question per call: it retrieves, grounds a prompt
// in the best few chunks, asks the completion model and records the exchange.
type Orchestrator struct {
	retriever Retriever
	sessions  *session.Manager
	llm       llm.LLMProvider
	events    events.Publisher
	logger    logger.ILogger
	cfg       Config
}

func NewOrchestrator(
	retriever Retriever,
	sessions *session.Manager,
	llmProvider llm.LLMProvider,
	publisher events.Publisher,
	log logger.ILogger,
	cfg Config,
) *Orchestrator {
	defaults := DefaultConfig()
	if cfg.TopK <= 0 {
		cfg.TopK = defaults.TopK
	}
	if cfg.GroundingWindow <= 0 {
		cfg.GroundingWindow = defaults.GroundingWindow
	}
	if cfg.MaxContextMessages < 0 {
		cfg.MaxContextMessages = 0
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	return &Orchestrator{
		retriever: retriever,
		sessions:  sessions,
		llm:       llmProvider,
		events:    publisher,
		logger:    log,
		cfg:       cfg,
	}
}

// Answer resolves or creates the session, then runs one grounded exchange
// while holding the session's turn. A k of zero or less uses the configured
// top k. The assistant message is recorded only after a full completion; on
// any failure the session keeps just the user message. Failures in a session
// created by this call are returned as *entity.AnswerError carrying its id.
// With nothing retrieved the answer always opens with prompt.NoContextNotice.
func (o *Orchestrator) Answer(ctx context.Context, question, sessionID string, k int) (*entity.AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", entity.ErrInvalidArgument)
	}
	if k <= 0 {
		k = o.cfg.TopK
	}

	ctx, span := tracer.Start(ctx, "Orchestrator.Answer")
	defer span.End()

	implicit := sessionID == ""
	if implicit {
		sessionID = o.sessions.CreateSession(entity.ImplicitSessionTitle).Id
	}
	span.SetAttributes(attribute.String("rag.session_id", sessionID), attribute.Int("rag.k", k))

	failed := func(stage string, err error) error {
		err = o.fail(span, stage, err)
		if implicit {
			return &entity.AnswerError{SessionId: sessionID, Err: err}
		}
		return err
	}

	unlock, err := o.sessions.Lock(ctx, sessionID)
	if err != nil {
		return nil, failed("lock session", err)
	}
	defer unlock()

	history, err := o.sessions.GetContext(sessionID, o.cfg.MaxContextMessages)
	if err != nil {
		return nil, failed("load context", err)
	}
	if err := o.sessions.AppendUserMessage(sessionID, question); err != nil {
		return nil, failed("append question", err)
	}

	results, err := o.retriever.Retrieve(ctx, question, k)
	if err != nil {
		return nil, failed("retrieve", err)
	}

	grounding := results[:min(o.cfg.GroundingWindow, len(results))]
	sources := make([]entity.Source, len(grounding))
	for i, r := range grounding {
		sources[i] = entity.NewSource(i+1, r)
	}
	confidence := Confidence(sources)

	msgs := prompt.Conversation(history, prompt.NewGroundedBuilder(question, grounding).Build())
	answer, err := o.llm.Chat(ctx, msgs,
		llm.WithTemperature(o.cfg.Temperature),
		llm.WithMaxTokens(o.cfg.MaxTokens),
	)
	if ctxErr := ctx.Err(); ctxErr != nil {
		// A cancelled caller gets the context error even when the provider
		// reported it as a transport failure.
		err = ctxErr
	} else if err != nil && !errors.Is(err, entity.ErrCompletionService) && !errors.Is(err, entity.ErrCompletionRejected) {
		err = fmt.Errorf("%w: %w", entity.ErrCompletionRejected, err)
	}
	if err != nil {
		return nil, failed("completion", err)
	}
	if len(results) == 0 {
		answer = withNoContextNotice(answer)
	}

	if err := o.sessions.AppendAssistantMessage(sessionID, answer, sources); err != nil {
		return nil, failed("append answer", err)
	}

	span.SetAttributes(attribute.Int("rag.sources", len(sources)), attribute.Float64("rag.confidence", confidence))
	o.logger.Info(logModule, "Answer generated", map[string]interface{}{
		"session_id": sessionID,
		"retrieved":  len(results),
		"sources":    len(sources),
		"confidence": confidence,
	})
	o.publish(ctx, sessionID, sources, confidence)

	return &entity.AnswerResult{
		SessionId:  sessionID,
		Question:   question,
		Answer:     answer,
		Sources:    sources,
		Confidence: confidence,
	}, nil
}

func withNoContextNotice(answer string) string {
	answer = strings.TrimSpace(answer)
	switch {
	case strings.Contains(answer, prompt.NoContextNotice):
		return answer
	case answer == "":
		return prompt.NoContextNotice
	}
	return prompt.NoContextNotice + "\n\n" + answer
}

// Confidence is the mean relevance of the grounding sources rounded to two
// decimals, or 0 when there are none.
func Confidence(sources []entity.Source) float64 {
	if len(sources) == 0 {
		return 0
	}
	var sum float64
	for _, s := range sources {
		sum += s.RelevanceScore
	}
	return math.Round(sum/float64(len(sources))*100) / 100
}

func (o *Orchestrator) publish(ctx context.Context, sessionID string, sources []entity.Source, confidence float64) {
	locations := make([]string, len(sources))
	for i, s := range sources {
		locations[i] = s.Location
	}
	if err := o.events.Publish(ctx, events.AnswerGenerated(sessionID, locations, confidence)); err != nil {
		o.logger.Warn(logModule, "Failed to publish answer event", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
}

func (o *Orchestrator) fail(span trace.Span, stage string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, stage)
	o.logger.Error(logModule, "Answer failed", map[string]interface{}{
		"stage": stage,
		"error": err.Error(),
	})
	return err
}
