package service

import (
	"context"

	"legal-rag-be/internal/dto"
	"legal-rag-be/internal/entity"
	"legal-rag-be/internal/pkg/logger"
	"legal-rag-be/pkg/events"
	"legal-rag-be/pkg/rag/prompt"
	"legal-rag-be/pkg/rag/response"
	"legal-rag-be/pkg/rag/session"
)

// IChatbotService defines the chatbot service interface
type IChatbotService interface {
	Ask(ctx context.Context, request *dto.AskRequest) (*dto.AskResponse, error)
	CreateSession(ctx context.Context, request *dto.CreateSessionRequest) (*dto.SessionSummaryResponse, error)
	ListSessions(ctx context.Context) ([]*dto.SessionSummaryResponse, error)
	GetSession(ctx context.Context, sessionId string) (*dto.SessionDetailResponse, error)
	GetSessionSummary(ctx context.Context, sessionId string) (*dto.SessionSummaryResponse, error)
	ExportSession(ctx context.Context, sessionId string) ([]byte, error)
	ExportQAPairs(ctx context.Context, sessionId string) ([]entity.QAPair, error)
	DeleteSession(ctx context.Context, sessionId string) error
}

type chatbotService struct {
	orchestrator *response.Orchestrator
	sessions     *session.Manager
	publisher    events.Publisher
	logger       logger.ILogger
}

func NewChatbotService(
	orchestrator *response.Orchestrator,
	sessions *session.Manager,
	publisher events.Publisher,
	log logger.ILogger,
) IChatbotService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &chatbotService{
		orchestrator: orchestrator,
		sessions:     sessions,
		publisher:    publisher,
		logger:       log,
	}
}

func (c *chatbotService) Ask(ctx context.Context, request *dto.AskRequest) (*dto.AskResponse, error) {
	res, err := c.orchestrator.Answer(ctx, request.Question, request.SessionId, request.TopK)
	if err != nil {
		return nil, err
	}

	return &dto.AskResponse{
		SessionId:  res.SessionId,
		Question:   res.Question,
		Answer:     res.Answer,
		Formatted:  prompt.FormatResponseWithSources(res.Answer, res.Sources),
		Sources:    res.Sources,
		Confidence: res.Confidence,
	}, nil
}

func (c *chatbotService) CreateSession(ctx context.Context, request *dto.CreateSessionRequest) (*dto.SessionSummaryResponse, error) {
	s := c.sessions.CreateSession(request.Title)
	summary, err := c.sessions.Summary(s.Id)
	if err != nil {
		return nil, err
	}
	return dto.ToSessionSummaryResponse(summary), nil
}

func (c *chatbotService) ListSessions(ctx context.Context) ([]*dto.SessionSummaryResponse, error) {
	summaries := c.sessions.ListSessions()
	res := make([]*dto.SessionSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		res = append(res, dto.ToSessionSummaryResponse(s))
	}
	return res, nil
}

func (c *chatbotService) GetSession(ctx context.Context, sessionId string) (*dto.SessionDetailResponse, error) {
	s, err := c.sessions.GetSession(sessionId)
	if err != nil {
		return nil, err
	}
	return dto.ToSessionDetailResponse(s), nil
}

func (c *chatbotService) GetSessionSummary(ctx context.Context, sessionId string) (*dto.SessionSummaryResponse, error) {
	s, err := c.sessions.Summary(sessionId)
	if err != nil {
		return nil, err
	}
	return dto.ToSessionSummaryResponse(s), nil
}

func (c *chatbotService) ExportSession(ctx context.Context, sessionId string) ([]byte, error) {
	return c.sessions.ExportJSON(sessionId)
}

func (c *chatbotService) ExportQAPairs(ctx context.Context, sessionId string) ([]entity.QAPair, error) {
	return c.sessions.ExportQAPairs(sessionId)
}

func (c *chatbotService) DeleteSession(ctx context.Context, sessionId string) error {
	if err := c.sessions.DeleteSession(sessionId); err != nil {
		return err
	}
	if err := c.publisher.Publish(ctx, events.SessionDeleted(sessionId)); err != nil {
		c.logger.Warn("CHATBOT", "Failed to publish session event", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
	}
	return nil
}
