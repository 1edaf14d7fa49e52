package dto

import (
	"time"

	"legal-rag-be/internal/entity"
)

type AskRequest struct {
	Question  string `json:"question" validate:"required,max=4000"`
	SessionId string `json:"session_id,omitempty" validate:"omitempty,uuid"`
	TopK      int    `json:"top_k,omitempty" validate:"omitempty,min=1,max=20"`
}

type AskResponse struct {
	SessionId  string          `json:"session_id"`
	Question   string          `json:"question"`
	Answer     string          `json:"answer"`
	Formatted  string          `json:"formatted_answer"`
	Sources    []entity.Source `json:"sources"`
	Confidence float64         `json:"confidence"`
}

type CreateSessionRequest struct {
	Title string `json:"title,omitempty" validate:"max=200"`
}

type SessionSummaryResponse struct {
	SessionId     string    `json:"session_id"`
	Title         string    `json:"title"`
	MessageCount  int       `json:"message_count"`
	QuestionCount int       `json:"question_count"`
	DocumentCount int       `json:"document_count"`
	LastMessage   string    `json:"last_message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type SessionDetailResponse struct {
	SessionId string                 `json:"session_id"`
	Title     string                 `json:"title"`
	Messages  []entity.Message       `json:"messages"`
	Metadata  entity.SessionMetadata `json:"metadata"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

func ToSessionSummaryResponse(s entity.SessionSummary) *SessionSummaryResponse {
	return &SessionSummaryResponse{
		SessionId:     s.Id,
		Title:         s.Title,
		MessageCount:  s.MessageCount,
		QuestionCount: s.QuestionCount,
		DocumentCount: s.DocumentCount,
		LastMessage:   s.LastMessage,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func ToSessionDetailResponse(s entity.Session) *SessionDetailResponse {
	return &SessionDetailResponse{
		SessionId: s.Id,
		Title:     s.Title,
		Messages:  s.Messages,
		Metadata:  s.Metadata,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
