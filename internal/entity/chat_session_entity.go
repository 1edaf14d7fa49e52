package entity

import "time"

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

const (
	DefaultSessionTitle  = "New Chat"
	ImplicitSessionTitle = "Legal Q&A"
)

type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Sources   []Source    `json:"sources,omitempty"`
}

type SessionMetadata struct {
	Topic         string `json:"topic,omitempty"`
	QuestionCount int    `json:"question_count"`
	DocumentCount int    `json:"document_count"`
}

type Session struct {
	Id        string          `json:"session_id"`
	Title     string          `json:"title"`
	Messages  []Message       `json:"messages"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Metadata  SessionMetadata `json:"metadata"`
}

type SessionSummary struct {
	Id            string
	Title         string
	MessageCount  int
	QuestionCount int
	DocumentCount int
	LastMessage   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type QAPair struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Sources  []Source `json:"sources"`
}
