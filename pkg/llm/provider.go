package llm

import (
	"context"
	"fmt"
	"net/http"

	"legal-rag-be/internal/entity"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// ApplyOptions folds opts over defaults.
func ApplyOptions(defaults Options, opts ...Option) Options {
	for _, opt := range opts {
		opt(&defaults)
	}
	return defaults
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}

// UpstreamError classifies a non-200 completion response. Throttling and
// server side failures wrap entity.ErrCompletionService; other statuses wrap
// entity.ErrCompletionRejected.
func UpstreamError(provider string, status int, body []byte) error {
	if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %s status %d: %s", entity.ErrCompletionService, provider, status, string(body))
	}
	return fmt.Errorf("%w: %s status %d: %s", entity.ErrCompletionRejected, provider, status, string(body))
}

func TransportError(provider string, err error) error {
	return fmt.Errorf("%w: %s request failed: %v", entity.ErrCompletionService, provider, err)
}
