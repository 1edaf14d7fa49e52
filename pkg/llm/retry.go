package llm

import (
	"context"
	"time"

	"legal-rag-be/internal/entity"

	"github.com/cenkalti/backoff/v5"
)

type retryingProvider struct {
	next            LLMProvider
	maxAttempts     uint
	initialInterval time.Duration
}

// WithRetry wraps next with a bounded exponential backoff. Only transient
// failures are retried; maxAttempts includes the first call.
func WithRetry(next LLMProvider, maxAttempts uint, initialInterval time.Duration) LLMProvider {
	if maxAttempts == 0 {
		maxAttempts = 1
	}
	if initialInterval <= 0 {
		initialInterval = 500 * time.Millisecond
	}
	return &retryingProvider{next: next, maxAttempts: maxAttempts, initialInterval: initialInterval}
}

func (p *retryingProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	return p.do(ctx, func() (string, error) {
		return p.next.Chat(ctx, history, options...)
	})
}

func (p *retryingProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return p.do(ctx, func() (string, error) {
		return p.next.Generate(ctx, prompt, options...)
	})
}

func (p *retryingProvider) do(ctx context.Context, call func() (string, error)) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.initialInterval

	return backoff.Retry(ctx, func() (string, error) {
		out, err := call()
		if err != nil && !entity.IsRetryable(err) {
			return "", backoff.Permanent(err)
		}
		return out, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(p.maxAttempts))
}
