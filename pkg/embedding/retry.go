package embedding

import (
	"context"
	"time"

	"legal-rag-be/internal/entity"

	"github.com/cenkalti/backoff/v5"
)

// RetryConfig bounds adapter level retries. MaxAttempts counts the first try.
type RetryConfig struct {
	MaxAttempts     uint
	InitialInterval time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     2,
		InitialInterval: 500 * time.Millisecond,
	}
}

type retryingProvider struct {
	next EmbeddingProvider
	cfg  RetryConfig
}

// WithRetry retries transient failures (entity.IsRetryable) with exponential
// backoff. Other errors are returned on the first attempt.
func WithRetry(next EmbeddingProvider, cfg RetryConfig) EmbeddingProvider {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = DefaultRetryConfig().InitialInterval
	}
	return &retryingProvider{next: next, cfg: cfg}
}

func (p *retryingProvider) ModelName() string {
	return p.next.ModelName()
}

func (p *retryingProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.InitialInterval

	return backoff.Retry(ctx, func() (*EmbeddingResponse, error) {
		res, err := p.next.Generate(ctx, text, taskType)
		if err != nil && !entity.IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		return res, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(p.cfg.MaxAttempts))
}
