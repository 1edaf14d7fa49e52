package embedding

import (
	"context"

	"golang.org/x/time/rate"
)

type rateLimitedProvider struct {
	next    EmbeddingProvider
	limiter *rate.Limiter
}

// WithRateLimit blocks each call until limiter admits it or ctx is done.
func WithRateLimit(next EmbeddingProvider, limiter *rate.Limiter) EmbeddingProvider {
	if limiter == nil {
		return next
	}
	return &rateLimitedProvider{next: next, limiter: limiter}
}

func (p *rateLimitedProvider) ModelName() string {
	return p.next.ModelName()
}

func (p *rateLimitedProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return p.next.Generate(ctx, text, taskType)
}
