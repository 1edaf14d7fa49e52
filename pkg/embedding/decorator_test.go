package embedding

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"legal-rag-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type scriptedProvider struct {
	calls  atomic.Int32
	errors []error
}

func (p *scriptedProvider) ModelName() string { return "scripted" }

func (p *scriptedProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	n := int(p.calls.Add(1)) - 1
	if n < len(p.errors) && p.errors[n] != nil {
		return nil, p.errors[n]
	}
	return newResponse([]float32{float32(len(text)), 1}), nil
}

var fastRetry = RetryConfig{MaxAttempts: 2, InitialInterval: time.Millisecond}

func TestWithRetry(t *testing.T) {
	transient := errors.Join(entity.ErrEmbeddingService, errors.New("connection reset"))
	permanent := errors.New("invalid api key")

	tests := []struct {
		name      string
		script    []error
		wantErr   error
		wantCalls int32
	}{
		{"success first try", nil, nil, 1},
		{"transient then success", []error{transient}, nil, 2},
		{"transient twice gives up", []error{transient, transient, transient}, entity.ErrEmbeddingService, 2},
		{"permanent is not retried", []error{permanent}, permanent, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &scriptedProvider{errors: tt.script}

			res, err := WithRetry(fake, fastRetry).Generate(context.Background(), "abc", TaskRetrievalQuery)

			assert.Equal(t, tt.wantCalls, fake.calls.Load())
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []float32{3, 1}, res.Vector())
		})
	}
}

func TestWithCache(t *testing.T) {
	fake := &scriptedProvider{}
	p := WithCache(fake, NewMemoryVectorCache(0))
	ctx := context.Background()

	first, err := p.Generate(ctx, "what is a writ", TaskRetrievalQuery)
	require.NoError(t, err)
	second, err := p.Generate(ctx, "what is a writ", TaskRetrievalQuery)
	require.NoError(t, err)

	assert.Equal(t, first.Vector(), second.Vector())
	assert.Equal(t, int32(1), fake.calls.Load())

	_, err = p.Generate(ctx, "what is a writ", TaskRetrievalDocument)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fake.calls.Load(), "task type is part of the key")
}

func TestWithCache_DoesNotStoreFailures(t *testing.T) {
	fake := &scriptedProvider{errors: []error{entity.ErrEmbeddingService}}
	p := WithCache(fake, NewMemoryVectorCache(time.Minute))

	_, err := p.Generate(context.Background(), "q", TaskRetrievalQuery)
	require.Error(t, err)

	_, err = p.Generate(context.Background(), "q", TaskRetrievalQuery)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fake.calls.Load())
}

func TestWithRateLimit_RespectsContext(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	fake := &scriptedProvider{}
	p := WithRateLimit(fake, limiter)

	_, err := p.Generate(context.Background(), "a", TaskRetrievalDocument)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = p.Generate(ctx, "b", TaskRetrievalDocument)

	require.Error(t, err)
	assert.Equal(t, int32(1), fake.calls.Load())
}
