package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"legal-rag-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyProvider struct {
	failures int
	err      error
	calls    int
	lastOpts Options
}

func (f *flakyProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	f.calls++
	f.lastOpts = ApplyOptions(Options{}, options...)
	if f.calls <= f.failures {
		return "", f.err
	}
	return "ok", nil
}

func (f *flakyProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return f.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, options...)
}

func TestWithRetry(t *testing.T) {
	transient := errors.Join(entity.ErrCompletionService, errors.New("503"))

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   bool
	}{
		{"recovers after one transient failure", 1, transient, 2, false},
		{"gives up after the bounded retry", 5, transient, 2, true},
		{"does not retry permanent failures", 5, errors.New("bad request"), 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &flakyProvider{failures: tt.failures, err: tt.err}

			out, err := WithRetry(fake, 2, time.Millisecond).Chat(context.Background(), nil, WithMaxTokens(500))

			assert.Equal(t, tt.wantCalls, fake.calls)
			assert.Equal(t, 500, fake.lastOpts.MaxTokens)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ok", out)
		})
	}
}
