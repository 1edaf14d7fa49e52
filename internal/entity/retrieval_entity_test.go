package entity

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelevanceFromDistance(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		want     float64
	}{
		{"negative distance clamps to 1", -0.5, 1},
		{"identical", 0, 1},
		{"close", 0.3, 0.7},
		{"orthogonal", 1, 0},
		{"opposed clamps to 0", 1.7, 0},
		{"maximum", 2, 0},
		{"nan", math.NaN(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RelevanceFromDistance(tt.distance), 1e-9)
		})
	}
}

func TestRelevanceFromDistance_NonIncreasing(t *testing.T) {
	prev := RelevanceFromDistance(-1)
	for d := -1.0; d <= 2.0; d += 0.05 {
		got := RelevanceFromDistance(d)
		assert.LessOrEqual(t, got, prev, "distance %.2f", d)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
		prev = got
	}
}

func TestAnswerErrorUnwraps(t *testing.T) {
	err := &AnswerError{SessionId: "s1", Err: fmt.Errorf("%w: timeout", ErrCompletionService)}

	assert.ErrorIs(t, err, ErrCompletionService)
	assert.True(t, IsRetryable(err))
	assert.Contains(t, err.Error(), "s1")

	rejected := &AnswerError{SessionId: "s1", Err: ErrCompletionRejected}
	assert.False(t, IsRetryable(rejected))

	var target *AnswerError
	assert.True(t, errors.As(fmt.Errorf("ask: %w", err), &target))
	assert.Equal(t, "s1", target.SessionId)
}
