package search

import (
	"context"
	"errors"
	"testing"

	"legal-rag-be/internal/entity"
	"legal-rag-be/internal/pkg/logger"
	"legal-rag-be/internal/repository/memory"
	"legal-rag-be/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingEmbedder struct{ err error }

func (f failingEmbedder) ModelName() string { return "failing" }

func (f failingEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	return nil, f.err
}

func seedIndex(t *testing.T, embedder embedding.EmbeddingProvider, texts map[string]string) *memory.VectorIndex {
	t.Helper()
	idx := memory.NewVectorIndex(0)
	for filename, text := range texts {
		res, err := embedder.Generate(context.Background(), text, embedding.TaskRetrievalDocument)
		require.NoError(t, err)
		require.NoError(t, idx.Replace(context.Background(), filename, []entity.IndexedVector{{
			Vector: res.Vector(),
			Chunk:  entity.Chunk{Text: text, Filename: filename},
		}}))
	}
	return idx
}

func TestRetriever_RanksClosestChunkFirst(t *testing.T) {
	embedder := embedding.NewHashingProvider(256)
	idx := seedIndex(t, embedder, map[string]string{
		"contract.txt": "breach of contract damages and specific performance",
		"criminal.txt": "murder trial sentence of imprisonment under the penal code",
		"land.txt":     "land survey record of rights and khas land",
	})
	r := NewRetriever(embedder, idx, logger.NewNopLogger())

	results, err := r.Retrieve(context.Background(), "damages for breach of contract", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "contract.txt", results[0].Chunk.Filename)
	assert.LessOrEqual(t, results[0].Distance, results[1].Distance)

	again, err := r.Retrieve(context.Background(), "damages for breach of contract", 2)
	require.NoError(t, err)
	assert.Equal(t, results, again)
}

func TestRetriever_EmptyIndexIsNotAnError(t *testing.T) {
	r := NewRetriever(embedding.NewHashingProvider(64), memory.NewVectorIndex(0), logger.NewNopLogger())

	results, err := r.Retrieve(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetriever_Failures(t *testing.T) {
	embedderDown := errors.Join(entity.ErrEmbeddingService, errors.New("dial tcp: refused"))

	tests := []struct {
		name      string
		embedder  embedding.EmbeddingProvider
		query     string
		k         int
		wantErr   error
		retrieval bool
	}{
		{"embedding provider down", failingEmbedder{err: embedderDown}, "contract", 3, entity.ErrEmbeddingService, true},
		{"index dimension mismatch", embedding.NewHashingProvider(16), "contract", 3, entity.ErrDimensionMismatch, true},
		{"blank query", embedding.NewHashingProvider(8), "   ", 3, entity.ErrInvalidArgument, false},
		{"zero k", embedding.NewHashingProvider(8), "contract", 0, entity.ErrInvalidArgument, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := seedIndex(t, embedding.NewHashingProvider(8), map[string]string{"a.txt": "contract"})
			r := NewRetriever(tt.embedder, idx, logger.NewNopLogger())

			_, err := r.Retrieve(context.Background(), tt.query, tt.k)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var retrievalErr *entity.RetrievalError
			assert.Equal(t, tt.retrieval, errors.As(err, &retrievalErr))
		})
	}
}
