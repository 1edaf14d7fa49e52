package embedding

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"legal-rag-be/internal/entity"
)

// Task types understood by providers that embed queries and documents
// differently. Providers without the distinction ignore them.
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// EmbeddingProvider defines the interface for generating text embeddings.
// Vectors returned by one provider have a fixed length for its lifetime.
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
	ModelName() string
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}

// upstreamError classifies a failed HTTP exchange. Throttling and server side
// failures are reported as ErrEmbeddingService so callers may retry.
func upstreamError(provider string, status int, body []byte) error {
	if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %s status %d: %s", entity.ErrEmbeddingService, provider, status, string(body))
	}
	return fmt.Errorf("%s embedding error: status %d, body: %s", provider, status, string(body))
}

func transportError(provider string, err error) error {
	return fmt.Errorf("%w: %s request failed: %v", entity.ErrEmbeddingService, provider, err)
}

// normalizeVector scales vec to unit length so cosine distance is well defined
// in every index implementation.
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}

func newResponse(values []float32) *EmbeddingResponse {
	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{Values: values},
	}
}
