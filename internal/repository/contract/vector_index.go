package contract

import (
	"context"

	"legal-rag-be/internal/entity"
)

// DefaultBatchSize is the number of vectors written per insert batch.
const DefaultBatchSize = 100

// VectorIndex stores embedded chunks and answers nearest neighbour queries by
// cosine distance in [0,2], lower meaning closer.
type VectorIndex interface {
	// Upsert inserts vectors, replacing any entry with the same filename and
	// chunk index.
	Upsert(ctx context.Context, vectors []entity.IndexedVector) error

	// Replace removes every vector of filename and inserts vectors in its
	// place. Either all of it becomes visible or, on error, none of it does.
	Replace(ctx context.Context, filename string, vectors []entity.IndexedVector) error

	// Query returns at most k results ordered by ascending distance.
	Query(ctx context.Context, vector []float32, k int) ([]entity.RetrievalResult, error)

	DeleteByFilename(ctx context.Context, filename string) (int, error)
	CountByFilename(ctx context.Context, filename string) (int, error)
	ListDocuments(ctx context.Context) ([]entity.DocumentSummary, error)
	Stats(ctx context.Context) (entity.IndexStats, error)
}
