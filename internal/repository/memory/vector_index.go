package memory

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"legal-rag-be/internal/entity"
	"legal-rag-be/internal/repository/contract"
)

type indexSnapshot struct {
	entries []entity.IndexedVector
	dims    int
}

// VectorIndex is an in-process, brute force cosine index. Readers load an
// immutable snapshot without locking; writers build a new snapshot and
// publish it with a single pointer swap, so a query sees either the whole
// previous state or the whole new one.
type VectorIndex struct {
	writeMu   sync.Mutex
	current   atomic.Pointer[indexSnapshot]
	batchSize int
}

var _ contract.VectorIndex = (*VectorIndex)(nil)

func NewVectorIndex(batchSize int) *VectorIndex {
	if batchSize <= 0 {
		batchSize = contract.DefaultBatchSize
	}
	idx := &VectorIndex{batchSize: batchSize}
	idx.current.Store(&indexSnapshot{})
	return idx
}

func (idx *VectorIndex) Upsert(ctx context.Context, vectors []entity.IndexedVector) error {
	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	snap := idx.current.Load()
	replaced := make(map[string]struct{}, len(vectors))
	for _, v := range vectors {
		replaced[v.Chunk.Location()] = struct{}{}
	}

	kept := make([]entity.IndexedVector, 0, len(snap.entries)+len(vectors))
	for _, e := range snap.entries {
		if _, ok := replaced[e.Chunk.Location()]; !ok {
			kept = append(kept, e)
		}
	}

	return idx.publish(ctx, snap, kept, vectors)
}

func (idx *VectorIndex) Replace(ctx context.Context, filename string, vectors []entity.IndexedVector) error {
	for _, v := range vectors {
		if v.Chunk.Filename != filename {
			return fmt.Errorf("%w: vector for %q in replace of %q", entity.ErrInvalidArgument, v.Chunk.Filename, filename)
		}
	}

	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	snap := idx.current.Load()
	kept := make([]entity.IndexedVector, 0, len(snap.entries)+len(vectors))
	for _, e := range snap.entries {
		if e.Chunk.Filename != filename {
			kept = append(kept, e)
		}
	}

	return idx.publish(ctx, snap, kept, vectors)
}

// publish appends vectors to kept batch by batch and swaps the result in.
// Nothing is published if any batch fails. Callers hold writeMu.
func (idx *VectorIndex) publish(ctx context.Context, prev *indexSnapshot, kept, vectors []entity.IndexedVector) error {
	dims := prev.dims
	if len(kept) == 0 {
		dims = 0
	}

	for start := 0; start < len(vectors); start += idx.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+idx.batchSize, len(vectors))
		for _, v := range vectors[start:end] {
			if len(v.Vector) == 0 {
				return fmt.Errorf("%w: empty vector for %s", entity.ErrDimensionMismatch, v.Chunk.Location())
			}
			if dims == 0 {
				dims = len(v.Vector)
			}
			if len(v.Vector) != dims {
				return fmt.Errorf("%w: %s has %d dimensions, index has %d",
					entity.ErrDimensionMismatch, v.Chunk.Location(), len(v.Vector), dims)
			}
			kept = append(kept, entity.IndexedVector{
				Vector: append([]float32(nil), v.Vector...),
				Chunk:  cloneChunk(v.Chunk),
			})
		}
	}

	idx.current.Store(&indexSnapshot{entries: kept, dims: dims})
	return nil
}

func (idx *VectorIndex) Query(ctx context.Context, vector []float32, k int) ([]entity.RetrievalResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", entity.ErrInvalidArgument, k)
	}

	snap := idx.current.Load()
	if len(snap.entries) == 0 {
		return []entity.RetrievalResult{}, nil
	}
	if len(vector) != snap.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", entity.ErrDimensionMismatch, len(vector), snap.dims)
	}

	results := make([]entity.RetrievalResult, 0, len(snap.entries))
	for i, e := range snap.entries {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		results = append(results, entity.RetrievalResult{
			Chunk:    e.Chunk,
			Distance: cosineDistance(vector, e.Vector),
		})
	}

	slices.SortStableFunc(results, func(a, b entity.RetrievalResult) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Chunk.Filename, b.Chunk.Filename); c != 0 {
			return c
		}
		return cmp.Compare(a.Chunk.ChunkIndex, b.Chunk.ChunkIndex)
	})

	if len(results) > k {
		results = results[:k]
	}
	for i := range results {
		results[i].Chunk = cloneChunk(results[i].Chunk)
	}
	return results, nil
}

func (idx *VectorIndex) DeleteByFilename(ctx context.Context, filename string) (int, error) {
	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	snap := idx.current.Load()
	kept := make([]entity.IndexedVector, 0, len(snap.entries))
	for _, e := range snap.entries {
		if e.Chunk.Filename != filename {
			kept = append(kept, e)
		}
	}

	deleted := len(snap.entries) - len(kept)
	if deleted > 0 {
		dims := snap.dims
		if len(kept) == 0 {
			dims = 0
		}
		idx.current.Store(&indexSnapshot{entries: kept, dims: dims})
	}
	return deleted, nil
}

func (idx *VectorIndex) CountByFilename(ctx context.Context, filename string) (int, error) {
	n := 0
	for _, e := range idx.current.Load().entries {
		if e.Chunk.Filename == filename {
			n++
		}
	}
	return n, nil
}

func (idx *VectorIndex) ListDocuments(ctx context.Context) ([]entity.DocumentSummary, error) {
	counts := make(map[string]int)
	for _, e := range idx.current.Load().entries {
		counts[e.Chunk.Filename]++
	}

	docs := make([]entity.DocumentSummary, 0, len(counts))
	for name, n := range counts {
		docs = append(docs, entity.DocumentSummary{Filename: name, ChunkCount: n})
	}
	slices.SortFunc(docs, func(a, b entity.DocumentSummary) int {
		return cmp.Compare(a.Filename, b.Filename)
	})
	return docs, nil
}

func (idx *VectorIndex) Stats(ctx context.Context) (entity.IndexStats, error) {
	docs, err := idx.ListDocuments(ctx)
	if err != nil {
		return entity.IndexStats{}, err
	}
	return entity.IndexStats{
		TotalDocuments: len(docs),
		TotalChunks:    len(idx.current.Load().entries),
	}, nil
}

// cosineDistance is 1 - cos(a, b), in [0,2]. A zero vector is treated as
// orthogonal to everything.
func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	d := 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
	return math.Max(0, math.Min(2, d))
}

func cloneChunk(c entity.Chunk) entity.Chunk {
	c.Metadata = c.Metadata.Clone()
	return c
}
