package implementation

import (
	"context"
	"errors"
	"fmt"

	"legal-rag-be/internal/entity"
	"legal-rag-be/internal/mapper"
	"legal-rag-be/internal/model"
	"legal-rag-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PgVectorIndexImpl struct {
	db        *gorm.DB
	mapper    *mapper.LegalChunkMapper
	batchSize int
}

func NewPgVectorIndex(db *gorm.DB, batchSize int) contract.VectorIndex {
	if batchSize <= 0 {
		batchSize = contract.DefaultBatchSize
	}
	return &PgVectorIndexImpl{
		db:        db,
		mapper:    mapper.NewLegalChunkMapper(),
		batchSize: batchSize,
	}
}

func (r *PgVectorIndexImpl) Upsert(ctx context.Context, vectors []entity.IndexedVector) error {
	if len(vectors) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.checkDimensions(tx, vectors, ""); err != nil {
			return err
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "filename"}, {Name: "chunk_index"}},
			UpdateAll: true,
		}).CreateInBatches(r.mapper.ToModels(vectors), r.batchSize).Error
		return wrapIndexErr(err)
	})
}

func (r *PgVectorIndexImpl) Replace(ctx context.Context, filename string, vectors []entity.IndexedVector) error {
	for _, v := range vectors {
		if v.Chunk.Filename != filename {
			return fmt.Errorf("%w: vector for %q in replace of %q", entity.ErrInvalidArgument, v.Chunk.Filename, filename)
		}
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("filename = ?", filename).Delete(&model.LegalChunk{}).Error; err != nil {
			return wrapIndexErr(err)
		}
		if len(vectors) == 0 {
			return nil
		}
		if err := r.checkDimensions(tx, vectors, filename); err != nil {
			return err
		}
		return wrapIndexErr(tx.CreateInBatches(r.mapper.ToModels(vectors), r.batchSize).Error)
	})
}

// checkDimensions rejects vectors whose length differs from each other or
// from rows already stored for documents other than exclude.
func (r *PgVectorIndexImpl) checkDimensions(tx *gorm.DB, vectors []entity.IndexedVector, exclude string) error {
	dims := len(vectors[0].Vector)
	for _, v := range vectors {
		if len(v.Vector) == 0 || len(v.Vector) != dims {
			return fmt.Errorf("%w: %s has %d dimensions, batch has %d",
				entity.ErrDimensionMismatch, v.Chunk.Location(), len(v.Vector), dims)
		}
	}

	var stored []int
	q := tx.Model(&model.LegalChunk{}).Limit(1)
	if exclude != "" {
		q = q.Where("filename <> ?", exclude)
	}
	if err := q.Pluck("vector_dims(embedding)", &stored).Error; err != nil {
		return wrapIndexErr(err)
	}
	if len(stored) > 0 && stored[0] != dims {
		return fmt.Errorf("%w: batch has %d dimensions, index has %d", entity.ErrDimensionMismatch, dims, stored[0])
	}
	return nil
}

func (r *PgVectorIndexImpl) Query(ctx context.Context, vector []float32, k int) ([]entity.RetrievalResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", entity.ErrInvalidArgument, k)
	}

	var hits []model.LegalChunkHit
	err := r.db.WithContext(ctx).
		Model(&model.LegalChunk{}).
		Select("*, embedding <=> ? AS distance", pgvector.NewVector(vector)).
		Order("distance ASC, filename ASC, chunk_index ASC").
		Limit(k).
		Scan(&hits).Error
	if err != nil {
		return nil, wrapIndexErr(err)
	}
	return r.mapper.ToResults(hits), nil
}

func (r *PgVectorIndexImpl) DeleteByFilename(ctx context.Context, filename string) (int, error) {
	res := r.db.WithContext(ctx).Where("filename = ?", filename).Delete(&model.LegalChunk{})
	if res.Error != nil {
		return 0, wrapIndexErr(res.Error)
	}
	return int(res.RowsAffected), nil
}

func (r *PgVectorIndexImpl) CountByFilename(ctx context.Context, filename string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.LegalChunk{}).Where("filename = ?", filename).Count(&count).Error; err != nil {
		return 0, wrapIndexErr(err)
	}
	return int(count), nil
}

func (r *PgVectorIndexImpl) ListDocuments(ctx context.Context) ([]entity.DocumentSummary, error) {
	var rows []struct {
		Filename   string
		ChunkCount int
	}
	err := r.db.WithContext(ctx).
		Model(&model.LegalChunk{}).
		Select("filename, COUNT(*) AS chunk_count").
		Group("filename").
		Order("filename ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, wrapIndexErr(err)
	}

	docs := make([]entity.DocumentSummary, len(rows))
	for i, row := range rows {
		docs[i] = entity.DocumentSummary{Filename: row.Filename, ChunkCount: row.ChunkCount}
	}
	return docs, nil
}

func (r *PgVectorIndexImpl) Stats(ctx context.Context) (entity.IndexStats, error) {
	var row struct {
		TotalDocuments int
		TotalChunks    int
	}
	err := r.db.WithContext(ctx).
		Model(&model.LegalChunk{}).
		Select("COUNT(DISTINCT filename) AS total_documents, COUNT(*) AS total_chunks").
		Scan(&row).Error
	if err != nil {
		return entity.IndexStats{}, wrapIndexErr(err)
	}
	return entity.IndexStats{TotalDocuments: row.TotalDocuments, TotalChunks: row.TotalChunks}, nil
}

func wrapIndexErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", entity.ErrIndexUnavailable, err)
}
