package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"legal-rag-be/internal/entity"
	"legal-rag-be/internal/pkg/logger"
	"legal-rag-be/internal/repository/contract"
	"legal-rag-be/pkg/embedding"
	"legal-rag-be/pkg/events"
	"legal-rag-be/pkg/legal"
	"legal-rag-be/pkg/rag/search"
	"legal-rag-be/pkg/utils"

	"golang.org/x/sync/errgroup"
)

const ingestModule = "INGEST"

type IIngestionService interface {
	Ingest(ctx context.Context, doc entity.Document) (int, error)
	IngestBatch(ctx context.Context, docs []entity.Document) entity.IngestReport
	ListDocuments(ctx context.Context) ([]entity.DocumentSummary, error)
	DeleteDocument(ctx context.Context, filename string) (int, error)
	CleanupOrphans(ctx context.Context, validFilenames []string) (entity.CleanupReport, error)
	Stats(ctx context.Context) (entity.IndexStats, error)
	Search(ctx context.Context, query string, k int) ([]entity.RetrievalResult, error)
}

type IngestionConfig struct {
	ChunkSize    int
	ChunkOverlap int
	MinChunkSize int
	Concurrency  int
}

type ingestionService struct {
	index     contract.VectorIndex
	embedder  embedding.EmbeddingProvider
	extractor *legal.Extractor
	retriever *search.Retriever
	publisher events.Publisher
	logger    logger.ILogger
	cfg       IngestionConfig
}

func NewIngestionService(
	index contract.VectorIndex,
	embedder embedding.EmbeddingProvider,
	extractor *legal.Extractor,
	retriever *search.Retriever,
	publisher events.Publisher,
	log logger.ILogger,
	cfg IngestionConfig,
) IIngestionService {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = utils.DefaultChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = utils.DefaultChunkOverlap
	}
	if cfg.MinChunkSize < 0 {
		cfg.MinChunkSize = utils.DefaultMinChunkSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	return &ingestionService{
		index:     index,
		embedder:  embedder,
		extractor: extractor,
		retriever: retriever,
		publisher: publisher,
		logger:    log,
		cfg:       cfg,
	}
}

// Ingest segments, annotates and embeds doc, then swaps it into the index in
// place of any earlier version with the same filename. It returns the number
// of chunks now indexed for the document.
func (s *ingestionService) Ingest(ctx context.Context, doc entity.Document) (int, error) {
	if strings.TrimSpace(doc.Filename) == "" {
		return 0, &entity.IngestionError{Filename: doc.Filename, Err: fmt.Errorf("%w: filename is required", entity.ErrInvalidArgument)}
	}
	if strings.TrimSpace(doc.RawText) == "" {
		return 0, &entity.IngestionError{Filename: doc.Filename, Err: fmt.Errorf("%w: document has no extractable text", entity.ErrInvalidArgument)}
	}
	if doc.SourceTag == "" {
		doc.SourceTag = entity.DefaultSourceTag
	}
	if doc.Year == 0 {
		doc.Year = entity.DefaultYear
	}

	metadata := s.extractor.Extract(doc.RawText)
	texts := utils.SplitText(doc.RawText, s.cfg.ChunkSize, s.cfg.ChunkOverlap, s.cfg.MinChunkSize)
	if len(texts) == 0 {
		return 0, &entity.IngestionError{Filename: doc.Filename, Err: fmt.Errorf("%w: no chunks produced", entity.ErrInvalidArgument)}
	}

	s.logger.Info(ingestModule, "Document segmented", map[string]interface{}{
		"filename":  doc.Filename,
		"chunks":    len(texts),
		"case_name": metadata.CaseName,
	})

	vectors := make([]entity.IndexedVector, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, text := range texts {
		g.Go(func() error {
			res, err := s.embedder.Generate(gctx, text, embedding.TaskRetrievalDocument)
			if err != nil {
				return fmt.Errorf("embed chunk %d: %w", i, err)
			}
			vectors[i] = entity.IndexedVector{
				Vector: res.Vector(),
				Chunk: entity.Chunk{
					Text:       text,
					Filename:   doc.Filename,
					Filepath:   doc.Filepath,
					SourceTag:  doc.SourceTag,
					Year:       doc.Year,
					ChunkIndex: i,
					Metadata:   metadata.Clone(),
				},
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error(ingestModule, "Embedding failed", map[string]interface{}{
			"filename": doc.Filename,
			"error":    err.Error(),
		})
		return 0, &entity.IngestionError{Filename: doc.Filename, Err: err}
	}

	if err := s.index.Replace(ctx, doc.Filename, vectors); err != nil {
		s.logger.Error(ingestModule, "Index replace failed", map[string]interface{}{
			"filename": doc.Filename,
			"error":    err.Error(),
		})
		return 0, &entity.IngestionError{Filename: doc.Filename, Err: err}
	}

	s.logger.Info(ingestModule, "Document ingested", map[string]interface{}{
		"filename": doc.Filename,
		"chunks":   len(vectors),
		"model":    s.embedder.ModelName(),
	})
	s.publish(ctx, events.DocumentIngested(doc.Filename, len(vectors), s.embedder.ModelName()))
	return len(vectors), nil
}

// IngestBatch ingests docs in order. A failed document is recorded and the
// batch moves on; only cancellation stops it early.
func (s *ingestionService) IngestBatch(ctx context.Context, docs []entity.Document) entity.IngestReport {
	report := entity.IngestReport{
		Ingested: make(map[string]int, len(docs)),
		Failed:   []entity.IngestFailure{},
	}

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			for _, rest := range docs[i:] {
				report.Failed = append(report.Failed, entity.IngestFailure{Filename: rest.Filename, Err: err})
			}
			break
		}

		n, err := s.Ingest(ctx, doc)
		if err != nil {
			report.Failed = append(report.Failed, entity.IngestFailure{Filename: doc.Filename, Err: err})
			continue
		}
		report.Ingested[doc.Filename] = n
	}

	s.logger.Info(ingestModule, "Batch finished", map[string]interface{}{
		"ingested": len(report.Ingested),
		"failed":   len(report.Failed),
	})
	return report
}

func (s *ingestionService) ListDocuments(ctx context.Context) ([]entity.DocumentSummary, error) {
	return s.index.ListDocuments(ctx)
}

func (s *ingestionService) DeleteDocument(ctx context.Context, filename string) (int, error) {
	n, err := s.index.DeleteByFilename(ctx, filename)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: %s", entity.ErrDocumentNotFound, filename)
	}

	s.logger.Info(ingestModule, "Document deleted", map[string]interface{}{
		"filename": filename,
		"chunks":   n,
	})
	s.publish(ctx, events.DocumentDeleted(filename, n))
	return n, nil
}

// CleanupOrphans deletes every indexed document whose filename is not in
// validFilenames.
func (s *ingestionService) CleanupOrphans(ctx context.Context, validFilenames []string) (entity.CleanupReport, error) {
	docs, err := s.index.ListDocuments(ctx)
	if err != nil {
		return entity.CleanupReport{}, err
	}

	report := entity.CleanupReport{OrphanedFiles: []string{}}
	for _, doc := range docs {
		if slices.Contains(validFilenames, doc.Filename) {
			continue
		}
		n, err := s.index.DeleteByFilename(ctx, doc.Filename)
		if err != nil {
			return report, err
		}
		report.OrphanedFiles = append(report.OrphanedFiles, doc.Filename)
		report.ChunksDeleted += n
		s.publish(ctx, events.DocumentDeleted(doc.Filename, n))
	}

	s.logger.Info(ingestModule, "Orphan cleanup finished", map[string]interface{}{
		"orphaned_files": len(report.OrphanedFiles),
		"chunks_deleted": report.ChunksDeleted,
	})
	return report, nil
}

func (s *ingestionService) Stats(ctx context.Context) (entity.IndexStats, error) {
	return s.index.Stats(ctx)
}

func (s *ingestionService) Search(ctx context.Context, query string, k int) ([]entity.RetrievalResult, error) {
	return s.retriever.Retrieve(ctx, query, k)
}

func (s *ingestionService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn(ingestModule, "Failed to publish event", map[string]interface{}{
			"event": event.EventType(),
			"error": err.Error(),
		})
	}
}
