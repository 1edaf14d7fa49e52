package service

import (
	"context"
	"fmt"
	"strings"

	"legal-rag-be/internal/dto"
	"legal-rag-be/internal/entity"
	"legal-rag-be/pkg/legal"
)

type IDocumentService interface {
	Ingest(ctx context.Context, request *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error)
	Enqueue(ctx context.Context, request *dto.IngestDocumentRequest) error
	IngestBatch(ctx context.Context, request *dto.IngestBatchRequest) (*dto.IngestBatchResponse, error)
	List(ctx context.Context) ([]*dto.DocumentSummaryResponse, error)
	Delete(ctx context.Context, filename string) (*dto.DeleteDocumentResponse, error)
	Cleanup(ctx context.Context, request *dto.CleanupRequest) (*dto.CleanupResponse, error)
	Search(ctx context.Context, request *dto.SearchRequest) ([]*dto.SearchResultResponse, error)
	Stats(ctx context.Context) (*dto.IndexStatsResponse, error)
}

type documentService struct {
	ingestion   IIngestionService
	publisher   IPublisherService
	defaultTopK int
}

func NewDocumentService(ingestion IIngestionService, publisher IPublisherService, defaultTopK int) IDocumentService {
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	return &documentService{
		ingestion:   ingestion,
		publisher:   publisher,
		defaultTopK: defaultTopK,
	}
}

func (d *documentService) Ingest(ctx context.Context, request *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error) {
	n, err := d.ingestion.Ingest(ctx, request.ToEntity())
	if err != nil {
		return nil, err
	}
	return &dto.IngestDocumentResponse{Filename: request.Filename, ChunksAdded: n}, nil
}

func (d *documentService) Enqueue(ctx context.Context, request *dto.IngestDocumentRequest) error {
	if strings.TrimSpace(request.Text) == "" {
		return fmt.Errorf("%w: document has no extractable text", entity.ErrInvalidArgument)
	}
	return d.publisher.Publish(ctx, dto.PublishIngestDocumentMessage{
		Filename:  request.Filename,
		Filepath:  request.Filepath,
		Text:      request.Text,
		SourceTag: request.SourceTag,
		Year:      request.Year,
	})
}

func (d *documentService) IngestBatch(ctx context.Context, request *dto.IngestBatchRequest) (*dto.IngestBatchResponse, error) {
	docs := make([]entity.Document, len(request.Documents))
	for i := range request.Documents {
		docs[i] = request.Documents[i].ToEntity()
	}
	return dto.ToIngestBatchResponse(d.ingestion.IngestBatch(ctx, docs)), nil
}

func (d *documentService) List(ctx context.Context) ([]*dto.DocumentSummaryResponse, error) {
	docs, err := d.ingestion.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]*dto.DocumentSummaryResponse, 0, len(docs))
	for _, doc := range docs {
		res = append(res, &dto.DocumentSummaryResponse{Filename: doc.Filename, ChunkCount: doc.ChunkCount})
	}
	return res, nil
}

func (d *documentService) Delete(ctx context.Context, filename string) (*dto.DeleteDocumentResponse, error) {
	n, err := d.ingestion.DeleteDocument(ctx, filename)
	if err != nil {
		return nil, err
	}
	return &dto.DeleteDocumentResponse{Filename: filename, ChunksDeleted: n}, nil
}

func (d *documentService) Cleanup(ctx context.Context, request *dto.CleanupRequest) (*dto.CleanupResponse, error) {
	report, err := d.ingestion.CleanupOrphans(ctx, request.ValidFilenames)
	if err != nil {
		return nil, err
	}
	return &dto.CleanupResponse{OrphanedFiles: report.OrphanedFiles, ChunksDeleted: report.ChunksDeleted}, nil
}

func (d *documentService) Search(ctx context.Context, request *dto.SearchRequest) ([]*dto.SearchResultResponse, error) {
	k := request.TopK
	if k <= 0 {
		k = d.defaultTopK
	}

	results, err := d.ingestion.Search(ctx, request.Query, k)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.SearchResultResponse, 0, len(results))
	for _, r := range results {
		c := r.Chunk
		res = append(res, &dto.SearchResultResponse{
			Text:           c.Text,
			Filename:       c.Filename,
			Filepath:       c.Filepath,
			ChunkIndex:     c.ChunkIndex,
			SourceTag:      c.SourceTag,
			Year:           c.Year,
			Metadata:       c.Metadata,
			MetadataLine:   legal.FormatForDisplay(c.Metadata),
			Distance:       r.Distance,
			RelevanceScore: r.RelevanceScore(),
			Location:       c.Location(),
		})
	}
	return res, nil
}

func (d *documentService) Stats(ctx context.Context) (*dto.IndexStatsResponse, error) {
	stats, err := d.ingestion.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.IndexStatsResponse{TotalDocuments: stats.TotalDocuments, TotalChunks: stats.TotalChunks}, nil
}
