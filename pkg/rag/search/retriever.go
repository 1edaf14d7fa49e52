package search

import (
	"context"
	"fmt"
	"strings"

	"legal-rag-be/internal/entity"
	"legal-rag-be/internal/pkg/logger"
	"legal-rag-be/internal/repository/contract"
	"legal-rag-be/pkg/embedding"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const logModule = "RETRIEVER"

var tracer = otel.Tracer("legal-rag-be/pkg/rag/search")

// Retriever maps a query string to the k nearest chunks. It embeds with the
// query task type and asks the index; nothing else happens in between.
type Retriever struct {
	embedder embedding.EmbeddingProvider
	index    contract.VectorIndex
	logger   logger.ILogger
}

func NewRetriever(embedder embedding.EmbeddingProvider, index contract.VectorIndex, log logger.ILogger) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
		logger:   log,
	}
}

// Retrieve returns at most k results by ascending distance. An empty slice
// means nothing matched; any upstream failure is a *entity.RetrievalError.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]entity.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", entity.ErrInvalidArgument)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", entity.ErrInvalidArgument, k)
	}

	ctx, span := tracer.Start(ctx, "Retriever.Retrieve")
	defer span.End()
	span.SetAttributes(attribute.Int("rag.k", k))

	res, err := r.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "embed query")
		r.logger.Error(logModule, "Query embedding failed", map[string]interface{}{
			"error": err.Error(),
			"model": r.embedder.ModelName(),
		})
		return nil, &entity.RetrievalError{Query: query, Err: err}
	}

	results, err := r.index.Query(ctx, res.Vector(), k)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "index query")
		r.logger.Error(logModule, "Vector index query failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, &entity.RetrievalError{Query: query, Err: err}
	}

	span.SetAttributes(attribute.Int("rag.results", len(results)))
	r.logger.Debug(logModule, "Retrieved chunks", map[string]interface{}{
		"k":       k,
		"results": len(results),
	})
	return results, nil
}
