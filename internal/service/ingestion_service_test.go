package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"legal-rag-be/internal/entity"
	"legal-rag-be/internal/pkg/logger"
	"legal-rag-be/internal/repository/memory"
	"legal-rag-be/pkg/embedding"
	"legal-rag-be/pkg/events"
	"legal-rag-be/pkg/legal"
	"legal-rag-be/pkg/rag/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJudgment = `IN THE SUPREME COURT OF BANGLADESH
Civil Appeal No. 45 of 2011
Rahima Begum vs Abdul Hamid
Present: Mr. Justice Md. Abdul Wahhab Miah

The dispute concerns a contract for sale of land and the decree of specific performance.

`

// flakyEmbedder fails every call once failAfter successful calls have been made.
type flakyEmbedder struct {
	inner     embedding.EmbeddingProvider
	calls     atomic.Int32
	failAfter int32
	err       error
}

func (f *flakyEmbedder) ModelName() string { return f.inner.ModelName() }

func (f *flakyEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	if f.failAfter >= 0 && f.calls.Add(1) > f.failAfter {
		return nil, f.err
	}
	return f.inner.Generate(ctx, text, taskType)
}

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *capturePublisher) Publish(ctx context.Context, e events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *capturePublisher) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.events))
	for i, e := range c.events {
		out[i] = e.EventType()
	}
	return out
}

type ingestionFixture struct {
	svc      IIngestionService
	index    *memory.VectorIndex
	embedder *flakyEmbedder
	events   *capturePublisher
}

func newIngestionFixture(chunkSize int) *ingestionFixture {
	embedder := &flakyEmbedder{inner: embedding.NewHashingProvider(64), failAfter: -1}
	index := memory.NewVectorIndex(2)
	pub := &capturePublisher{}
	log := logger.NewNopLogger()
	svc := NewIngestionService(
		index,
		embedder,
		legal.NewExtractor(),
		search.NewRetriever(embedder, index, log),
		pub,
		log,
		IngestionConfig{ChunkSize: chunkSize, ChunkOverlap: chunkSize / 5, MinChunkSize: chunkSize / 10, Concurrency: 3},
	)
	return &ingestionFixture{svc: svc, index: index, embedder: embedder, events: pub}
}

func longText(paragraphs int) string {
	var b strings.Builder
	b.WriteString(sampleJudgment)
	for i := 0; i < paragraphs; i++ {
		b.WriteString("The learned court considered the evidence of possession and the registered deed in detail. ")
		b.WriteString("It held that the plaintiff proved title beyond doubt.\n\n")
	}
	return b.String()
}

func TestIngestionService_IngestAssignsMetadataAndIndexes(t *testing.T) {
	f := newIngestionFixture(400)
	ctx := context.Background()

	n, err := f.svc.Ingest(ctx, entity.Document{Filename: "rahima.txt", RawText: longText(10)})
	require.NoError(t, err)
	require.Greater(t, n, 1)

	count, err := f.index.CountByFilename(ctx, "rahima.txt")
	require.NoError(t, err)
	assert.Equal(t, n, count)

	results, err := f.svc.Search(ctx, "specific performance of a contract for sale of land", n)
	require.NoError(t, err)
	require.Len(t, results, n)

	seen := map[int]bool{}
	for _, r := range results {
		seen[r.Chunk.ChunkIndex] = true
		assert.Equal(t, entity.DefaultSourceTag, r.Chunk.SourceTag)
		assert.Equal(t, entity.DefaultYear, r.Chunk.Year)
		assert.Equal(t, "Rahima Begum vs Abdul Hamid", r.Chunk.Metadata.CaseName)
	}
	for i := 0; i < n; i++ {
		assert.True(t, seen[i], "chunk %d missing", i)
	}
	assert.Equal(t, []string{events.TypeDocumentIngested}, f.events.types())
}

func TestIngestionService_ReingestReplaces(t *testing.T) {
	f := newIngestionFixture(400)
	ctx := context.Background()

	_, err := f.svc.Ingest(ctx, entity.Document{Filename: "doc.txt", RawText: longText(12)})
	require.NoError(t, err)
	n, err := f.svc.Ingest(ctx, entity.Document{Filename: "doc.txt", RawText: longText(2)})
	require.NoError(t, err)

	count, err := f.index.CountByFilename(ctx, "doc.txt")
	require.NoError(t, err)
	assert.Equal(t, n, count)
}

func TestIngestionService_EmbeddingFailureKeepsPreviousVersion(t *testing.T) {
	f := newIngestionFixture(400)
	ctx := context.Background()

	before, err := f.svc.Ingest(ctx, entity.Document{Filename: "doc.txt", RawText: longText(6)})
	require.NoError(t, err)

	f.embedder.calls.Store(0)
	f.embedder.failAfter = 2
	f.embedder.err = errors.Join(entity.ErrEmbeddingService, errors.New("timeout"))

	_, err = f.svc.Ingest(ctx, entity.Document{Filename: "doc.txt", RawText: longText(12)})
	require.Error(t, err)
	var ingestErr *entity.IngestionError
	require.ErrorAs(t, err, &ingestErr)
	assert.Equal(t, "doc.txt", ingestErr.Filename)
	assert.ErrorIs(t, err, entity.ErrEmbeddingService)

	count, err := f.index.CountByFilename(ctx, "doc.txt")
	require.NoError(t, err)
	assert.Equal(t, before, count)
}

func TestIngestionService_RejectsEmptyDocuments(t *testing.T) {
	f := newIngestionFixture(400)

	tests := []struct {
		name string
		doc  entity.Document
	}{
		{"no filename", entity.Document{RawText: "text"}},
		{"blank text", entity.Document{Filename: "scan.txt", RawText: " \n\n "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Ingest(context.Background(), tt.doc)
			var ingestErr *entity.IngestionError
			require.ErrorAs(t, err, &ingestErr)
			assert.ErrorIs(t, err, entity.ErrInvalidArgument)
		})
	}
}

func TestIngestionService_BatchSkipsFailures(t *testing.T) {
	f := newIngestionFixture(400)

	report := f.svc.IngestBatch(context.Background(), []entity.Document{
		{Filename: "a.txt", RawText: longText(2)},
		{Filename: "scanned.txt", RawText: ""},
		{Filename: "b.txt", RawText: longText(3)},
	})

	assert.Len(t, report.Ingested, 2)
	assert.Contains(t, report.Ingested, "a.txt")
	assert.Contains(t, report.Ingested, "b.txt")
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "scanned.txt", report.Failed[0].Filename)
}

func TestIngestionService_BatchStopsOnCancel(t *testing.T) {
	f := newIngestionFixture(400)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := f.svc.IngestBatch(ctx, []entity.Document{
		{Filename: "a.txt", RawText: longText(2)},
		{Filename: "b.txt", RawText: longText(2)},
	})

	assert.Empty(t, report.Ingested)
	require.Len(t, report.Failed, 2)
	assert.ErrorIs(t, report.Failed[1].Err, context.Canceled)
}

func TestIngestionService_DeleteAndCleanup(t *testing.T) {
	f := newIngestionFixture(400)
	ctx := context.Background()
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		_, err := f.svc.Ingest(ctx, entity.Document{Filename: name, RawText: longText(1)})
		require.NoError(t, err)
	}

	n, err := f.svc.DeleteDocument(ctx, "a.txt")
	require.NoError(t, err)
	assert.Positive(t, n)

	_, err = f.svc.DeleteDocument(ctx, "a.txt")
	assert.ErrorIs(t, err, entity.ErrDocumentNotFound)

	report, err := f.svc.CleanupOrphans(ctx, []string{"b.txt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c.txt"}, report.OrphanedFiles)
	assert.Positive(t, report.ChunksDeleted)

	docs, err := f.svc.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "b.txt", docs[0].Filename)

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalDocuments)
	assert.Equal(t, docs[0].ChunkCount, stats.TotalChunks)
}
