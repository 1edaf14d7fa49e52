package service

import (
	"context"
	"testing"
	"time"

	"legal-rag-be/internal/dto"
	"legal-rag-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumerService_IngestsQueuedDocuments(t *testing.T) {
	f := newIngestionFixture(400)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := NewConsumerService(pubSub, "ingest-test", f.svc, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))

	docs := NewDocumentService(f.svc, NewPublisherService("ingest-test", pubSub), 5)
	require.NoError(t, docs.Enqueue(ctx, &dto.IngestDocumentRequest{Filename: "queued.txt", Text: longText(3)}))

	require.Eventually(t, func() bool {
		n, err := f.index.CountByFilename(ctx, "queued.txt")
		return err == nil && n > 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConsumerService_DropsMalformedAndPermanentFailures(t *testing.T) {
	f := newIngestionFixture(400)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := NewConsumerService(pubSub, "ingest-test", f.svc, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService("ingest-test", pubSub)
	require.NoError(t, publisher.Publish(ctx, "not an object"))
	require.NoError(t, publisher.Publish(ctx, dto.PublishIngestDocumentMessage{Filename: "empty.txt"}))
	require.NoError(t, publisher.Publish(ctx, dto.PublishIngestDocumentMessage{Filename: "after.txt", Text: longText(1)}))

	require.Eventually(t, func() bool {
		n, _ := f.index.CountByFilename(ctx, "after.txt")
		return n > 0
	}, 2*time.Second, 10*time.Millisecond)

	n, err := f.index.CountByFilename(ctx, "empty.txt")
	require.NoError(t, err)
	assert.Zero(t, n)
}
