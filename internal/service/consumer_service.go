package service

import (
	"context"
	"encoding/json"
	"sync"

	"legal-rag-be/internal/dto"
	"legal-rag-be/internal/entity"
	"legal-rag-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	consumerModule     = "INGEST_CONSUMER"
	maxDeliveryAttempt = 3
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	ingestion  IIngestionService
	logger     logger.ILogger

	mu       sync.Mutex
	attempts map[string]int
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	ingestion IIngestionService,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		ingestion:  ingestion,
		logger:     log,
		attempts:   make(map[string]int),
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage acks everything except transient upstream failures, which are
// nacked for redelivery up to maxDeliveryAttempt times.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIngestDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error(consumerModule, "Failed to unmarshal message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack()
		return
	}

	n, err := cs.ingestion.Ingest(ctx, entity.Document{
		Filename:  payload.Filename,
		Filepath:  payload.Filepath,
		RawText:   payload.Text,
		SourceTag: payload.SourceTag,
		Year:      payload.Year,
	})
	if err == nil {
		cs.forget(msg.UUID)
		cs.logger.Info(consumerModule, "Queued document ingested", map[string]interface{}{
			"filename": payload.Filename,
			"chunks":   n,
		})
		msg.Ack()
		return
	}

	attempt := cs.attempt(msg.UUID)
	details := map[string]interface{}{
		"filename": payload.Filename,
		"attempt":  attempt,
		"error":    err.Error(),
	}
	if entity.IsRetryable(err) && attempt < maxDeliveryAttempt && ctx.Err() == nil {
		cs.logger.Warn(consumerModule, "Queued ingestion failed, redelivering", details)
		msg.Nack()
		return
	}

	cs.forget(msg.UUID)
	cs.logger.Error(consumerModule, "Queued ingestion failed", details)
	msg.Ack()
}

func (cs *consumerService) attempt(id string) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.attempts[id]++
	return cs.attempts[id]
}

func (cs *consumerService) forget(id string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.attempts, id)
}
