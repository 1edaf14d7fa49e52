package events

import (
	"context"
	"errors"
	"time"
)

// Event defines the contract for all domain events.
type Event interface {
	// EventType returns the dotted subject suffix, e.g. "document.ingested".
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Publisher delivers events. Delivery is best-effort: callers log failures and
// carry on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

const (
	TypeDocumentIngested = "document.ingested"
	TypeDocumentDeleted  = "document.deleted"
	TypeSessionDeleted   = "session.deleted"
	TypeAnswerGenerated  = "answer.generated"
)

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

func newEvent(eventType string, data map[string]interface{}) BaseEvent {
	now := time.Now().UTC()
	data["occurred_at"] = now.Format(time.RFC3339)
	return BaseEvent{Type: eventType, Data: data, OccurredAt: now}
}

func DocumentIngested(filename string, chunks int, model string) BaseEvent {
	return newEvent(TypeDocumentIngested, map[string]interface{}{
		"filename": filename,
		"chunks":   chunks,
		"model":    model,
	})
}

func DocumentDeleted(filename string, chunks int) BaseEvent {
	return newEvent(TypeDocumentDeleted, map[string]interface{}{
		"filename": filename,
		"chunks":   chunks,
	})
}

func SessionDeleted(sessionID string) BaseEvent {
	return newEvent(TypeSessionDeleted, map[string]interface{}{
		"session_id": sessionID,
	})
}

func AnswerGenerated(sessionID string, locations []string, confidence float64) BaseEvent {
	return newEvent(TypeAnswerGenerated, map[string]interface{}{
		"session_id": sessionID,
		"sources":    locations,
		"confidence": confidence,
	})
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event Event) error { return nil }

// Fanout publishes every event to each of its publishers and joins their
// errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
