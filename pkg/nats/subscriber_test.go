package nats

import (
	"encoding/json"
	"testing"
	"time"

	"legal-rag-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	original := events.DocumentIngested("karim.txt", 12, "hashing-384")
	data, err := json.Marshal(original.Payload())
	require.NoError(t, err)

	got, err := decodeEvent(Subject(original), data)
	require.NoError(t, err)

	assert.Equal(t, events.TypeDocumentIngested, got.EventType())
	assert.Equal(t, "karim.txt", got.Payload()["filename"])
	assert.Equal(t, float64(12), got.Payload()["chunks"])
	assert.WithinDuration(t, original.Timestamp(), got.Timestamp(), time.Second)
}

func TestDecodeEvent_Malformed(t *testing.T) {
	_, err := decodeEvent("events.document.ingested", []byte("{not json"))
	assert.Error(t, err)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "events.session.deleted", Subject(events.SessionDeleted("abc")))
}
