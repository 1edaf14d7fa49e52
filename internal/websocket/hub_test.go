package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"legal-rag-be/internal/pkg/logger"
	"legal-rag-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub, buffer int) *Client {
	c := &Client{Hub: hub, Remote: "test", Send: make(chan []byte, buffer)}
	hub.add(c)
	return c
}

func TestHubPublishWithoutRedis(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	a := newTestClient(hub, 4)
	b := newTestClient(hub, 4)

	require.NoError(t, hub.Publish(context.Background(), events.DocumentIngested("judgment.pdf", 3, "hashing-64")))

	for _, c := range []*Client{a, b} {
		select {
		case raw := <-c.Send:
			var frame Frame
			require.NoError(t, json.Unmarshal(raw, &frame))
			assert.Equal(t, events.TypeDocumentIngested, frame.Type)
			assert.Equal(t, "judgment.pdf", frame.Data["filename"])
			assert.EqualValues(t, 3, frame.Data["chunks"])
		case <-time.After(time.Second):
			t.Fatal("frame not delivered")
		}
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	slow := newTestClient(hub, 1)
	fast := newTestClient(hub, 8)

	for i := 0; i < 3; i++ {
		require.NoError(t, hub.Publish(context.Background(), events.SessionDeleted("s-1")))
	}

	assert.Equal(t, 1, hub.ClientCount())
	assert.Len(t, fast.Send, 3)

	// The slow client's channel is closed after its buffered frame.
	<-slow.Send
	_, open := <-slow.Send
	assert.False(t, open)
}

func TestHubRunClosesClientsOnShutdown(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	c := newTestClient(hub, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	_, open := <-c.Send
	assert.False(t, open)
	assert.Zero(t, hub.ClientCount())

	// Dropping an already removed client is a no-op.
	hub.drop(c)
}
