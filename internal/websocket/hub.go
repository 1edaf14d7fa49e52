package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"legal-rag-be/internal/pkg/logger"
	"legal-rag-be/pkg/events"

	"github.com/redis/go-redis/v9"
)

const clusterChannel = "legal-rag:events"

// Frame is what feed subscribers receive for every domain event.
type Frame struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// Hub fans domain events out to every connected feed client. With Redis
// configured, events published on one replica reach clients of all replicas.
type Hub struct {
	clients map[*Client]struct{}
	mu      sync.RWMutex

	rdb    *redis.Client
	logger logger.ILogger
}

var _ events.Publisher = (*Hub)(nil)

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		rdb:     rdb,
		logger:  log,
	}
}

// Run relays the Redis channel, when configured, and disconnects every client
// once ctx is done.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	<-ctx.Done()

	h.mu.Lock()
	for client := range h.clients {
		close(client.Send)
		delete(h.clients, client)
	}
	h.mu.Unlock()
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("HUB", "Feed client registered", map[string]interface{}{"remote": client.Remote})
}

// ClientCount reports the number of locally connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish delivers event to local clients and, when Redis is configured, to
// the other replicas.
func (h *Hub) Publish(ctx context.Context, event events.Event) error {
	data, err := json.Marshal(Frame{Type: event.EventType(), Data: event.Payload()})
	if err != nil {
		return err
	}

	if h.rdb != nil {
		// Local clients receive the frame through the subscription as well.
		return h.rdb.Publish(ctx, clusterChannel, data).Err()
	}

	h.broadcast(data)
	return nil
}

func (h *Hub) broadcast(data []byte) {
	var slow []*Client

	h.mu.RLock()
	for client := range h.clients {
		select {
		case client.Send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("HUB", "Client send buffer full, disconnecting", map[string]interface{}{"remote": client.Remote})
		h.drop(client)
	}
}

func (h *Hub) drop(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast([]byte(msg.Payload))
		}
	}
}
