package handler

import (
	"legal-rag-be/internal/pkg/logger"
	internalWS "legal-rag-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// EventFeedHandler streams domain events (ingestions, deletions, answers) to
// websocket subscribers.
type EventFeedHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewEventFeedHandler(hub *internalWS.Hub, log logger.ILogger) *EventFeedHandler {
	return &EventFeedHandler{hub: hub, logger: log}
}

func (h *EventFeedHandler) RegisterRoutes(r fiber.Router) {
	g := r.Group("/events/v1")
	g.Get("/ws", h.ServeWs)
}

func (h *EventFeedHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("HTTP", "Event feed opened", map[string]interface{}{"remote": conn.RemoteAddr().String()})
		internalWS.ServeWs(h.hub, conn)
		h.logger.Info("HTTP", "Event feed closed", map[string]interface{}{"remote": conn.RemoteAddr().String()})
	})(c)
}
