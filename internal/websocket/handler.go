package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs registers the connection with the hub and pumps frames until the
// peer goes away.
func ServeWs(hub *Hub, c *websocket.Conn) {
	client := &Client{Hub: hub, Conn: c, Remote: c.RemoteAddr().String(), Send: make(chan []byte, 256)}
	hub.add(client)

	go client.writePump()
	client.readPump()
}
