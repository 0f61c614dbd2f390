package server

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler handles GET /api/ws/events: the live moderation event
// stream for connected admin consoles.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		// Set by the auth middleware before the upgrade.
		admin, _ := conn.Locals("adminUsername").(string)
		if admin == "" {
			admin = "unknown"
		}

		if s.hub == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"event stream unavailable"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(admin, conn)
		if err != nil {
			log.Printf("WebSocket: Failed to register console for %s: %v", admin, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		log.Printf("WebSocket: Admin %s connected to event stream", admin)

		go client.WritePump()
		client.ReadPump()
	})
}
