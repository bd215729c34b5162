package handlers

import (
	"log"
	"net/http"

	ws "github.com/gorilla/websocket"

	"firechat/internal/middleware"
	"firechat/internal/websocket"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the configured allowed origins
		return true
	},
}

// HandleWebSocket upgrades a client connection, starts the user's session
// actor (which marks them online) and streams snapshots and presence
// frames back. Browsers cannot set headers on websocket requests, so the
// token rides in the query string.
func (s *Server) HandleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			http.Error(w, "Missing authentication token", http.StatusUnauthorized)
			return
		}

		claims, err := middleware.ValidateToken(tokenString)
		if err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}
		identity := claims.Identity()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed for user %s: %v", identity.UID, err)
			return
		}

		s.Engine.StartSession(identity)

		client := &websocket.Client{
			Hub:  s.Hub,
			UID:  identity.UID,
			Conn: conn,
			Send: make(chan []byte, 256),
			OnClose: func() {
				// Last connection gone: stop the session so presence
				// flips offline.
				if !s.Hub.HasConnections(identity.UID) {
					s.Engine.StopSession(identity.UID)
				}
			},
		}
		client.Hub.Register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}
