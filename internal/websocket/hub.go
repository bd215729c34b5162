package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"firechat/internal/models"
)

// MessageToSend defines the structure for sending a payload to one user.
type MessageToSend struct {
	TargetUID string
	Payload   []byte
}

// Envelope is the frame pushed to browser clients.
type Envelope struct {
	Type string      `json:"type"` // "snapshot" or "presence"
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and pushes engine events out to
// them: conversation snapshots to their subject user, presence changes to
// everyone.
type Hub struct {
	// Registered clients. Maps uid to a set of active connections.
	Clients map[string]map[*Client]bool

	// Broadcast fans a payload out to every connected client.
	Broadcast chan []byte

	// SendDirect targets all connections of a single user.
	SendDirect chan *MessageToSend

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		Broadcast:  make(chan []byte),
		SendDirect: make(chan *MessageToSend),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Clients:    make(map[string]map[*Client]bool),
	}
}

// Run starts the hub's processing loop.
func (h *Hub) Run() {
	log.Println("WebSocket Hub started.")
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.Clients[client.UID]; !ok {
				h.Clients[client.UID] = make(map[*Client]bool)
			}
			h.Clients[client.UID][client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if userClients, ok := h.Clients[client.UID]; ok {
				if _, clientOk := userClients[client]; clientOk {
					delete(userClients, client)
					if len(userClients) == 0 {
						delete(h.Clients, client.UID)
					}
				}
			}
			h.mu.Unlock()

		case message := <-h.Broadcast:
			h.mu.RLock()
			for _, userClients := range h.Clients {
				for client := range userClients {
					select {
					case client.Send <- message:
					default:
						log.Printf("Broadcast send buffer full for client of user %s", client.UID)
					}
				}
			}
			h.mu.RUnlock()

		case directMessage := <-h.SendDirect:
			h.mu.RLock()
			for client := range h.Clients[directMessage.TargetUID] {
				select {
				case client.Send <- directMessage.Payload:
				default:
					log.Printf("Send channel full for client of user %s, frame dropped", client.UID)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// SnapshotForUser pushes a conversation snapshot to all of uid's
// connections. Implements the engine's snapshot sink.
func (h *Hub) SnapshotForUser(uid string, conv *models.Conversation) {
	payload, err := json.Marshal(Envelope{Type: "snapshot", Data: conv})
	if err != nil {
		log.Printf("Failed to encode snapshot for %s: %v", uid, err)
		return
	}
	h.send(&MessageToSend{TargetUID: uid, Payload: payload})
}

// PresenceChanged pushes a presence update to every connected client.
// Implements the engine's presence notifier.
func (h *Hub) PresenceChanged(p models.UserPresence) {
	payload, err := json.Marshal(Envelope{Type: "presence", Data: p})
	if err != nil {
		log.Printf("Failed to encode presence for %s: %v", p.UID, err)
		return
	}
	select {
	case h.Broadcast <- payload:
	case <-time.After(1 * time.Second):
		log.Printf("Timeout broadcasting presence for %s", p.UID)
	}
}

// HasConnections reports whether uid still has at least one live
// connection registered.
func (h *Hub) HasConnections(uid string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.Clients[uid]) > 0
}

func (h *Hub) send(message *MessageToSend) {
	select {
	case h.SendDirect <- message:
	case <-time.After(1 * time.Second):
		log.Printf("Timeout queuing frame for user %s, hub might be busy", message.TargetUID)
	}
}
