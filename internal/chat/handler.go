package chat

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for now (Dev mode)
	},
}

// Handler exposes the websocket endpoint plus the read-only room queries.
type Handler struct {
	hub      *Hub
	registry *Registry
}

func NewHandler(hub *Hub, registry *Registry) *Handler {
	return &Handler{hub: hub, registry: registry}
}

// ServeWs upgrades the request and hands the connection to the hub.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	client := newClient(h.hub, conn)
	h.hub.Register(client)

	go client.writePump()
	go client.readPump()
}

// GetChatLog returns a room's history in chronological order. A room with no
// recorded activity reads as an empty array; the lookup never creates a room.
func (h *Handler) GetChatLog(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "room")
	history := []Message{}
	if room, ok := h.registry.Get(name); ok {
		history = room.History()
	}
	writeJSON(w, history)
}

// GetUserLog returns a room's current member names, empty for unknown rooms.
func (h *Handler) GetUserLog(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "room")
	members := []string{}
	if room, ok := h.registry.Get(name); ok {
		members = room.Members()
	}
	writeJSON(w, members)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
