package chat

import (
	"context"
	"log"
	"time"
)

// DefaultResetDelay is how long after a join the abandonment check runs.
const DefaultResetDelay = 500 * time.Millisecond

// Cleaner filters profanity out of message text before it reaches a room's
// history or any subscriber.
type Cleaner interface {
	Clean(text string) string
}

// HubOptions tunes the broadcast engine.
type HubOptions struct {
	// ResetDelay overrides DefaultResetDelay when positive.
	ResetDelay time.Duration
	// CancelResetOnJoin stops a room's pending abandonment check whenever a
	// new join schedules the next one. The relay's original behavior never
	// cancels, which lets a stale timer clear history if the member count
	// happens to be 1 again when it fires; this flag opts into the safer
	// variant.
	CancelResetOnJoin bool
}

type joinRequest struct {
	client *Client
	room   string
	user   string
}

type inboundMessage struct {
	client *Client
	text   string
}

// Hub is the broadcast engine. A single run-loop goroutine owns every
// mutation to room state and to the subscription sets, which keeps message
// append order and broadcast order identical without per-room locking
// gymnastics. Persistence happens off the loop via the persister.
type Hub struct {
	registry *Registry
	filter   Cleaner
	persist  *persister

	resetDelay   time.Duration
	cancelResets bool

	// clients is every registered connection; rooms maps a room name to the
	// connections subscribed to its broadcasts.
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool

	resetTimers map[string]*time.Timer

	register   chan *Client
	unregister chan *Client
	joins      chan joinRequest
	messages   chan inboundMessage
	resetCheck chan string
	done       chan struct{}
}

func NewHub(registry *Registry, store Store, filter Cleaner, opts HubOptions) *Hub {
	delay := opts.ResetDelay
	if delay <= 0 {
		delay = DefaultResetDelay
	}
	return &Hub{
		registry:     registry,
		filter:       filter,
		persist:      newPersister(store),
		resetDelay:   delay,
		cancelResets: opts.CancelResetOnJoin,
		clients:      make(map[*Client]bool),
		rooms:        make(map[string]map[*Client]bool),
		resetTimers:  make(map[string]*time.Timer),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		joins:        make(chan joinRequest),
		messages:     make(chan inboundMessage),
		resetCheck:   make(chan string),
		done:         make(chan struct{}),
	}
}

// Register adds a freshly upgraded connection to the hub. After shutdown it
// is a no-op rather than a blocked send.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister is the transport-level disconnect signal. Safe to call after
// shutdown: a readPump winding down must never block in its deferred cleanup.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Run drives the engine until ctx is cancelled. It is the only goroutine
// that touches h.clients, h.rooms and client sessions.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			h.handleDisconnect(client)
		case req := <-h.joins:
			h.handleJoin(req)
		case msg := <-h.messages:
			h.handleMessage(msg)
		case room := <-h.resetCheck:
			h.handleResetCheck(room)
		}
	}
}

func (h *Hub) closeAll() {
	for client := range h.clients {
		close(client.send)
	}
	h.clients = make(map[*Client]bool)
	h.rooms = make(map[string]map[*Client]bool)
}

func (h *Hub) handleJoin(req joinRequest) {
	// A connection dropped for a full send buffer already had its channel
	// closed, but its readPump can still race in one more event.
	if _, ok := h.clients[req.client]; !ok {
		return
	}
	user := req.user
	if user == "" {
		user = AnonymousUser
	}
	// Re-joining overwrites the session but leaves any previous room's
	// subscription and membership entry alone until disconnect.
	req.client.room = req.room
	req.client.username = user

	if h.rooms[req.room] == nil {
		h.rooms[req.room] = make(map[*Client]bool)
	}
	h.rooms[req.room][req.client] = true

	room := h.registry.GetOrCreate(req.room)
	room.AddMember(user)

	h.sendTo(req.client, EventChatLog, room.History())
	h.broadcast(req.room, EventUserJoined, user)
	h.persist.SaveMembers(req.room, room.Members())
	h.scheduleResetCheck(req.room)
}

func (h *Hub) handleMessage(msg inboundMessage) {
	if _, ok := h.clients[msg.client]; !ok {
		return // dropped connection, same race as in handleJoin
	}
	if msg.client.room == "" {
		return // not joined anywhere, drop silently
	}
	room, ok := h.registry.Get(msg.client.room)
	if !ok {
		return
	}
	entry := Message{
		User:    msg.client.username,
		Message: h.filter.Clean(msg.text),
		Time:    time.Now().UTC(),
	}
	room.Append(entry)
	h.broadcast(room.Name(), EventChatMessage, entry)
	h.persist.SaveHistory(room.Name(), room.History())
}

func (h *Hub) handleDisconnect(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	for _, subs := range h.rooms {
		delete(subs, client)
	}
	if client.room == "" {
		return
	}
	room, ok := h.registry.Get(client.room)
	if !ok {
		return
	}
	room.RemoveMember(client.username)
	h.broadcast(client.room, EventUserLeft, client.username)
	h.persist.SaveMembers(client.room, room.Members())
}

// scheduleResetCheck arms the abandonment heuristic for a room. The check
// fires a fixed delay after the join that scheduled it.
func (h *Hub) scheduleResetCheck(roomName string) {
	if h.cancelResets {
		if t, ok := h.resetTimers[roomName]; ok {
			t.Stop()
		}
	}
	h.resetTimers[roomName] = time.AfterFunc(h.resetDelay, func() {
		select {
		case h.resetCheck <- roomName:
		case <-h.done:
		}
	})
}

// handleResetCheck clears a room's history when exactly one member remains
// shortly after a join and the room already has history: the room was
// vacated and a single returning user is starting it fresh. The pre-clear
// history is persisted before the in-memory copy is dropped.
func (h *Hub) handleResetCheck(roomName string) {
	room, ok := h.registry.Get(roomName)
	if !ok {
		return
	}
	if room.MemberCount() != 1 || room.HistoryLen() == 0 {
		return
	}
	h.persist.SaveHistory(roomName, room.History())
	room.ClearHistory()
}

// sendTo delivers an event to a single connection, point-to-point.
func (h *Hub) sendTo(client *Client, event string, data any) {
	payload, err := marshalEvent(event, data)
	if err != nil {
		log.Printf("hub: marshal %q event: %v", event, err)
		return
	}
	h.deliver(client, payload)
}

// broadcast fans an event out to every subscriber of a room, including the
// connection that triggered it.
func (h *Hub) broadcast(roomName, event string, data any) {
	payload, err := marshalEvent(event, data)
	if err != nil {
		log.Printf("hub: marshal %q event: %v", event, err)
		return
	}
	for client := range h.rooms[roomName] {
		h.deliver(client, payload)
	}
}

// deliver is best-effort: a subscriber whose send buffer is full is dropped
// rather than allowed to stall the room.
func (h *Hub) deliver(client *Client, payload []byte) {
	select {
	case client.send <- payload:
	default:
		h.dropClient(client)
	}
}

func (h *Hub) dropClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	for _, subs := range h.rooms {
		delete(subs, client)
	}
}
