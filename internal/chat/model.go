package chat

import (
	"encoding/json"
	"time"
)

// AnonymousUser is the display name applied when a join carries no username.
const AnonymousUser = "Anonymous"

// Event names exchanged over the websocket.
const (
	EventJoin        = "join"
	EventChatMessage = "chat message"
	EventChatLog     = "chat log"
	EventUserJoined  = "user joined"
	EventUserLeft    = "user left"
)

// Message is a single chat entry as stored in a room's history and broadcast
// to subscribers. The text is always the filtered form, never raw client input.
type Message struct {
	User    string    `json:"user"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Event is the JSON envelope for every frame on the wire, both directions.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// JoinRequest is the payload of an inbound "join" event. Missing fields fall
// back to defaults; a join is never rejected.
type JoinRequest struct {
	Room string `json:"room"`
	User string `json:"user"`
}

func marshalEvent(name string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Event: name, Data: payload})
}
