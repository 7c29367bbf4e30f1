package chat

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second    // Time allowed to write a message to the peer.
	pongWait       = 60 * time.Second    // Time allowed to read the next pong message from the peer.
	pingPeriod     = (pongWait * 9) / 10 // Send pings to peer with this period. Must be less than pongWait.
	maxMessageSize = 4096                // Maximum frame size allowed from peer.
)

// Client is a middleman between one websocket connection and the hub. The
// room and username fields are the connection's session; they start out
// unjoined/anonymous and are mutated only by the hub's run loop.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	room     string
	username string
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 256),
		username: AnonymousUser,
	}
}

// readPump pumps events from the websocket connection to the hub. Malformed
// frames and unknown event names are dropped without a reply.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("read error: %v", err)
			}
			break
		}

		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			continue
		}
		switch ev.Event {
		case EventJoin:
			var req JoinRequest
			// Zero values fall back to defaults, a join never fails.
			json.Unmarshal(ev.Data, &req)
			select {
			case c.hub.joins <- joinRequest{client: c, room: req.Room, user: req.User}:
			case <-c.hub.done:
				return
			}
		case EventChatMessage:
			var text string
			if err := json.Unmarshal(ev.Data, &text); err != nil {
				continue
			}
			select {
			case c.hub.messages <- inboundMessage{client: c, text: text}:
			case <-c.hub.done:
				return
			}
		}
	}
}

// writePump pumps events from the hub to the websocket connection and keeps
// the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
