package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendQueueSize  = 256
)

// Client is one websocket connection of an authenticated user.
type Client struct {
	id     string
	userID string
	hub    *Hub
	conn   *websocket.Conn

	// Buffered channel of outbound frames. Only the hub writes to or closes it.
	send chan []byte
}

func newClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		id:     uuid.NewString(),
		userID: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendQueueSize),
	}
}

// readPump decodes client frames until the connection fails, then
// unregisters the client.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug(ctx, "websocket read error", "conn_id", c.id, "err", err)
			}
			return
		}
		c.handle(ctx, data)
	}
}

// handle dispatches one client frame. Malformed frames are ignored, there is
// no error reply on the realtime channel.
func (c *Client) handle(ctx context.Context, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.hub.log.Debug(ctx, "malformed frame", "conn_id", c.id, "err", err)
		return
	}
	var ref ConversationRef
	if err := json.Unmarshal(env.Data, &ref); err != nil || ref.ConversationID == "" {
		c.hub.log.Debug(ctx, "frame without conversation", "conn_id", c.id, "event", env.Event)
		return
	}

	switch env.Event {
	case EventJoinConversation:
		c.hub.joinRoom(ctx, c, ref.ConversationID)
	case EventLeaveConversation:
		c.hub.leaveRoom(c, ref.ConversationID)
	case EventTypingStart:
		c.hub.setTyping(c, ref.ConversationID, true)
	case EventTypingStop:
		c.hub.setTyping(c, ref.ConversationID, false)
	default:
		c.hub.log.Debug(ctx, "unknown event", "conn_id", c.id, "event", env.Event)
	}
}

// writePump forwards queued frames to the socket and keeps it alive with
// pings. It exits when the hub closes the send channel.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
