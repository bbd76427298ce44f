package ws

import (
	"context"

	"github.com/samber/lo"

	"github.com/pliu/prava/internal/logging"
	"github.com/pliu/prava/internal/models"
	"github.com/pliu/prava/internal/presence"
)

// MembershipChecker vets join_conversation requests.
type MembershipChecker interface {
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
}

type roomRequest struct {
	client         *Client
	conversationID string
}

type typingRequest struct {
	client         *Client
	conversationID string
	isTyping       bool
}

type outbound struct {
	target  string // conversation or user id
	payload []byte
}

// Hub owns the presence registry and every live client. All registry
// mutations and fan-outs run on the goroutine executing Run, one at a time.
type Hub struct {
	registry *presence.Registry
	clients  map[string]*Client // connection id -> client

	register   chan *Client
	unregister chan *Client
	join       chan roomRequest
	leave      chan roomRequest
	typing     chan typingRequest
	toRoom     chan outbound
	toUser     chan outbound

	// done is closed when Run returns so that callers never block on a
	// stopped hub.
	done chan struct{}

	members MembershipChecker
	log     logging.Logger
}

// NewHub builds a hub. When members is nil any connection may join any room.
func NewHub(members MembershipChecker, log logging.Logger) *Hub {
	return &Hub{
		registry:   presence.NewRegistry(),
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan roomRequest),
		leave:      make(chan roomRequest),
		typing:     make(chan typingRequest),
		toRoom:     make(chan outbound),
		toUser:     make(chan outbound),
		done:       make(chan struct{}),
		members:    members,
		log:        log,
	}
}

// Run processes hub events until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.clients[c.id] = c
			h.registry.Register(c.userID, c.id)
		case c := <-h.unregister:
			h.drop(c)
		case req := <-h.join:
			if _, ok := h.clients[req.client.id]; !ok {
				continue
			}
			h.registry.JoinRoom(req.client.id, req.conversationID)
			h.ack(req.client, EventJoinedConversation, req.conversationID)
		case req := <-h.leave:
			if _, ok := h.clients[req.client.id]; !ok {
				continue
			}
			h.registry.LeaveRoom(req.client.id, req.conversationID)
			h.ack(req.client, EventLeftConversation, req.conversationID)
		case req := <-h.typing:
			h.fanOutTyping(req)
		case out := <-h.toRoom:
			for _, connID := range h.registry.RoomMembers(out.target) {
				if c, ok := h.clients[connID]; ok {
					h.deliver(c, out.payload)
				}
			}
		case out := <-h.toUser:
			for _, connID := range h.registry.ConnectionsFor(out.target) {
				if c, ok := h.clients[connID]; ok {
					h.deliver(c, out.payload)
				}
			}
		}
	}
}

// fanOutTyping relays a typing change to the room. Connections of the typing
// user are skipped. With membership checks on, the typing connection must
// have joined the room itself.
func (h *Hub) fanOutTyping(req typingRequest) {
	room := h.registry.RoomMembers(req.conversationID)
	if h.members != nil && !lo.Contains(room, req.client.id) {
		return
	}

	payload, err := encode(EventUserTyping, Typing{
		ConversationID: req.conversationID,
		UserID:         req.client.userID,
		IsTyping:       req.isTyping,
	})
	if err != nil {
		return
	}
	for _, connID := range room {
		c, ok := h.clients[connID]
		if !ok || c.userID == req.client.userID {
			continue
		}
		h.deliver(c, payload)
	}
}

func (h *Hub) ack(c *Client, event, conversationID string) {
	payload, err := encode(event, ConversationRef{ConversationID: conversationID})
	if err != nil {
		return
	}
	h.deliver(c, payload)
}

// deliver queues payload for c. A client whose queue is full is dropped.
func (h *Hub) deliver(c *Client, payload []byte) {
	select {
	case c.send <- payload:
	default:
		h.log.Warn(context.Background(), "send queue full, dropping client", "conn_id", c.id, "user_id", c.userID)
		h.drop(c)
	}
}

func (h *Hub) drop(c *Client) {
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	h.registry.LeaveAllRooms(c.id)
	h.registry.Deregister(c.id, c.userID)
	close(c.send)
}

// SendToConversation sends event to every connection in the conversation's
// room. It is a no-op when nobody is listening.
func (h *Hub) SendToConversation(conversationID, event string, data any) {
	h.publish(h.toRoom, conversationID, event, data)
}

// SendToUser sends event to every live connection of userID regardless of
// room membership.
func (h *Hub) SendToUser(userID, event string, data any) {
	h.publish(h.toUser, userID, event, data)
}

func (h *Hub) BroadcastMessage(msg *models.Message) {
	h.SendToConversation(msg.ConversationID, EventNewMessage, msg)
}

func (h *Hub) NotifyUser(userID string, n *models.Notification) {
	h.SendToUser(userID, EventNotification, n)
}

func (h *Hub) publish(ch chan outbound, target, event string, data any) {
	payload, err := encode(event, data)
	if err != nil {
		h.log.Error(context.Background(), "encode event", "event", event, "err", err)
		return
	}
	select {
	case ch <- outbound{target: target, payload: payload}:
	case <-h.done:
	}
}

func (h *Hub) registerClient(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) joinRoom(ctx context.Context, c *Client, conversationID string) {
	if h.members != nil {
		ok, err := h.members.IsParticipant(ctx, conversationID, c.userID)
		if err != nil {
			h.log.Error(ctx, "membership check failed", "conversation_id", conversationID, "user_id", c.userID, "err", err)
			return
		}
		if !ok {
			h.log.Debug(ctx, "join refused", "conversation_id", conversationID, "user_id", c.userID)
			return
		}
	}
	h.request(h.join, roomRequest{client: c, conversationID: conversationID})
}

func (h *Hub) leaveRoom(c *Client, conversationID string) {
	h.request(h.leave, roomRequest{client: c, conversationID: conversationID})
}

func (h *Hub) setTyping(c *Client, conversationID string, isTyping bool) {
	select {
	case h.typing <- typingRequest{client: c, conversationID: conversationID, isTyping: isTyping}:
	case <-h.done:
	}
}

func (h *Hub) request(ch chan roomRequest, req roomRequest) {
	select {
	case ch <- req:
	case <-h.done:
	}
}
