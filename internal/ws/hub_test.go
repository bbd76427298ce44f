package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/pliu/prava/internal/auth"
	"github.com/pliu/prava/internal/logging"
	"github.com/pliu/prava/internal/models"
)

type fakeMembers map[string][]string // conversation id -> user ids

func (f fakeMembers) IsParticipant(_ context.Context, conversationID, userID string) (bool, error) {
	for _, id := range f[conversationID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func startHub(t *testing.T, members MembershipChecker) *Hub {
	t.Helper()
	hub := NewHub(members, logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.done
	})
	return hub
}

func connect(t *testing.T, hub *Hub, userID string, queue int) *Client {
	t.Helper()
	c := &Client{id: uuid.NewString(), userID: userID, hub: hub, send: make(chan []byte, queue)}
	require.True(t, hub.registerClient(c))
	return c
}

func recv(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case frame, ok := <-c.send:
		require.True(t, ok, "client was dropped")
		var env Envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		return env
	case <-time.After(time.Second):
		t.Fatalf("no frame for %s", c.id)
		return Envelope{}
	}
}

// barrier returns once the hub has handled everything sent before it. It
// fails if c had anything else queued.
func barrier(t *testing.T, hub *Hub, c *Client) {
	t.Helper()
	hub.SendToUser(c.userID, "barrier", struct{}{})
	require.Equal(t, "barrier", recv(t, c).Event)
}

func TestHub_Join_Is_Acknowledged(t *testing.T) {
	hub := startHub(t, nil)
	c := connect(t, hub, "alice", 8)

	hub.joinRoom(context.Background(), c, "conv-1")

	env := recv(t, c)
	require.Equal(t, EventJoinedConversation, env.Event)
	require.JSONEq(t, `{"conversationId":"conv-1"}`, string(env.Data))

	hub.leaveRoom(c, "conv-1")
	require.Equal(t, EventLeftConversation, recv(t, c).Event)
}

func TestHub_Typing_Is_Not_Echoed(t *testing.T) {
	req := require.New(t)
	hub := startHub(t, nil)
	ctx := context.Background()
	alicePhone := connect(t, hub, "alice", 8)
	aliceLaptop := connect(t, hub, "alice", 8)
	bob := connect(t, hub, "bob", 8)
	for _, c := range []*Client{alicePhone, aliceLaptop, bob} {
		hub.joinRoom(ctx, c, "conv-1")
		req.Equal(EventJoinedConversation, recv(t, c).Event)
	}

	// When alice starts typing on her phone
	hub.setTyping(alicePhone, "conv-1", true)

	// Then bob is told
	env := recv(t, bob)
	req.Equal(EventUserTyping, env.Event)
	var typing Typing
	req.NoError(json.Unmarshal(env.Data, &typing))
	req.Equal(Typing{ConversationID: "conv-1", UserID: "alice", IsTyping: true}, typing)

	// And none of alice's connections hear it back
	barrier(t, hub, bob)
	req.Empty(alicePhone.send)
	req.Empty(aliceLaptop.send)
}

func TestHub_Message_Reaches_Whole_Room_Including_Sender(t *testing.T) {
	req := require.New(t)
	hub := startHub(t, nil)
	ctx := context.Background()
	alicePhone := connect(t, hub, "alice", 8)
	aliceLaptop := connect(t, hub, "alice", 8)
	bob := connect(t, hub, "bob", 8)
	outsider := connect(t, hub, "carol", 8)
	for _, c := range []*Client{alicePhone, aliceLaptop, bob} {
		hub.joinRoom(ctx, c, "conv-1")
		recv(t, c)
	}

	hub.BroadcastMessage(&models.Message{ID: "m1", ConversationID: "conv-1", SenderID: "alice", Content: "hi"})

	for _, c := range []*Client{alicePhone, aliceLaptop, bob} {
		env := recv(t, c)
		req.Equal(EventNewMessage, env.Event)
		var msg models.Message
		req.NoError(json.Unmarshal(env.Data, &msg))
		req.Equal("m1", msg.ID)
	}

	barrier(t, hub, outsider)
	req.Empty(outsider.send)
}

func TestHub_Notification_Goes_To_Every_User_Connection(t *testing.T) {
	hub := startHub(t, nil)
	phone := connect(t, hub, "alice", 8)
	laptop := connect(t, hub, "alice", 8)

	hub.NotifyUser("alice", &models.Notification{ID: "n1", Type: "comment"})

	require.Equal(t, EventNotification, recv(t, phone).Event)
	require.Equal(t, EventNotification, recv(t, laptop).Event)

	// Nobody listening is a silent drop
	hub.NotifyUser("offline", &models.Notification{ID: "n2"})
	barrier(t, hub, phone)
	require.Empty(t, phone.send)
}

func TestHub_Join_Requires_Membership(t *testing.T) {
	req := require.New(t)
	hub := startHub(t, fakeMembers{"conv-1": {"alice"}})
	ctx := context.Background()
	alice := connect(t, hub, "alice", 8)
	eve := connect(t, hub, "eve", 8)

	hub.joinRoom(ctx, eve, "conv-1")
	hub.joinRoom(ctx, alice, "conv-1")
	req.Equal(EventJoinedConversation, recv(t, alice).Event)

	// Eve got no ack and does not receive room traffic
	hub.SendToConversation("conv-1", EventNewMessage, map[string]string{"id": "m1"})
	req.Equal(EventNewMessage, recv(t, alice).Event)
	barrier(t, hub, eve)
	req.Empty(eve.send)

	// Typing from outside the room goes nowhere
	hub.setTyping(eve, "conv-1", true)
	barrier(t, hub, alice)
	req.Empty(alice.send)
}

func TestHub_Full_Queue_Drops_Client(t *testing.T) {
	hub := startHub(t, nil)
	c := connect(t, hub, "alice", 1)

	hub.SendToUser("alice", "one", nil)
	hub.SendToUser("alice", "two", nil)
	// The hub takes this only after it is done with "two".
	hub.SendToUser("alice", "three", nil)

	require.Equal(t, "one", recv(t, c).Event)
	select {
	case _, ok := <-c.send:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("client was not dropped")
	}
}

func TestHub_Stop_Closes_Clients(t *testing.T) {
	hub := NewHub(nil, logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	c := connect(t, hub, "alice", 1)

	cancel()
	<-hub.done

	_, ok := <-c.send
	require.False(t, ok)
	// Publishing to a stopped hub does not block
	hub.SendToUser("alice", EventNotification, nil)
	require.False(t, hub.registerClient(&Client{id: "late", userID: "bob", send: make(chan []byte, 1)}))
}

func TestServeWs_Handshake(t *testing.T) {
	req := require.New(t)
	hub := startHub(t, nil)
	tokens := auth.NewTokenIssuer("test-secret", time.Minute)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, tokens, w, r)
	}))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	// Missing and invalid tokens are refused before the upgrade
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	req.ErrorIs(err, websocket.ErrBadHandshake)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url+"?token=garbage", nil)
	req.ErrorIs(err, websocket.ErrBadHandshake)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	// A valid bearer header connects
	token, err := tokens.Issue(auth.Identity{UserID: "alice", Username: "alice"})
	req.NoError(err)
	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Authorization": {"Bearer " + token}})
	req.NoError(err)
	defer conn.Close()

	req.NoError(conn.WriteJSON(Envelope{Event: EventJoinConversation, Data: json.RawMessage(`{"conversationId":"conv-1"}`)}))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env Envelope
	req.NoError(conn.ReadJSON(&env))
	req.Equal(EventJoinedConversation, env.Event)

	hub.NotifyUser("alice", &models.Notification{ID: "n1"})
	req.NoError(conn.ReadJSON(&env))
	req.Equal(EventNotification, env.Event)
}
