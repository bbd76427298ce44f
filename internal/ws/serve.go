package ws

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/pliu/prava/internal/auth"
)

// TokenVerifier resolves a bearer token to an identity.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWs authenticates the handshake and upgrades it. The token comes from
// the "token" query parameter or an "Authorization: Bearer" header. Requests
// without a valid token get 401 and are never registered.
func ServeWs(hub *Hub, verifier TokenVerifier, w http.ResponseWriter, r *http.Request) {
	id, err := verifier.Verify(handshakeToken(r))
	if err != nil {
		hub.log.Info(r.Context(), "websocket handshake rejected", "remote_addr", r.RemoteAddr, "err", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Warn(r.Context(), "websocket upgrade failed", "err", err)
		return
	}

	c := newClient(hub, conn, id.UserID)
	if !hub.registerClient(c) {
		conn.Close()
		return
	}
	ctx := auth.WithIdentity(context.Background(), id)
	hub.log.Info(ctx, "client connected", "conn_id", c.id, "user_id", c.userID)

	go c.writePump()
	go func() {
		c.readPump(ctx)
		hub.log.Info(ctx, "client disconnected", "conn_id", c.id, "user_id", c.userID)
	}()
}

func handshakeToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
