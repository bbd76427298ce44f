package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pliu/prava/internal/logging"
	"github.com/pliu/prava/internal/middleware"
	"github.com/pliu/prava/internal/service"
	"github.com/pliu/prava/internal/ws"
)

// Services is everything the router dispatches to.
type Services struct {
	Auth          *service.AuthService
	Users         *service.UserService
	Feed          *service.FeedService
	Chat          *service.ChatService
	Keys          *service.KeyService
	Notifications *service.NotificationService
}

// RouterConfig carries the pieces that are not services.
type RouterConfig struct {
	Tokens             middleware.TokenVerifier
	Hub                *ws.Hub
	Log                logging.Logger
	RateLimitPerMinute int
}

func NewRouter(s Services, cfg RouterConfig) *mux.Router {
	authH := &AuthHandler{Auth: s.Auth, Log: cfg.Log}
	userH := &UserHandler{Users: s.Users, Log: cfg.Log}
	feedH := &FeedHandler{Feed: s.Feed, Log: cfg.Log}
	chatH := &ChatHandler{Chat: s.Chat, Log: cfg.Log}
	keyH := &KeyHandler{Keys: s.Keys, Log: cfg.Log}
	notifH := &NotificationHandler{Notifications: s.Notifications, Log: cfg.Log}

	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware(cfg.Log))
	requireAuth := middleware.AuthMiddleware(cfg.Tokens)

	a := r.PathPrefix("/auth").Subrouter()
	a.Use(middleware.RateLimit(cfg.RateLimitPerMinute))
	a.HandleFunc("/register", authH.Register).Methods(http.MethodPost)
	a.HandleFunc("/login", authH.Login).Methods(http.MethodPost)
	a.HandleFunc("/verify-otp", authH.VerifyOTP).Methods(http.MethodPost)
	a.HandleFunc("/refresh", authH.Refresh).Methods(http.MethodPost)
	a.HandleFunc("/resend-otp", authH.ResendOTP).Methods(http.MethodPost)

	r.HandleFunc("/users/check-username/{username}", userH.CheckUsername).Methods(http.MethodGet)
	u := r.PathPrefix("/users").Subrouter()
	u.Use(requireAuth)
	u.HandleFunc("/profile", userH.GetProfile).Methods(http.MethodGet)
	u.HandleFunc("/profile", userH.UpdateProfile).Methods(http.MethodPut)
	u.HandleFunc("/search", userH.Search).Methods(http.MethodGet)
	u.HandleFunc("/{userId}", userH.GetUser).Methods(http.MethodGet)

	f := r.PathPrefix("/feed").Subrouter()
	f.Use(requireAuth)
	f.HandleFunc("/posts", feedH.CreatePost).Methods(http.MethodPost)
	f.HandleFunc("/posts", feedH.GetFeed).Methods(http.MethodGet)
	f.HandleFunc("/posts/{postId}", feedH.GetPost).Methods(http.MethodGet)
	f.HandleFunc("/posts/{postId}", feedH.DeletePost).Methods(http.MethodDelete)
	f.HandleFunc("/posts/{postId}/comments", feedH.CreateComment).Methods(http.MethodPost)
	f.HandleFunc("/posts/{postId}/reactions", feedH.ToggleReaction).Methods(http.MethodPost)

	c := r.PathPrefix("/chat/conversations").Subrouter()
	c.Use(requireAuth)
	c.HandleFunc("", chatH.CreateConversation).Methods(http.MethodPost)
	c.HandleFunc("", chatH.ListConversations).Methods(http.MethodGet)
	c.HandleFunc("/{conversationId}", chatH.GetConversation).Methods(http.MethodGet)
	c.HandleFunc("/{conversationId}", chatH.DeleteConversation).Methods(http.MethodDelete)
	c.HandleFunc("/{conversationId}/messages", chatH.GetMessages).Methods(http.MethodGet)
	c.HandleFunc("/{conversationId}/messages", chatH.SendMessage).Methods(http.MethodPost)
	c.HandleFunc("/{conversationId}/read", chatH.MarkAsRead).Methods(http.MethodPost)
	c.HandleFunc("/{conversationId}/unread", chatH.UnreadCount).Methods(http.MethodGet)

	k := r.PathPrefix("/keys").Subrouter()
	k.Use(requireAuth)
	k.HandleFunc("/register", keyH.Register).Methods(http.MethodPost)
	k.HandleFunc("/my-keys", keyH.MyKeys).Methods(http.MethodGet)
	k.HandleFunc("/user/{userId}", keyH.UserKeys).Methods(http.MethodGet)
	k.HandleFunc("/device/{deviceId}", keyH.Delete).Methods(http.MethodDelete)

	n := r.PathPrefix("/notifications").Subrouter()
	n.Use(requireAuth)
	n.HandleFunc("", notifH.List).Methods(http.MethodGet)
	n.HandleFunc("/register-push-token", notifH.RegisterPushToken).Methods(http.MethodPost)
	n.HandleFunc("/read-all", notifH.MarkAllAsRead).Methods(http.MethodPut)
	n.HandleFunc("/{notificationId}/read", notifH.MarkAsRead).Methods(http.MethodPut)

	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(cfg.Hub, cfg.Tokens, w, r)
	})

	return r
}
