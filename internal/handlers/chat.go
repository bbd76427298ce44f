package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pliu/prava/internal/logging"
	"github.com/pliu/prava/internal/service"
)

type CreateConversationRequest struct {
	Name           string   `json:"name" validate:"max=100"`
	ParticipantIDs []string `json:"participantIds" validate:"required,min=1,dive,required"`
}

type SendMessageRequest struct {
	Content     string `json:"content" validate:"required"`
	IsEncrypted bool   `json:"isEncrypted"`
}

type ChatHandler struct {
	Chat *service.ChatService
	Log  logging.Logger
}

func (h *ChatHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r, h.Log)
	if !ok {
		return
	}
	var req CreateConversationRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	conv, err := h.Chat.CreateConversation(r.Context(), uid, req.Name, req.ParticipantIDs)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r, h.Log)
	if !ok {
		return
	}

	convs, err := h.Chat.ListConversations(r.Context(), uid)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r, h.Log)
	if !ok {
		return
	}

	conv, err := h.Chat.GetConversation(r.Context(), uid, mux.Vars(r)["conversationId"])
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r, h.Log)
	if !ok {
		return
	}

	messages, err := h.Chat.GetMessages(r.Context(), uid, mux.Vars(r)["conversationId"],
		queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r, h.Log)
	if !ok {
		return
	}
	var req SendMessageRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	msg, err := h.Chat.SendMessage(r.Context(), uid, mux.Vars(r)["conversationId"], req.Content, req.IsEncrypted)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *ChatHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r, h.Log)
	if !ok {
		return
	}

	msg, err := h.Chat.MarkAsRead(r.Context(), uid, mux.Vars(r)["conversationId"])
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (h *ChatHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r, h.Log)
	if !ok {
		return
	}

	n, err := h.Chat.UnreadCount(r.Context(), uid, mux.Vars(r)["conversationId"])
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unreadCount": n})
}

func (h *ChatHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r, h.Log)
	if !ok {
		return
	}

	msg, err := h.Chat.DeleteConversation(r.Context(), uid, mux.Vars(r)["conversationId"])
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}
