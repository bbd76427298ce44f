package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pliu/prava/internal/logging"
	"github.com/pliu/prava/internal/service"
)

type PushTokenRequest struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"required,oneof=ios android web"`
}

type NotificationHandler struct {
	Notifications *service.NotificationService
	Log           logging.Logger
}

func (h *NotificationHandler) RegisterPushToken(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r, h.Log)
	if !ok {
		return
	}
	var req PushTokenRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	token, err := h.Notifications.RegisterPushToken(r.Context(), uid, req.Token, req.Platform)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, token)
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r, h.Log)
	if !ok {
		return
	}

	list, err := h.Notifications.List(r.Context(), uid, queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r, h.Log)
	if !ok {
		return
	}

	msg, err := h.Notifications.MarkAsRead(r.Context(), uid, mux.Vars(r)["notificationId"])
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r, h.Log)
	if !ok {
		return
	}

	msg, err := h.Notifications.MarkAllAsRead(r.Context(), uid)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}
