package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pliu/prava/internal/logging"
	"github.com/pliu/prava/internal/service"
)

type RegisterKeyRequest struct {
	DeviceID  string `json:"deviceId" validate:"required,max=200"`
	PublicKey string `json:"publicKey" validate:"required,max=4096"`
}

type KeyHandler struct {
	Keys *service.KeyService
	Log  logging.Logger
}

func (h *KeyHandler) Register(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r, h.Log)
	if !ok {
		return
	}
	var req RegisterKeyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	key, err := h.Keys.RegisterKey(r.Context(), uid, req.DeviceID, req.PublicKey)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, key)
}

func (h *KeyHandler) MyKeys(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r, h.Log)
	if !ok {
		return
	}

	keys, err := h.Keys.MyKeys(r.Context(), uid)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

func (h *KeyHandler) UserKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.Keys.UserKeys(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

func (h *KeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r, h.Log)
	if !ok {
		return
	}

	msg, err := h.Keys.DeleteKey(r.Context(), uid, mux.Vars(r)["deviceId"])
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}
