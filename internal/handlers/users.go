package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pliu/prava/internal/logging"
	"github.com/pliu/prava/internal/models"
	"github.com/pliu/prava/internal/service"
)

// UpdateProfileRequest leaves absent fields untouched.
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName" validate:"omitempty,max=100"`
	Bio         *string `json:"bio" validate:"omitempty,max=500"`
	AvatarURL   *string `json:"avatarUrl" validate:"omitempty,url"`
}

type UserHandler struct {
	Users *service.UserService
	Log   logging.Logger
}

func (h *UserHandler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	available, err := h.Users.CheckUsername(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"available": available})
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r, h.Log)
	if !ok {
		return
	}

	user, err := h.Users.GetProfile(r.Context(), uid)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r, h.Log)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	user, err := h.Users.UpdateProfile(r.Context(), uid, models.ProfileUpdate{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Search answers an empty list for an empty query.
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusOK, []models.UserSummary{})
		return
	}

	users, err := h.Users.Search(r.Context(), q, queryInt(r, "limit"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.Users.GetUser(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
