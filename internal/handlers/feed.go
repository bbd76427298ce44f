package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pliu/prava/internal/logging"
	"github.com/pliu/prava/internal/service"
)

type CreatePostRequest struct {
	Content  string `json:"content" validate:"required,max=5000"`
	ImageURL string `json:"imageUrl" validate:"omitempty,url"`
}

type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

type ReactionRequest struct {
	Type string `json:"type" validate:"required,oneof=like love haha wow sad angry"`
}

type FeedHandler struct {
	Feed *service.FeedService
	Log  logging.Logger
}

func (h *FeedHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r, h.Log)
	if !ok {
		return
	}
	var req CreatePostRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	post, err := h.Feed.CreatePost(r.Context(), uid, req.Content, req.ImageURL)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	posts, err := h.Feed.GetFeed(r.Context(), queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *FeedHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.Feed.GetPost(r.Context(), mux.Vars(r)["postId"])
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *FeedHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r, h.Log)
	if !ok {
		return
	}

	msg, err := h.Feed.DeletePost(r.Context(), uid, mux.Vars(r)["postId"])
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (h *FeedHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r, h.Log)
	if !ok {
		return
	}
	var req CreateCommentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	comment, err := h.Feed.CreateComment(r.Context(), uid, mux.Vars(r)["postId"], req.Content)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// ToggleReaction answers 201 when a reaction was added and 200 when an
// identical one was removed.
func (h *FeedHandler) ToggleReaction(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r, h.Log)
	if !ok {
		return
	}
	var req ReactionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	res, err := h.Feed.ToggleReaction(r.Context(), uid, mux.Vars(r)["postId"], req.Type)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	status := http.StatusCreated
	if res.Removed {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}
