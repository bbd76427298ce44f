package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pliu/prava/internal/models"
	"github.com/pliu/prava/internal/service"
)

func TestFeedLifecycle(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)
	_, alice := srv.user(t, "alice")
	_, bob := srv.user(t, "bob")

	rr := srv.do(t, http.MethodPost, "/feed/posts", alice, map[string]string{"content": "first post"})
	req.Equal(http.StatusCreated, rr.Code, rr.Body.String())
	post := decodeBody[models.Post](t, rr)
	postPath := "/feed/posts/" + post.ID

	req.Equal(http.StatusBadRequest,
		srv.do(t, http.MethodPost, "/feed/posts", alice, map[string]string{"content": "x", "imageUrl": "not a url"}).Code)

	// Bob comments and reacts
	req.Equal(http.StatusCreated,
		srv.do(t, http.MethodPost, postPath+"/comments", bob, map[string]string{"content": "nice"}).Code)
	rr = srv.do(t, http.MethodPost, postPath+"/reactions", bob, map[string]string{"type": "love"})
	req.Equal(http.StatusCreated, rr.Code)
	req.NotNil(decodeBody[service.ReactionResult](t, rr).Reaction)

	rr = srv.do(t, http.MethodGet, "/feed/posts?page=1&limit=10", bob, nil)
	req.Equal(http.StatusOK, rr.Code)
	feed := decodeBody[[]models.Post](t, rr)
	req.Len(feed, 1)
	req.Equal(1, feed[0].CommentCount)
	req.Equal(1, feed[0].ReactionCount)

	// The same reaction again removes it
	rr = srv.do(t, http.MethodPost, postPath+"/reactions", bob, map[string]string{"type": "love"})
	req.Equal(http.StatusOK, rr.Code)
	req.True(decodeBody[service.ReactionResult](t, rr).Removed)
	req.Equal(http.StatusBadRequest,
		srv.do(t, http.MethodPost, postPath+"/reactions", bob, map[string]string{"type": "meh"}).Code)

	rr = srv.do(t, http.MethodGet, postPath, bob, nil)
	req.Equal(http.StatusOK, rr.Code)
	full := decodeBody[models.Post](t, rr)
	req.Len(full.Comments, 1)
	req.Empty(full.Reactions)

	// Only the author may delete
	req.Equal(http.StatusForbidden, srv.do(t, http.MethodDelete, postPath, bob, nil).Code)
	req.Equal(http.StatusOK, srv.do(t, http.MethodDelete, postPath, alice, nil).Code)
	req.Equal(http.StatusNotFound, srv.do(t, http.MethodGet, postPath, alice, nil).Code)
	req.Equal(http.StatusNotFound,
		srv.do(t, http.MethodPost, postPath+"/comments", bob, map[string]string{"content": "late"}).Code)
}

func TestFeedActivityNotifiesAuthor(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)
	_, alice := srv.user(t, "alice")
	_, bob := srv.user(t, "bob")

	post := decodeBody[models.Post](t, srv.do(t, http.MethodPost, "/feed/posts", alice, map[string]string{"content": "hello"}))
	srv.do(t, http.MethodPost, "/feed/posts/"+post.ID+"/comments", bob, map[string]string{"content": "hi"})
	srv.do(t, http.MethodPost, "/feed/posts/"+post.ID+"/comments", alice, map[string]string{"content": "thanks"})

	rr := srv.do(t, http.MethodGet, "/notifications", alice, nil)
	req.Equal(http.StatusOK, rr.Code)
	list := decodeBody[[]models.Notification](t, rr)
	req.Len(list, 1)
	req.Equal(service.NotificationComment, list[0].Type)

	rr = srv.do(t, http.MethodGet, "/notifications", bob, nil)
	req.Empty(decodeBody[[]models.Notification](t, rr))
}
