package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/pliu/prava/internal/common"
	"github.com/pliu/prava/internal/logging"
	"github.com/pliu/prava/internal/models"
	"github.com/pliu/prava/internal/store"
)

// ReactionTypes lists the accepted reaction kinds.
var ReactionTypes = []string{"like", "love", "haha", "wow", "sad", "angry"}

// ReactionResult reports what a toggle did. Reaction is nil when an
// existing reaction was removed.
type ReactionResult struct {
	Message  string           `json:"message,omitempty"`
	Reaction *models.Reaction `json:"reaction,omitempty"`
	Removed  bool             `json:"removed"`
}

type FeedService struct {
	store    store.Store
	notifier Notifier
	log      logging.Logger
	now      func() time.Time
}

func NewFeedService(s store.Store, n Notifier, log logging.Logger) *FeedService {
	return &FeedService{store: s, notifier: n, log: log, now: utcNow}
}

func (s *FeedService) CreatePost(ctx context.Context, authorID, content, imageURL string) (*models.Post, error) {
	author, err := s.store.GetUserByID(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("error loading author: %w", err)
	}

	post := &models.Post{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Content:   content,
		ImageURL:  imageURL,
		CreatedAt: s.now(),
		Author:    author.Summary(),
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}
	return post, nil
}

// GetFeed returns posts newest first.
func (s *FeedService) GetFeed(ctx context.Context, page, limit int) ([]models.Post, error) {
	limit, offset := pageWindow(page, limit, defaultPageSize)
	return s.store.ListPosts(ctx, limit, offset)
}

// GetPost returns the post with its comments (newest first) and reactions.
func (s *FeedService) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, notFound(err, "post not found")
	}
	if post.Comments, err = s.store.ListComments(ctx, postID); err != nil {
		return nil, err
	}
	if post.Reactions, err = s.store.ListReactions(ctx, postID); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *FeedService) DeletePost(ctx context.Context, userID, postID string) (*Message, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, notFound(err, "post not found")
	}
	if post.AuthorID != userID {
		return nil, common.ErrNotAuthor
	}

	if err := s.store.DeletePost(ctx, postID); err != nil {
		return nil, err
	}
	return &Message{Message: "Post deleted successfully"}, nil
}

func (s *FeedService) CreateComment(ctx context.Context, userID, postID, content string) (*models.Comment, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, notFound(err, "post not found")
	}
	author, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading author: %w", err)
	}

	comment := &models.Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		AuthorID:  userID,
		Content:   content,
		CreatedAt: s.now(),
		Author:    author.Summary(),
	}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("error creating comment: %w", err)
	}

	s.notifyAuthor(ctx, post, userID, NotificationComment, "New comment",
		fmt.Sprintf("%s commented on your post", author.Username),
		map[string]string{"postId": postID, "commentId": comment.ID})
	return comment, nil
}

// ToggleReaction adds the reaction, or removes it when the user already
// reacted to the post with the same type.
func (s *FeedService) ToggleReaction(ctx context.Context, userID, postID, reactionType string) (*ReactionResult, error) {
	if !lo.Contains(ReactionTypes, reactionType) {
		return nil, fmt.Errorf("%w: unknown reaction type %q", common.ErrInvalidInput, reactionType)
	}

	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, notFound(err, "post not found")
	}

	existing, err := s.store.FindReaction(ctx, postID, userID, reactionType)
	switch {
	case err == nil:
		if err := s.store.DeleteReaction(ctx, existing.ID); err != nil {
			return nil, err
		}
		return &ReactionResult{Message: "Reaction removed", Removed: true}, nil
	case !errors.Is(err, common.ErrNotFound):
		return nil, err
	}

	reaction := &models.Reaction{
		ID:        uuid.NewString(),
		PostID:    postID,
		UserID:    userID,
		Type:      reactionType,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateReaction(ctx, reaction); err != nil {
		return nil, fmt.Errorf("error creating reaction: %w", err)
	}

	s.notifyAuthor(ctx, post, userID, NotificationReaction, "New reaction",
		fmt.Sprintf("Someone reacted %s to your post", reactionType),
		map[string]string{"postId": postID, "reactionId": reaction.ID})
	return &ReactionResult{Reaction: reaction}, nil
}

// notifyAuthor tells the post's author about activity from actorID. Own
// activity and notification failures are ignored.
func (s *FeedService) notifyAuthor(ctx context.Context, post *models.Post, actorID, kind, title, body string, data any) {
	if post.AuthorID == actorID {
		return
	}
	if _, err := s.notifier.Create(ctx, post.AuthorID, kind, title, body, data); err != nil {
		s.log.Warn(ctx, "feed notification failed", "post_id", post.ID, "type", kind, "err", err)
	}
}

func notFound(err error, msg string) error {
	if errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("%w: %s", common.ErrNotFound, msg)
	}
	return err
}
