package store

import (
	"context"
	"time"

	"github.com/pliu/prava/internal/models"
)

// Implementations return common.ErrNotFound for missing rows and
// common.ErrConflict for unique-constraint violations.

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate, at time.Time) (*models.User, error)
	SetVerified(ctx context.Context, id string) error
	SearchUsers(ctx context.Context, query string, limit int) ([]models.UserSummary, error)
}

type AuthStore interface {
	CreateOTP(ctx context.Context, otp *models.OtpCode) error
	// FindValidOTP returns a code for email that has not expired at now.
	FindValidOTP(ctx context.Context, email, code string, now time.Time) (*models.OtpCode, error)
	DeleteOTP(ctx context.Context, id string) error
	DeleteOTPsByEmail(ctx context.Context, email string) error

	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	// RotateRefreshToken deletes old and stores next atomically.
	RotateRefreshToken(ctx context.Context, old string, next *models.RefreshToken) error
}

type ChatStore interface {
	// CreateConversation stores conv and one participant row per user id,
	// joined (and read) at conv.CreatedAt.
	CreateConversation(ctx context.Context, conv *models.Conversation, userIDs []string) error
	// GetConversation returns the conversation with its participants.
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	// ListConversations returns the conversations userID takes part in, most
	// recently updated first, with participants, last message and unread count.
	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
	// SaveMessage stores msg and moves the conversation's updated_at to
	// msg.CreatedAt.
	SaveMessage(ctx context.Context, msg *models.Message) error
	// GetMessages returns a page of messages, newest first.
	GetMessages(ctx context.Context, conversationID string, limit, offset int) ([]models.Message, error)
	UpdateLastRead(ctx context.Context, conversationID, userID string, at time.Time) error
	CountUnread(ctx context.Context, conversationID, userID string) (int, error)
	// DeleteConversation removes the conversation, its participants and messages.
	DeleteConversation(ctx context.Context, id string) error
}

type FeedStore interface {
	CreatePost(ctx context.Context, post *models.Post) error
	// ListPosts returns a page of posts, newest first, with counts.
	ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error)
	GetPost(ctx context.Context, id string) (*models.Post, error)
	// DeletePost removes the post with its comments and reactions.
	DeletePost(ctx context.Context, id string) error
	CreateComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, postID string) ([]models.Comment, error)
	FindReaction(ctx context.Context, postID, userID, reactionType string) (*models.Reaction, error)
	CreateReaction(ctx context.Context, reaction *models.Reaction) error
	DeleteReaction(ctx context.Context, id string) error
	ListReactions(ctx context.Context, postID string) ([]models.Reaction, error)
}

type KeyStore interface {
	// UpsertKey creates the key or overwrites the public key of the existing
	// (user, device) row in place.
	UpsertKey(ctx context.Context, key *models.E2EEKey) (*models.E2EEKey, error)
	ListKeys(ctx context.Context, userID string) ([]models.E2EEKey, error)
	DeleteKey(ctx context.Context, userID, deviceID string) error
}

type NotificationStore interface {
	GetPushToken(ctx context.Context, token string) (*models.PushToken, error)
	CreatePushToken(ctx context.Context, token *models.PushToken) error
	ReassignPushToken(ctx context.Context, token, userID, platform string) error

	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error
}

type Store interface {
	UserStore
	AuthStore
	ChatStore
	FeedStore
	KeyStore
	NotificationStore

	Close() error
}
