package models

import (
	"encoding/json"
	"time"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"displayName"`
	Bio          string    `json:"bio"`
	AvatarURL    string    `json:"avatarUrl"`
	IsVerified   bool      `json:"isVerified"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Summary is the public projection embedded in posts, messages and
// participant lists.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName, AvatarURL: u.AvatarURL}
}

// Public is the profile shown to other users. It leaves out the email.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Bio:         u.Bio,
		AvatarURL:   u.AvatarURL,
		IsVerified:  u.IsVerified,
		CreatedAt:   u.CreatedAt,
	}
}

type PublicProfile struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	Bio         string    `json:"bio"`
	AvatarURL   string    `json:"avatarUrl"`
	IsVerified  bool      `json:"isVerified"`
	CreatedAt   time.Time `json:"createdAt"`
}

type UserSummary struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

// ProfileUpdate carries the editable profile fields. Nil leaves a field as is.
type ProfileUpdate struct {
	DisplayName *string
	Bio         *string
	AvatarURL   *string
}

type OtpCode struct {
	ID        string    `json:"id"`
	Code      string    `json:"-"`
	Email     string    `json:"email"`
	UserID    string    `json:"userId"`
	Purpose   string    `json:"purpose"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

type RefreshToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

type Conversation struct {
	ID           string        `json:"id"`
	Name         string        `json:"name,omitempty"`
	IsGroup      bool          `json:"isGroup"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	Participants []Participant `json:"participants"`
	LastMessage  *Message      `json:"lastMessage,omitempty"`
	UnreadCount  int           `json:"unreadCount"`
}

// Participant links a user to a conversation. The user has read every
// message created at or before LastReadAt.
type Participant struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversationId"`
	UserID         string      `json:"userId"`
	JoinedAt       time.Time   `json:"joinedAt"`
	LastReadAt     time.Time   `json:"lastReadAt"`
	User           UserSummary `json:"user"`
}

type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversationId"`
	SenderID       string      `json:"senderId"`
	Content        string      `json:"content"`
	IsEncrypted    bool        `json:"isEncrypted"`
	CreatedAt      time.Time   `json:"createdAt"`
	Sender         UserSummary `json:"sender"`
}

type Post struct {
	ID            string      `json:"id"`
	AuthorID      string      `json:"authorId"`
	Content       string      `json:"content"`
	ImageURL      string      `json:"imageUrl,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	Author        UserSummary `json:"author"`
	CommentCount  int         `json:"commentCount"`
	ReactionCount int         `json:"reactionCount"`
	Comments      []Comment   `json:"comments,omitempty"`
	Reactions     []Reaction  `json:"reactions,omitempty"`
}

type Comment struct {
	ID        string      `json:"id"`
	PostID    string      `json:"postId"`
	AuthorID  string      `json:"authorId"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"createdAt"`
	Author    UserSummary `json:"author"`
}

type Reaction struct {
	ID        string      `json:"id"`
	PostID    string      `json:"postId"`
	UserID    string      `json:"userId"`
	Type      string      `json:"type"`
	CreatedAt time.Time   `json:"createdAt"`
	User      UserSummary `json:"user"`
}

// E2EEKey is a device public key. There is at most one per (user, device).
type E2EEKey struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	DeviceID  string    `json:"deviceId"`
	PublicKey string    `json:"publicKey"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type PushToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Token     string    `json:"token"`
	Platform  string    `json:"platform"`
	CreatedAt time.Time `json:"createdAt"`
}

type Notification struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Body      string          `json:"body"`
	Data      json.RawMessage `json:"data,omitempty"`
	IsRead    bool            `json:"isRead"`
	CreatedAt time.Time       `json:"createdAt"`
}
