package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/pliu/prava/internal/common"
	"github.com/pliu/prava/internal/logging"
	"github.com/pliu/prava/internal/models"
	"github.com/pliu/prava/internal/store"
)

// ChatService owns conversations, messages and read state.
type ChatService struct {
	store       store.Store
	broadcaster Broadcaster
	notifier    Notifier
	log         logging.Logger
	now         func() time.Time
}

func NewChatService(s store.Store, b Broadcaster, n Notifier, log logging.Logger) *ChatService {
	return &ChatService{store: s, broadcaster: b, notifier: n, log: log, now: utcNow}
}

// CreateConversation starts a conversation between creatorID and
// participantIDs. It is a group when there is more than one other
// participant.
func (s *ChatService) CreateConversation(ctx context.Context, creatorID, name string, participantIDs []string) (*models.Conversation, error) {
	others := lo.Without(lo.Uniq(participantIDs), creatorID, "")
	if len(others) == 0 {
		return nil, fmt.Errorf("%w: at least one other participant is required", common.ErrInvalidInput)
	}

	creator, err := s.store.GetUserByID(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("error loading creator: %w", err)
	}
	for _, id := range others {
		if _, err := s.store.GetUserByID(ctx, id); err != nil {
			return nil, fmt.Errorf("participant %s: %w", id, err)
		}
	}

	now := s.now()
	conv := &models.Conversation{
		ID:        uuid.NewString(),
		Name:      name,
		IsGroup:   len(others) > 1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateConversation(ctx, conv, append([]string{creatorID}, others...)); err != nil {
		return nil, fmt.Errorf("error creating conversation: %w", err)
	}

	created, err := s.store.GetConversation(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading conversation: %w", err)
	}

	for _, id := range others {
		_, err := s.notifier.Create(ctx, id, NotificationNewChat, "New conversation",
			fmt.Sprintf("%s started a conversation with you", creator.Username),
			map[string]string{"conversationId": conv.ID})
		if err != nil {
			s.log.Warn(ctx, "new chat notification failed", "user_id", id, "err", err)
		}
	}
	return created, nil
}

func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	return s.store.ListConversations(ctx, userID)
}

// GetConversation returns common.ErrNotFound unless userID takes part in it.
func (s *ChatService) GetConversation(ctx context.Context, userID, conversationID string) (*models.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !lo.ContainsBy(conv.Participants, func(p models.Participant) bool { return p.UserID == userID }) {
		return nil, fmt.Errorf("%w: conversation not found", common.ErrNotFound)
	}
	return conv, nil
}

func (s *ChatService) requireParticipant(ctx context.Context, userID, conversationID string) error {
	ok, err := s.store.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrNotParticipant
	}
	return nil
}

// GetMessages returns page (1-based) of the conversation. The page holds the
// most recent messages not on earlier pages, ordered oldest first.
func (s *ChatService) GetMessages(ctx context.Context, userID, conversationID string, page, limit int) ([]models.Message, error) {
	if err := s.requireParticipant(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	limit, offset := pageWindow(page, limit, defaultMessagePage)
	messages, err := s.store.GetMessages(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	slices.Reverse(messages)
	return messages, nil
}

// SendMessage persists a message and fans it out to the conversation room.
// Non-participants get common.ErrNotParticipant and nothing is stored or sent.
func (s *ChatService) SendMessage(ctx context.Context, senderID, conversationID, content string, isEncrypted bool) (*models.Message, error) {
	if err := s.requireParticipant(ctx, senderID, conversationID); err != nil {
		return nil, err
	}

	sender, err := s.store.GetUserByID(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("error loading sender: %w", err)
	}

	msg := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		IsEncrypted:    isEncrypted,
		CreatedAt:      s.now(),
		Sender:         sender.Summary(),
	}
	if err := s.store.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("error saving message: %w", err)
	}

	s.broadcaster.BroadcastMessage(msg)
	return msg, nil
}

// MarkAsRead moves the caller's read marker to now.
func (s *ChatService) MarkAsRead(ctx context.Context, userID, conversationID string) (*Message, error) {
	if err := s.requireParticipant(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	if err := s.store.UpdateLastRead(ctx, conversationID, userID, s.now()); err != nil {
		return nil, err
	}
	return &Message{Message: "Marked as read"}, nil
}

func (s *ChatService) UnreadCount(ctx context.Context, userID, conversationID string) (int, error) {
	if err := s.requireParticipant(ctx, userID, conversationID); err != nil {
		return 0, err
	}
	return s.store.CountUnread(ctx, conversationID, userID)
}

// DeleteConversation removes a direct conversation. Groups cannot be deleted.
func (s *ChatService) DeleteConversation(ctx context.Context, userID, conversationID string) (*Message, error) {
	conv, err := s.GetConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.IsGroup {
		return nil, common.ErrGroupDelete
	}

	if err := s.store.DeleteConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	return &Message{Message: "Conversation deleted"}, nil
}
