package service

import (
	"context"
	"encoding/json"
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

const (
	NotificationNewChat  = "new_chat"
	NotificationComment  = "comment"
	NotificationReaction = "reaction"
)

var pushPlatforms = []string{"ios", "android", "web"}

// Notifier creates notifications on behalf of other services.
type Notifier interface {
	Create(ctx context.Context, userID, kind, title, body string, data any) (*models.Notification, error)
}

type NotificationService struct {
	store       store.NotificationStore
	broadcaster Broadcaster
	log         logging.Logger
	now         func() time.Time
}

func NewNotificationService(s store.NotificationStore, b Broadcaster, log logging.Logger) *NotificationService {
	return &NotificationService{store: s, broadcaster: b, log: log, now: utcNow}
}

// RegisterPushToken stores token for userID. A token already known is
// reassigned to userID.
func (s *NotificationService) RegisterPushToken(ctx context.Context, userID, token, platform string) (*models.PushToken, error) {
	if !lo.Contains(pushPlatforms, platform) {
		return nil, fmt.Errorf("%w: unsupported platform %q", common.ErrInvalidInput, platform)
	}

	existing, err := s.store.GetPushToken(ctx, token)
	switch {
	case err == nil:
		if existing.UserID != userID || existing.Platform != platform {
			if err := s.store.ReassignPushToken(ctx, token, userID, platform); err != nil {
				return nil, fmt.Errorf("error reassigning push token: %w", err)
			}
			existing.UserID, existing.Platform = userID, platform
		}
		return existing, nil
	case !errors.Is(err, common.ErrNotFound):
		return nil, fmt.Errorf("error searching push token: %w", err)
	}

	pt := &models.PushToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     token,
		Platform:  platform,
		CreatedAt: s.now(),
	}
	if err := s.store.CreatePushToken(ctx, pt); err != nil {
		return nil, fmt.Errorf("error creating push token: %w", err)
	}
	return pt, nil
}

func (s *NotificationService) List(ctx context.Context, userID string, page, limit int) ([]models.Notification, error) {
	limit, offset := pageWindow(page, limit, defaultPageSize)
	return s.store.ListNotifications(ctx, userID, limit, offset)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, userID, id string) (*Message, error) {
	if err := s.store.MarkNotificationRead(ctx, userID, id); err != nil {
		return nil, err
	}
	return &Message{Message: "Notification marked as read"}, nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) (*Message, error) {
	if err := s.store.MarkAllNotificationsRead(ctx, userID); err != nil {
		return nil, err
	}
	return &Message{Message: "All notifications marked as read"}, nil
}

// Create persists a notification and pushes it to the user's live
// connections. data may be nil.
func (s *NotificationService) Create(ctx context.Context, userID, kind, title, body string, data any) (*models.Notification, error) {
	n := &models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Body:      body,
		CreatedAt: s.now(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("%w: notification data: %v", common.ErrInvalidInput, err)
		}
		n.Data = raw
	}

	if err := s.store.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("error creating notification: %w", err)
	}

	s.broadcaster.NotifyUser(userID, n)
	s.log.Debug(ctx, "notification created", "notification_id", n.ID, "user_id", userID, "type", kind)
	return n, nil
}
