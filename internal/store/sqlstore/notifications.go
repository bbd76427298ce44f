package sqlstore

import (
	"context"
	"encoding/json"

	"github.com/pliu/prava/internal/models"
)

func (s *SQLStore) GetPushToken(ctx context.Context, token string) (*models.PushToken, error) {
	query := s.rebind(`SELECT id, user_id, token, platform, created_at FROM push_tokens WHERE token = ?`)
	var t models.PushToken
	err := s.db.QueryRowContext(ctx, query, token).Scan(&t.ID, &t.UserID, &t.Token, &t.Platform, &t.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *SQLStore) CreatePushToken(ctx context.Context, token *models.PushToken) error {
	query := s.rebind(`INSERT INTO push_tokens (id, user_id, token, platform, created_at) VALUES (?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query, token.ID, token.UserID, token.Token, token.Platform, token.CreatedAt)
	return translate(err)
}

func (s *SQLStore) ReassignPushToken(ctx context.Context, token, userID, platform string) error {
	query := s.rebind(`UPDATE push_tokens SET user_id = ?, platform = ? WHERE token = ?`)
	res, err := s.db.ExecContext(ctx, query, userID, platform, token)
	if err != nil {
		return translate(err)
	}
	return mustAffect(res)
}

func (s *SQLStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	query := s.rebind(`
		INSERT INTO notifications (id, user_id, type, title, body, data, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query, n.ID, n.UserID, n.Type, n.Title, n.Body, string(n.Data), n.IsRead, n.CreatedAt)
	return translate(err)
}

func (s *SQLStore) ListNotifications(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error) {
	query := s.rebind(`
		SELECT id, user_id, type, title, body, data, is_read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`)
	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var data string
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &data, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, translate(err)
		}
		if data != "" {
			n.Data = json.RawMessage(data)
		}
		notifications = append(notifications, n)
	}
	return notifications, translate(rows.Err())
}

func (s *SQLStore) MarkNotificationRead(ctx context.Context, userID, id string) error {
	query := s.rebind(`UPDATE notifications SET is_read = ? WHERE id = ? AND user_id = ?`)
	_, err := s.db.ExecContext(ctx, query, true, id, userID)
	return translate(err)
}

func (s *SQLStore) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	query := s.rebind(`UPDATE notifications SET is_read = ? WHERE user_id = ? AND is_read = ?`)
	_, err := s.db.ExecContext(ctx, query, true, userID, false)
	return translate(err)
}
