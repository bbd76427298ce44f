package sqlstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pliu/prava/internal/dbx"
	"github.com/pliu/prava/internal/models"
)

func (s *SQLStore) CreateConversation(ctx context.Context, conv *models.Conversation, userIDs []string) error {
	return s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		query := s.rebind(`INSERT INTO conversations (id, name, is_group, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`)
		if _, err := tx.ExecContext(ctx, query, conv.ID, conv.Name, conv.IsGroup, conv.CreatedAt, conv.UpdatedAt); err != nil {
			return translate(err)
		}

		query = s.rebind(`
			INSERT INTO conversation_participants (id, conversation_id, user_id, joined_at, last_read_at)
			VALUES (?, ?, ?, ?, ?)`)
		for _, userID := range userIDs {
			if _, err := tx.ExecContext(ctx, query, uuid.NewString(), conv.ID, userID, conv.CreatedAt, conv.CreatedAt); err != nil {
				return translate(err)
			}
		}
		return nil
	})
}

func (s *SQLStore) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	query := s.rebind(`SELECT id, name, is_group, created_at, updated_at FROM conversations WHERE id = ?`)
	var c models.Conversation
	err := s.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.IsGroup, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}

	c.Participants, err = s.participants(ctx, id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLStore) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	query := s.rebind(`
		SELECT c.id, c.name, c.is_group, c.created_at, c.updated_at
		FROM conversations c
		JOIN conversation_participants p ON p.conversation_id = c.id
		WHERE p.user_id = ?
		ORDER BY c.updated_at DESC`)
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, translate(err)
	}

	conversations := []models.Conversation{}
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(&c.ID, &c.Name, &c.IsGroup, &c.CreatedAt, &c.UpdatedAt); err != nil {
			rows.Close()
			return nil, translate(err)
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, translate(err)
	}
	// The sqlite pool holds a single connection; release it before the
	// per-conversation lookups below.
	rows.Close()

	for i := range conversations {
		c := &conversations[i]
		if c.Participants, err = s.participants(ctx, c.ID); err != nil {
			return nil, err
		}

		last, err := s.GetMessages(ctx, c.ID, 1, 0)
		if err != nil {
			return nil, err
		}
		if len(last) == 1 {
			c.LastMessage = &last[0]
		}

		if c.UnreadCount, err = s.CountUnread(ctx, c.ID, userID); err != nil {
			return nil, err
		}
	}
	return conversations, nil
}

func (s *SQLStore) participants(ctx context.Context, conversationID string) ([]models.Participant, error) {
	query := s.rebind(`
		SELECT p.id, p.conversation_id, p.user_id, p.joined_at, p.last_read_at,
		       u.id, u.username, u.display_name, u.avatar_url
		FROM conversation_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.conversation_id = ?
		ORDER BY p.joined_at, u.username`)
	rows, err := s.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	participants := []models.Participant{}
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.ConversationID, &p.UserID, &p.JoinedAt, &p.LastReadAt,
			&p.User.ID, &p.User.Username, &p.User.DisplayName, &p.User.AvatarURL); err != nil {
			return nil, translate(err)
		}
		participants = append(participants, p)
	}
	return participants, translate(rows.Err())
}

func (s *SQLStore) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	var exists bool
	query := s.rebind(`SELECT EXISTS(SELECT 1 FROM conversation_participants WHERE conversation_id = ? AND user_id = ?)`)
	err := s.db.QueryRowContext(ctx, query, conversationID, userID).Scan(&exists)
	if err != nil {
		return false, translate(err)
	}
	return exists, nil
}

func (s *SQLStore) SaveMessage(ctx context.Context, msg *models.Message) error {
	return s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		query := s.rebind(`
			INSERT INTO messages (id, conversation_id, sender_id, content, is_encrypted, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if _, err := tx.ExecContext(ctx, query, msg.ID, msg.ConversationID, msg.SenderID, msg.Content, msg.IsEncrypted, msg.CreatedAt); err != nil {
			return translate(err)
		}

		query = s.rebind(`UPDATE conversations SET updated_at = ? WHERE id = ?`)
		res, err := tx.ExecContext(ctx, query, msg.CreatedAt, msg.ConversationID)
		if err != nil {
			return translate(err)
		}
		return mustAffect(res)
	})
}

func (s *SQLStore) GetMessages(ctx context.Context, conversationID string, limit, offset int) ([]models.Message, error) {
	query := s.rebind(`
		SELECT m.id, m.conversation_id, m.sender_id, m.content, m.is_encrypted, m.created_at,
		       u.id, u.username, u.display_name, u.avatar_url
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.conversation_id = ?
		ORDER BY m.created_at DESC
		LIMIT ? OFFSET ?`)
	rows, err := s.db.QueryContext(ctx, query, conversationID, limit, offset)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.IsEncrypted, &m.CreatedAt,
			&m.Sender.ID, &m.Sender.Username, &m.Sender.DisplayName, &m.Sender.AvatarURL); err != nil {
			return nil, translate(err)
		}
		messages = append(messages, m)
	}
	return messages, translate(rows.Err())
}

func (s *SQLStore) UpdateLastRead(ctx context.Context, conversationID, userID string, at time.Time) error {
	query := s.rebind(`UPDATE conversation_participants SET last_read_at = ? WHERE conversation_id = ? AND user_id = ?`)
	res, err := s.db.ExecContext(ctx, query, at, conversationID, userID)
	if err != nil {
		return translate(err)
	}
	return mustAffect(res)
}

// CountUnread counts messages created after the participant's last_read_at.
func (s *SQLStore) CountUnread(ctx context.Context, conversationID, userID string) (int, error) {
	query := s.rebind(`
		SELECT COUNT(m.id)
		FROM conversation_participants p
		LEFT JOIN messages m ON m.conversation_id = p.conversation_id AND m.created_at > p.last_read_at
		WHERE p.conversation_id = ? AND p.user_id = ?
		GROUP BY p.id`)
	var n int
	if err := s.db.QueryRowContext(ctx, query, conversationID, userID).Scan(&n); err != nil {
		return 0, translate(err)
	}
	return n, nil
}

func (s *SQLStore) DeleteConversation(ctx context.Context, id string) error {
	return s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM messages WHERE conversation_id = ?`), id); err != nil {
			return translate(err)
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM conversation_participants WHERE conversation_id = ?`), id); err != nil {
			return translate(err)
		}
		res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM conversations WHERE id = ?`), id)
		if err != nil {
			return translate(err)
		}
		return mustAffect(res)
	})
}
