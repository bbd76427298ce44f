package sqlstore

import (
	"context"

	"github.com/pliu/prava/internal/models"
)

func (s *SQLStore) UpsertKey(ctx context.Context, key *models.E2EEKey) (*models.E2EEKey, error) {
	query := s.rebind(`
		INSERT INTO e2ee_keys (id, user_id, device_id, public_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, device_id)
		DO UPDATE SET public_key = excluded.public_key, updated_at = excluded.updated_at`)
	_, err := s.db.ExecContext(ctx, query, key.ID, key.UserID, key.DeviceID, key.PublicKey, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}

	query = s.rebind(`SELECT id, user_id, device_id, public_key, created_at, updated_at FROM e2ee_keys WHERE user_id = ? AND device_id = ?`)
	var k models.E2EEKey
	err = s.db.QueryRowContext(ctx, query, key.UserID, key.DeviceID).
		Scan(&k.ID, &k.UserID, &k.DeviceID, &k.PublicKey, &k.CreatedAt, &k.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &k, nil
}

func (s *SQLStore) ListKeys(ctx context.Context, userID string) ([]models.E2EEKey, error) {
	query := s.rebind(`
		SELECT id, user_id, device_id, public_key, created_at, updated_at
		FROM e2ee_keys
		WHERE user_id = ?
		ORDER BY created_at, device_id`)
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	keys := []models.E2EEKey{}
	for rows.Next() {
		var k models.E2EEKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.DeviceID, &k.PublicKey, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, translate(err)
		}
		keys = append(keys, k)
	}
	return keys, translate(rows.Err())
}

func (s *SQLStore) DeleteKey(ctx context.Context, userID, deviceID string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM e2ee_keys WHERE user_id = ? AND device_id = ?`), userID, deviceID)
	return translate(err)
}
