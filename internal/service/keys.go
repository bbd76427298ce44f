package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/pliu/prava/internal/models"
	"github.com/pliu/prava/internal/store"
)

// KeyService is the registry of device public keys used for end-to-end
// encrypted messages.
type KeyService struct {
	store store.KeyStore
	now   func() time.Time
}

func NewKeyService(s store.KeyStore) *KeyService {
	return &KeyService{store: s, now: utcNow}
}

// RegisterKey stores the device's public key, replacing an earlier one for
// the same device.
func (s *KeyService) RegisterKey(ctx context.Context, userID, deviceID, publicKey string) (*models.E2EEKey, error) {
	now := s.now()
	return s.store.UpsertKey(ctx, &models.E2EEKey{
		ID:        uuid.NewString(),
		UserID:    userID,
		DeviceID:  deviceID,
		PublicKey: publicKey,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *KeyService) MyKeys(ctx context.Context, userID string) ([]models.E2EEKey, error) {
	return s.store.ListKeys(ctx, userID)
}

// UserKeys returns another user's keys without the owner field.
func (s *KeyService) UserKeys(ctx context.Context, targetID string) ([]models.E2EEKey, error) {
	keys, err := s.store.ListKeys(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return lo.Map(keys, func(k models.E2EEKey, _ int) models.E2EEKey {
		k.UserID = ""
		return k
	}), nil
}

func (s *KeyService) DeleteKey(ctx context.Context, userID, deviceID string) (*Message, error) {
	if err := s.store.DeleteKey(ctx, userID, deviceID); err != nil {
		return nil, err
	}
	return &Message{Message: "Key deleted successfully"}, nil
}
