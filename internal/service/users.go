package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pliu/prava/internal/common"
	"github.com/pliu/prava/internal/models"
	"github.com/pliu/prava/internal/store"
)

type UserService struct {
	store store.UserStore
	now   func() time.Time
}

func NewUserService(s store.UserStore) *UserService {
	return &UserService{store: s, now: utcNow}
}

func (s *UserService) CheckUsername(ctx context.Context, username string) (bool, error) {
	_, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, common.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("error searching user: %w", err)
	}
	return false, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.store.GetUserByID(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) (*models.User, error) {
	return s.store.UpdateProfile(ctx, userID, update, s.now())
}

// Search matches q against usernames and display names.
func (s *UserService) Search(ctx context.Context, q string, limit int) ([]models.UserSummary, error) {
	limit, _ = pageWindow(1, limit, defaultPageSize)
	return s.store.SearchUsers(ctx, q, limit)
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.PublicProfile, error) {
	u, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p := u.Public()
	return &p, nil
}
