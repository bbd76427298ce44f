package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pliu/prava/internal/common"
	"github.com/pliu/prava/internal/models"
)

func TestCreateUser_Duplicate_Email_Conflicts(t *testing.T) {
	s := newTestStore(t)
	u := seedUser(t, s, "alice")

	dup := *u
	dup.ID = "other"
	dup.Username = "alice2"
	err := s.CreateUser(context.Background(), &dup)

	require.ErrorIs(t, err, common.ErrConflict)
}

func TestGetUser_Lookups(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "alice")

	byID, err := s.GetUserByID(ctx, u.ID)
	req.NoError(err)
	req.Equal(u.Email, byID.Email)
	req.True(t0.Equal(byID.CreatedAt))

	byEmail, err := s.GetUserByEmail(ctx, u.Email)
	req.NoError(err)
	req.Equal(u.ID, byEmail.ID)

	byName, err := s.GetUserByUsername(ctx, "alice")
	req.NoError(err)
	req.Equal(u.ID, byName.ID)

	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	req.ErrorIs(err, common.ErrNotFound)
}

func TestUpdateProfile_Leaves_Nil_Fields(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	u := seedUser(t, s, "alice")
	bio := "hello"
	later := t0.Add(time.Hour)

	updated, err := s.UpdateProfile(context.Background(), u.ID, models.ProfileUpdate{Bio: &bio}, later)

	req.NoError(err)
	req.Equal("hello", updated.Bio)
	req.Equal("alice", updated.DisplayName)
	req.True(later.Equal(updated.UpdatedAt))

	_, err = s.UpdateProfile(context.Background(), "missing", models.ProfileUpdate{Bio: &bio}, later)
	req.ErrorIs(err, common.ErrNotFound)
}

func TestSetVerified(t *testing.T) {
	s := newTestStore(t)
	u := seedUser(t, s, "alice")

	require.NoError(t, s.SetVerified(context.Background(), u.ID))

	got, err := s.GetUserByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.True(t, got.IsVerified)
}

func TestSearchUsers_Is_Case_Insensitive(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	seedUser(t, s, "alice")
	seedUser(t, s, "Alicia")
	seedUser(t, s, "bob")

	found, err := s.SearchUsers(context.Background(), "ALI", 20)
	req.NoError(err)
	req.Len(found, 2)

	found, err = s.SearchUsers(context.Background(), "ali", 1)
	req.NoError(err)
	req.Len(found, 1)
}

func TestOTP_Expiry_And_Deletion(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "alice")

	otp := &models.OtpCode{ID: "otp-1", Code: "123456", Email: u.Email, UserID: u.ID, Purpose: "verify", ExpiresAt: t0.Add(10 * time.Minute), CreatedAt: t0}
	req.NoError(s.CreateOTP(ctx, otp))

	found, err := s.FindValidOTP(ctx, u.Email, "123456", t0.Add(time.Minute))
	req.NoError(err)
	req.Equal("otp-1", found.ID)

	_, err = s.FindValidOTP(ctx, u.Email, "123456", t0.Add(11*time.Minute))
	req.ErrorIs(err, common.ErrNotFound)

	_, err = s.FindValidOTP(ctx, u.Email, "000000", t0)
	req.ErrorIs(err, common.ErrNotFound)

	req.NoError(s.DeleteOTPsByEmail(ctx, u.Email))
	_, err = s.FindValidOTP(ctx, u.Email, "123456", t0)
	req.ErrorIs(err, common.ErrNotFound)
}

func TestRotateRefreshToken(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "alice")

	req.NoError(s.CreateRefreshToken(ctx, &models.RefreshToken{Token: "old", UserID: u.ID, ExpiresAt: t0.Add(time.Hour)}))

	// When the token is rotated the old value is gone
	req.NoError(s.RotateRefreshToken(ctx, "old", &models.RefreshToken{Token: "new", UserID: u.ID, ExpiresAt: t0.Add(2 * time.Hour)}))
	_, err := s.GetRefreshToken(ctx, "old")
	req.ErrorIs(err, common.ErrNotFound)

	got, err := s.GetRefreshToken(ctx, "new")
	req.NoError(err)
	req.Equal(u.ID, got.UserID)

	// And rotating it again fails without storing anything
	err = s.RotateRefreshToken(ctx, "old", &models.RefreshToken{Token: "newer", UserID: u.ID, ExpiresAt: t0})
	req.ErrorIs(err, common.ErrNotFound)
	_, err = s.GetRefreshToken(ctx, "newer")
	req.ErrorIs(err, common.ErrNotFound)
}
