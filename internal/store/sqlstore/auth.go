package sqlstore

import (
	"context"
	"time"

	"github.com/pliu/prava/internal/dbx"
	"github.com/pliu/prava/internal/models"
)

func (s *SQLStore) CreateOTP(ctx context.Context, otp *models.OtpCode) error {
	query := s.rebind(`INSERT INTO otp_codes (id, code, email, user_id, purpose, expires_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query, otp.ID, otp.Code, otp.Email, otp.UserID, otp.Purpose, otp.ExpiresAt, otp.CreatedAt)
	return translate(err)
}

func (s *SQLStore) FindValidOTP(ctx context.Context, email, code string, now time.Time) (*models.OtpCode, error) {
	query := s.rebind(`
		SELECT id, code, email, user_id, purpose, expires_at, created_at
		FROM otp_codes
		WHERE email = ? AND code = ? AND expires_at >= ?
		ORDER BY created_at DESC
		LIMIT 1`)
	var otp models.OtpCode
	err := s.db.QueryRowContext(ctx, query, email, code, now).
		Scan(&otp.ID, &otp.Code, &otp.Email, &otp.UserID, &otp.Purpose, &otp.ExpiresAt, &otp.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &otp, nil
}

func (s *SQLStore) DeleteOTP(ctx context.Context, id string) error {
	query := s.rebind(`DELETE FROM otp_codes WHERE id = ?`)
	_, err := s.db.ExecContext(ctx, query, id)
	return translate(err)
}

func (s *SQLStore) DeleteOTPsByEmail(ctx context.Context, email string) error {
	query := s.rebind(`DELETE FROM otp_codes WHERE email = ?`)
	_, err := s.db.ExecContext(ctx, query, email)
	return translate(err)
}

func (s *SQLStore) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	return s.createRefreshToken(ctx, s.db, token)
}

func (s *SQLStore) createRefreshToken(ctx context.Context, db dbx.DBTX, token *models.RefreshToken) error {
	query := s.rebind(`INSERT INTO refresh_tokens (token, user_id, expires_at) VALUES (?, ?, ?)`)
	_, err := db.ExecContext(ctx, query, token.Token, token.UserID, token.ExpiresAt)
	return translate(err)
}

func (s *SQLStore) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := s.rebind(`SELECT token, user_id, expires_at FROM refresh_tokens WHERE token = ?`)
	var t models.RefreshToken
	if err := s.db.QueryRowContext(ctx, query, token).Scan(&t.Token, &t.UserID, &t.ExpiresAt); err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *SQLStore) RotateRefreshToken(ctx context.Context, old string, next *models.RefreshToken) error {
	return s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM refresh_tokens WHERE token = ?`), old)
		if err != nil {
			return translate(err)
		}
		if err := mustAffect(res); err != nil {
			return err
		}
		return s.createRefreshToken(ctx, tx, next)
	})
}
