package sqlstore

import (
	"context"
	"strings"
	"time"

	"github.com/pliu/prava/internal/models"
)

const userColumns = `id, email, username, password_hash, display_name, bio, avatar_url, is_verified, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.DisplayName, &u.Bio, &u.AvatarURL, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *SQLStore) CreateUser(ctx context.Context, user *models.User) error {
	query := s.rebind(`INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query, user.ID, user.Email, user.Username, user.PasswordHash,
		user.DisplayName, user.Bio, user.AvatarURL, user.IsVerified, user.CreatedAt, user.UpdatedAt)
	return translate(err)
}

func (s *SQLStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := s.rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	return scanUser(s.db.QueryRowContext(ctx, query, id))
}

func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := s.rebind(`SELECT ` + userColumns + ` FROM users WHERE email = ?`)
	return scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := s.rebind(`SELECT ` + userColumns + ` FROM users WHERE username = ?`)
	return scanUser(s.db.QueryRowContext(ctx, query, username))
}

func (s *SQLStore) UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate, at time.Time) (*models.User, error) {
	query := s.rebind(`
		UPDATE users
		SET display_name = COALESCE(?, display_name),
		    bio = COALESCE(?, bio),
		    avatar_url = COALESCE(?, avatar_url),
		    updated_at = ?
		WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query, update.DisplayName, update.Bio, update.AvatarURL, at, id)
	if err != nil {
		return nil, translate(err)
	}
	if err := mustAffect(res); err != nil {
		return nil, err
	}
	return s.GetUserByID(ctx, id)
}

func (s *SQLStore) SetVerified(ctx context.Context, id string) error {
	query := s.rebind(`UPDATE users SET is_verified = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query, true, id)
	if err != nil {
		return translate(err)
	}
	return mustAffect(res)
}

// SearchUsers matches query case-insensitively anywhere in the username or
// display name.
func (s *SQLStore) SearchUsers(ctx context.Context, queryStr string, limit int) ([]models.UserSummary, error) {
	pattern := "%" + strings.ToLower(queryStr) + "%"
	query := s.rebind(`
		SELECT id, username, display_name, avatar_url
		FROM users
		WHERE LOWER(username) LIKE ? OR LOWER(display_name) LIKE ?
		ORDER BY username
		LIMIT ?`)
	rows, err := s.db.QueryContext(ctx, query, pattern, pattern, limit)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	users := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.AvatarURL); err != nil {
			return nil, translate(err)
		}
		users = append(users, u)
	}
	return users, translate(rows.Err())
}
