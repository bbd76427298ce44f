package sqlstore

import (
	"context"

	"github.com/pliu/prava/internal/dbx"
	"github.com/pliu/prava/internal/models"
)

const postSelect = `
	SELECT p.id, p.author_id, p.content, p.image_url, p.created_at,
	       u.id, u.username, u.display_name, u.avatar_url,
	       (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id),
	       (SELECT COUNT(*) FROM reactions r WHERE r.post_id = p.id)
	FROM posts p
	JOIN users u ON u.id = p.author_id`

func scanPost(row rowScanner) (*models.Post, error) {
	var p models.Post
	err := row.Scan(&p.ID, &p.AuthorID, &p.Content, &p.ImageURL, &p.CreatedAt,
		&p.Author.ID, &p.Author.Username, &p.Author.DisplayName, &p.Author.AvatarURL,
		&p.CommentCount, &p.ReactionCount)
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *SQLStore) CreatePost(ctx context.Context, post *models.Post) error {
	query := s.rebind(`INSERT INTO posts (id, author_id, content, image_url, created_at) VALUES (?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query, post.ID, post.AuthorID, post.Content, post.ImageURL, post.CreatedAt)
	return translate(err)
}

func (s *SQLStore) ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error) {
	query := s.rebind(postSelect + ` ORDER BY p.created_at DESC LIMIT ? OFFSET ?`)
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, translate(rows.Err())
}

func (s *SQLStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	query := s.rebind(postSelect + ` WHERE p.id = ?`)
	return scanPost(s.db.QueryRowContext(ctx, query, id))
}

func (s *SQLStore) DeletePost(ctx context.Context, id string) error {
	return s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM reactions WHERE post_id = ?`), id); err != nil {
			return translate(err)
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM comments WHERE post_id = ?`), id); err != nil {
			return translate(err)
		}
		res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM posts WHERE id = ?`), id)
		if err != nil {
			return translate(err)
		}
		return mustAffect(res)
	})
}

func (s *SQLStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	query := s.rebind(`INSERT INTO comments (id, post_id, author_id, content, created_at) VALUES (?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query, comment.ID, comment.PostID, comment.AuthorID, comment.Content, comment.CreatedAt)
	return translate(err)
}

// ListComments returns the comments of a post, newest first.
func (s *SQLStore) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	query := s.rebind(`
		SELECT c.id, c.post_id, c.author_id, c.content, c.created_at,
		       u.id, u.username, u.display_name, u.avatar_url
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = ?
		ORDER BY c.created_at DESC`)
	rows, err := s.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.CreatedAt,
			&c.Author.ID, &c.Author.Username, &c.Author.DisplayName, &c.Author.AvatarURL); err != nil {
			return nil, translate(err)
		}
		comments = append(comments, c)
	}
	return comments, translate(rows.Err())
}

func (s *SQLStore) FindReaction(ctx context.Context, postID, userID, reactionType string) (*models.Reaction, error) {
	query := s.rebind(`SELECT id, post_id, user_id, type, created_at FROM reactions WHERE post_id = ? AND user_id = ? AND type = ?`)
	var r models.Reaction
	err := s.db.QueryRowContext(ctx, query, postID, userID, reactionType).Scan(&r.ID, &r.PostID, &r.UserID, &r.Type, &r.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *SQLStore) CreateReaction(ctx context.Context, reaction *models.Reaction) error {
	query := s.rebind(`INSERT INTO reactions (id, post_id, user_id, type, created_at) VALUES (?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query, reaction.ID, reaction.PostID, reaction.UserID, reaction.Type, reaction.CreatedAt)
	return translate(err)
}

func (s *SQLStore) DeleteReaction(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM reactions WHERE id = ?`), id)
	if err != nil {
		return translate(err)
	}
	return mustAffect(res)
}

func (s *SQLStore) ListReactions(ctx context.Context, postID string) ([]models.Reaction, error) {
	query := s.rebind(`
		SELECT r.id, r.post_id, r.user_id, r.type, r.created_at,
		       u.id, u.username, u.display_name, u.avatar_url
		FROM reactions r
		JOIN users u ON u.id = r.user_id
		WHERE r.post_id = ?
		ORDER BY r.created_at`)
	rows, err := s.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	reactions := []models.Reaction{}
	for rows.Next() {
		var r models.Reaction
		if err := rows.Scan(&r.ID, &r.PostID, &r.UserID, &r.Type, &r.CreatedAt,
			&r.User.ID, &r.User.Username, &r.User.DisplayName, &r.User.AvatarURL); err != nil {
			return nil, translate(err)
		}
		reactions = append(reactions, r)
	}
	return reactions, translate(rows.Err())
}
