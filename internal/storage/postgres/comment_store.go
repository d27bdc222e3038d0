package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/JakeFAU/linkboard/internal/comment"
)

const commentColumns = `id, post_id, name, email, body, created_at`

// CommentStore reads and writes the comments table.
type CommentStore struct {
	db DB
}

// NewCommentStore wraps db.
func NewCommentStore(db DB) *CommentStore {
	return &CommentStore{db: db}
}

// Create inserts c and returns the row as stored.
func (s *CommentStore) Create(ctx context.Context, c comment.Comment) (comment.Comment, error) {
	row := s.db.QueryRow(ctx,
		`INSERT INTO comments (`+commentColumns+`) VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+commentColumns,
		c.ID, c.PostID, c.Name, c.Email, c.Body, c.CreatedAt,
	)
	saved, err := scanComment(row)
	if err != nil {
		return comment.Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	return saved, nil
}

// ListByPost selects the post's comments in insertion order.
func (s *CommentStore) ListByPost(ctx context.Context, postID string) ([]comment.Comment, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE post_id = $1 ORDER BY seq`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	out := []comment.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return out, nil
}

// Get selects one comment.
func (s *CommentStore) Get(ctx context.Context, id uuid.UUID) (comment.Comment, error) {
	row := s.db.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id)
	c, err := scanComment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return comment.Comment{}, comment.ErrNotFound
	}
	return c, err
}

func scanComment(row pgx.Row) (comment.Comment, error) {
	var c comment.Comment
	if err := row.Scan(&c.ID, &c.PostID, &c.Name, &c.Email, &c.Body, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return comment.Comment{}, err
		}
		return comment.Comment{}, fmt.Errorf("scan comment: %w", err)
	}
	return c, nil
}
