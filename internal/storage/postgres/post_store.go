package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JakeFAU/linkboard/internal/post"
)

const postColumns = `id, title, link, author, created_at, votes`

// PostStore reads and writes the posts table.
type PostStore struct {
	db DB
}

// NewPostStore wraps db.
func NewPostStore(db DB) *PostStore {
	return &PostStore{db: db}
}

// Create inserts p.
func (s *PostStore) Create(ctx context.Context, p post.Post) (post.Post, error) {
	_, err := s.db.Exec(ctx,
		`INSERT INTO posts (`+postColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Title, p.Link, p.Author, p.CreatedAt, p.Votes,
	)
	if err != nil {
		return post.Post{}, fmt.Errorf("insert post: %w", err)
	}
	return p, nil
}

// List selects all posts newest first.
func (s *PostStore) List(ctx context.Context) ([]post.Post, error) {
	rows, err := s.db.Query(ctx, `SELECT `+postColumns+` FROM posts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	out := []post.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return out, nil
}

// Get selects one post.
func (s *PostStore) Get(ctx context.Context, id uuid.UUID) (post.Post, error) {
	p, err := scanPost(s.db.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return post.Post{}, post.ErrNotFound
	}
	return p, err
}

// IncrementVotes applies delta in a single UPDATE so concurrent votes never
// lose updates.
func (s *PostStore) IncrementVotes(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	var votes int64
	err := s.db.QueryRow(ctx,
		`UPDATE posts SET votes = votes + $1 WHERE id = $2 RETURNING votes`,
		delta, id,
	).Scan(&votes)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return 0, post.ErrNotFound
	case isOutOfRange(err):
		return 0, post.ErrVoteOverflow
	case err != nil:
		return 0, fmt.Errorf("increment votes: %w", err)
	}
	return votes, nil
}

func isOutOfRange(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == numericOutOfRange
}

func scanPost(row pgx.Row) (post.Post, error) {
	var p post.Post
	if err := row.Scan(&p.ID, &p.Title, &p.Link, &p.Author, &p.CreatedAt, &p.Votes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return post.Post{}, err
		}
		return post.Post{}, fmt.Errorf("scan post: %w", err)
	}
	return p, nil
}
