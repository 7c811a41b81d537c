package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/postpilot/postpilot-server/internal/model"
)

var _ model.PostStore = (*PostRepository)(nil)

type PostRepository struct {
	db *Connection
}

func NewPostRepository(db *Connection) *PostRepository {
	return &PostRepository{
		db: db,
	}
}

const postColumns = `id, account_pubkey, author_pubkey, status, scheduled_at, relays,
		       publish_attempted_at, publish_error, raw_event, created_at, updated_at`

func scanPost(row pgx.Row) (model.Post, error) {
	var post model.Post
	err := row.Scan(
		&post.ID, &post.AccountPubkey, &post.AuthorPubkey, &post.Status,
		&post.ScheduledAt, &post.Relays, &post.PublishAttemptedAt,
		&post.PublishError, &post.RawEvent, &post.CreatedAt, &post.UpdatedAt,
	)
	return post, err
}

func (r *PostRepository) Create(ctx context.Context, post model.Post) (model.Post, error) {
	query := `
		INSERT INTO posts (id, account_pubkey, author_pubkey, status, scheduled_at, relays, raw_event)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + postColumns

	saved, err := scanPost(r.db.QueryRow(ctx, query,
		post.ID, post.AccountPubkey, post.AuthorPubkey, string(post.Status),
		post.ScheduledAt, post.Relays, post.RawEvent,
	))
	if err != nil {
		return model.Post{}, err
	}

	return saved, nil
}

func (r *PostRepository) GetByIDForOwner(ctx context.Context, id uuid.UUID, owner string) (model.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE id = $1 AND account_pubkey = $2`

	post, err := scanPost(r.db.QueryRow(ctx, query, id, owner))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Post{}, model.ErrNotFound
		}
		return model.Post{}, err
	}

	return post, nil
}

func (r *PostRepository) ListByOwner(ctx context.Context, owner string, filter model.PostFilter) ([]model.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE account_pubkey = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.db.Query(ctx, query, owner, string(filter.Status), filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

func (r *PostRepository) UpdateStatus(ctx context.Context, id uuid.UUID, owner string, params model.UpdatePostStatusParams) (model.Post, error) {
	query := `
		UPDATE posts
		SET status = $3,
		    publish_error = COALESCE($4, publish_error),
		    publish_attempted_at = COALESCE($5, publish_attempted_at),
		    updated_at = NOW()
		WHERE id = $1 AND account_pubkey = $2
		RETURNING ` + postColumns

	post, err := scanPost(r.db.QueryRow(ctx, query,
		id, owner, string(params.Status), params.PublishError, params.PublishAttemptedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Post{}, model.ErrNotFound
		}
		return model.Post{}, err
	}

	return post, nil
}

func (r *PostRepository) Delete(ctx context.Context, id uuid.UUID, owner string) (model.Post, error) {
	query := `
		DELETE FROM posts
		WHERE id = $1 AND account_pubkey = $2
		RETURNING ` + postColumns

	post, err := scanPost(r.db.QueryRow(ctx, query, id, owner))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Post{}, model.ErrNotFound
		}
		return model.Post{}, err
	}

	return post, nil
}
