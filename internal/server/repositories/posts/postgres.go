// Package posts persists posts. Update and Delete are qualified by the
// creator's id in the same statement, so a non-owner and a missing row look
// the same to callers.
package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/dmitrijs2005/postboard/internal/dbx"
	"github.com/dmitrijs2005/postboard/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	query :=
		`INSERT INTO posts (title, content, image_path, creator_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		post.Title, post.Content, post.ImagePath, post.CreatorID).
		Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return post, nil
}

// GetByID returns common.ErrorNotFound for unknown and malformed ids alike.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query :=
		`SELECT id, title, content, image_path, creator_id, created_at, updated_at
		 FROM posts
		 WHERE id = $1
		 `

	p := &models.Post{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.Title, &p.Content, &p.ImagePath, &p.CreatorID, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidInput(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

// List returns posts in creation order. A positive limit selects one page
// starting at offset; otherwise every post is returned.
func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	query :=
		`SELECT id, title, content, image_path, creator_id, created_at, updated_at
		 FROM posts
		 ORDER BY created_at, id
		 `
	var args []any
	if limit > 0 {
		query += `LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Post, 0)
	for rows.Next() {
		p := &models.Post{}
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.ImagePath, &p.CreatorID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// GetForUpdate returns the post with id when it belongs to creatorID and
// locks its row until the surrounding transaction ends. No matching row
// yields common.ErrorNotAuthorizedOrNotFound.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, id, creatorID string) (*models.Post, error) {
	query :=
		`SELECT id, title, content, image_path, creator_id, created_at, updated_at
		 FROM posts
		 WHERE id = $1 AND creator_id = $2
		 FOR UPDATE
		 `

	p := &models.Post{}
	err := r.db.QueryRowContext(ctx, query, id, creatorID).
		Scan(&p.ID, &p.Title, &p.Content, &p.ImagePath, &p.CreatorID, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidInput(err) {
			return nil, common.ErrorNotAuthorizedOrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

// Update overwrites title, content and image of the post with post.ID when
// it belongs to post.CreatorID. No matching row yields
// common.ErrorNotAuthorizedOrNotFound.
func (r *PostgresRepository) Update(ctx context.Context, post *models.Post) error {
	query :=
		`UPDATE posts
		 SET title = $3, content = $4, image_path = $5, updated_at = now()
		 WHERE id = $1 AND creator_id = $2
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		post.ID, post.CreatorID, post.Title, post.Content, post.ImagePath).
		Scan(&post.CreatedAt, &post.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidInput(err) {
			return common.ErrorNotAuthorizedOrNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

// Delete removes the post with id when it belongs to creatorID and returns
// its image path. No matching row yields common.ErrorNotAuthorizedOrNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, id, creatorID string) (string, error) {
	query :=
		`DELETE FROM posts
		 WHERE id = $1 AND creator_id = $2
		 RETURNING image_path
		 `

	var imagePath string
	err := r.db.QueryRowContext(ctx, query, id, creatorID).Scan(&imagePath)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidInput(err) {
			return "", common.ErrorNotAuthorizedOrNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}

	return imagePath, nil
}
