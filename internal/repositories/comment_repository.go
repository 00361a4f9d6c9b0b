package repositories

import (
	"context"
	"database/sql"
	"errors"

	"marketBack/internal/models"
)

type CommentRepository struct {
	DB *sql.DB
}

func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{DB: db}
}

const commentSelect = `
	SELECT c.id, c.ad_id, a.title, a.owner_id, c.author_id, p.username, c.body, c.status, c.created_at, c.updated_at
	FROM comments c
	JOIN ads a ON a.id = c.ad_id
	JOIN profiles p ON p.id = c.author_id`

func scanComment(row rowScanner) (models.Comment, error) {
	var (
		c      models.Comment
		status string
	)
	err := row.Scan(&c.ID, &c.AdID, &c.AdTitle, &c.AdOwnerID, &c.AuthorID, &c.AuthorUsername, &c.Body, &status,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return models.Comment{}, err
	}
	c.Status = models.CommentStatus(status)
	return c, nil
}

func (r *CommentRepository) list(ctx context.Context, query string, args ...any) ([]models.Comment, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *CommentRepository) Create(ctx context.Context, c models.Comment) (models.Comment, error) {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO comments (ad_id, author_id, body, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		c.AdID, c.AuthorID, c.Body, string(c.Status),
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

// ListForAd returns approved comments plus the viewer's own comments in any state.
func (r *CommentRepository) ListForAd(ctx context.Context, adID, viewerID string) ([]models.Comment, error) {
	if viewerID == "" {
		return r.list(ctx, commentSelect+` WHERE c.ad_id = $1 AND c.status = 'approved' ORDER BY c.created_at`, adID)
	}
	return r.list(ctx, commentSelect+`
		WHERE c.ad_id = $1 AND (c.status = 'approved' OR c.author_id = $2)
		ORDER BY c.created_at`, adID, viewerID)
}

func (r *CommentRepository) Get(ctx context.Context, id string) (models.Comment, error) {
	if !isUUID(id) {
		return models.Comment{}, models.ErrCommentNotFound
	}
	c, err := scanComment(r.DB.QueryRowContext(ctx, commentSelect+` WHERE c.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Comment{}, models.ErrCommentNotFound
	}
	return c, err
}

// UpdateStatus moves a comment out of from; it fails when the comment is no longer in that state.
func (r *CommentRepository) UpdateStatus(ctx context.Context, id string, from, to models.CommentStatus) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE comments SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`,
		string(to), id, string(from))
	if err != nil {
		return err
	}
	return expectOneRow(result, models.ErrInvalidTransition)
}

func (r *CommentRepository) PendingForOwner(ctx context.Context, ownerID string) ([]models.Comment, error) {
	return r.list(ctx, commentSelect+`
		WHERE a.owner_id = $1 AND c.status = 'pending'
		ORDER BY c.created_at`, ownerID)
}
