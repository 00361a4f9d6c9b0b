package repositories

import (
	"context"
	"database/sql"
	"errors"

	"marketBack/internal/models"
)

type RatingRepository struct {
	DB *sql.DB
}

func NewRatingRepository(db *sql.DB) *RatingRepository {
	return &RatingRepository{DB: db}
}

// Upsert stores the author's rating for an ad, replacing any earlier value.
func (r *RatingRepository) Upsert(ctx context.Context, rating models.Rating) (models.Rating, error) {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO ratings (ad_id, author_id, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (ad_id, author_id) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
		RETURNING id, created_at, updated_at`,
		rating.AdID, rating.AuthorID, rating.Value,
	).Scan(&rating.ID, &rating.CreatedAt, &rating.UpdatedAt)
	if err != nil {
		return models.Rating{}, err
	}
	return rating, nil
}

func (r *RatingRepository) GetForAuthor(ctx context.Context, adID, authorID string) (models.Rating, error) {
	rating := models.Rating{AdID: adID, AuthorID: authorID}
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, value, created_at, updated_at FROM ratings WHERE ad_id = $1 AND author_id = $2`, adID, authorID,
	).Scan(&rating.ID, &rating.Value, &rating.CreatedAt, &rating.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Rating{}, models.ErrNoRecord
	}
	return rating, err
}
