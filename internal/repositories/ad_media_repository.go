package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"marketBack/internal/models"
)

type AdMediaRepository struct {
	DB *sql.DB
}

func NewAdMediaRepository(db *sql.DB) *AdMediaRepository {
	return &AdMediaRepository{DB: db}
}

const mediaColumns = `id, ad_id, owner_id, url, storage_key, type, is_cover, position, created_at`

func scanMedia(row rowScanner) (models.AdMedia, error) {
	var (
		m         models.AdMedia
		mediaType string
	)
	if err := row.Scan(&m.ID, &m.AdID, &m.OwnerID, &m.URL, &m.StorageKey, &mediaType, &m.IsCover, &m.Position, &m.CreatedAt); err != nil {
		return models.AdMedia{}, err
	}
	m.Type = models.MediaType(mediaType)
	return m, nil
}

func (r *AdMediaRepository) ListByAd(ctx context.Context, adID string) ([]models.AdMedia, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+mediaColumns+` FROM ad_media WHERE ad_id = $1 ORDER BY position, created_at`, adID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var media []models.AdMedia
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		media = append(media, m)
	}
	return media, rows.Err()
}

func (r *AdMediaRepository) Create(ctx context.Context, m models.AdMedia) (models.AdMedia, error) {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO ad_media (ad_id, owner_id, url, storage_key, type, is_cover, position)
		VALUES ($1, $2, $3, $4, $5, false, $6)
		RETURNING id, created_at`,
		m.AdID, m.OwnerID, m.URL, m.StorageKey, string(m.Type), m.Position,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return models.AdMedia{}, err
	}
	return m, nil
}

func (r *AdMediaRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM ad_media WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(result, models.ErrNoRecord)
}

// SetCover moves the cover flag to mediaID; an empty mediaID clears it.
func (r *AdMediaRepository) SetCover(ctx context.Context, adID, mediaID string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE ad_media SET is_cover = false WHERE ad_id = $1 AND is_cover`, adID); err != nil {
		return err
	}
	if mediaID != "" {
		result, err := tx.ExecContext(ctx, `UPDATE ad_media SET is_cover = true WHERE ad_id = $1 AND id = $2`, adID, mediaID)
		if err != nil {
			return err
		}
		if err := expectOneRow(result, models.ErrNoRecord); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *AdMediaRepository) Get(ctx context.Context, id string) (models.AdMedia, error) {
	m, err := scanMedia(r.DB.QueryRowContext(ctx, `SELECT `+mediaColumns+` FROM ad_media WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.AdMedia{}, models.ErrNoRecord
	}
	return m, err
}
