package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"marketBack/internal/models"
)

type AdRepository struct {
	DB *sql.DB
}

func NewAdRepository(db *sql.DB) *AdRepository {
	return &AdRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAd(row rowScanner, types *pgtype.Map) (models.Ad, error) {
	var (
		ad        models.Ad
		region    sql.NullInt64
		subregion sql.NullInt64
		boosted   sql.NullTime
		status    string
	)
	err := row.Scan(
		&ad.ID, &ad.OwnerID, &ad.Title, &ad.Description, &ad.CategoryID, &ad.CategoryName,
		&ad.CountryID, &region, &subregion, types.SQLScanner(&ad.Tags), &status, &boosted, &ad.Slug,
		&ad.ViewCount, &ad.ContactClicks, &ad.AvgRating, &ad.RatingCount, &ad.CoverURL,
		&ad.CreatedAt, &ad.UpdatedAt,
	)
	if err != nil {
		return models.Ad{}, err
	}
	ad.Status = models.AdStatus(status)
	if region.Valid {
		ad.RegionID = &region.Int64
	}
	if subregion.Valid {
		ad.SubregionID = &subregion.Int64
	}
	if boosted.Valid {
		t := boosted.Time.UTC()
		ad.BoostedUntil = &t
	}
	if ad.Tags == nil {
		ad.Tags = []string{}
	}
	return ad, nil
}

func nullableID(id *int64) any {
	if id == nil || *id <= 0 {
		return nil
	}
	return *id
}

func (r *AdRepository) CreateAd(ctx context.Context, ad models.Ad) (models.Ad, error) {
	query := `
		INSERT INTO ads (owner_id, title, description, category_id, country_id, region_id, subregion_id, tags, status, slug)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`
	tags := ad.Tags
	if tags == nil {
		tags = []string{}
	}
	err := r.DB.QueryRowContext(ctx, query,
		ad.OwnerID, ad.Title, ad.Description, ad.CategoryID, ad.CountryID,
		nullableID(ad.RegionID), nullableID(ad.SubregionID), tags, string(ad.Status), ad.Slug,
	).Scan(&ad.ID, &ad.CreatedAt, &ad.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return models.Ad{}, fmt.Errorf("%w: %v", models.ErrInvalidLocation, err)
		}
		return models.Ad{}, err
	}
	return ad, nil
}

func (r *AdRepository) UpdateAd(ctx context.Context, ad models.Ad) (models.Ad, error) {
	query := `
		UPDATE ads
		SET title = $1, description = $2, category_id = $3, country_id = $4, region_id = $5,
		    subregion_id = $6, tags = $7, status = $8, updated_at = now()
		WHERE id = $9
		RETURNING updated_at`
	tags := ad.Tags
	if tags == nil {
		tags = []string{}
	}
	err := r.DB.QueryRowContext(ctx, query,
		ad.Title, ad.Description, ad.CategoryID, ad.CountryID,
		nullableID(ad.RegionID), nullableID(ad.SubregionID), tags, string(ad.Status), ad.ID,
	).Scan(&ad.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Ad{}, models.ErrAdNotFound
	}
	if err != nil {
		if isForeignKeyViolation(err) {
			return models.Ad{}, fmt.Errorf("%w: %v", models.ErrInvalidLocation, err)
		}
		return models.Ad{}, err
	}
	return ad, nil
}

func (r *AdRepository) GetAdByID(ctx context.Context, id string) (models.Ad, error) {
	if !isUUID(id) {
		return models.Ad{}, models.ErrAdNotFound
	}
	return r.getOne(ctx, "a.id = $1", id)
}

func (r *AdRepository) GetAdBySlug(ctx context.Context, slug string) (models.Ad, error) {
	return r.getOne(ctx, "a.slug = $1", slug)
}

func (r *AdRepository) getOne(ctx context.Context, cond string, arg any) (models.Ad, error) {
	query := "SELECT" + adColumns + adFrom + " WHERE " + cond
	ad, err := scanAd(r.DB.QueryRowContext(ctx, query, arg), pgtype.NewMap())
	if errors.Is(err, sql.ErrNoRows) {
		return models.Ad{}, models.ErrAdNotFound
	}
	if err != nil {
		return models.Ad{}, err
	}
	return ad, nil
}

func (r *AdRepository) GetOwnerID(ctx context.Context, id string) (string, error) {
	if !isUUID(id) {
		return "", models.ErrAdNotFound
	}
	var ownerID string
	err := r.DB.QueryRowContext(ctx, `SELECT owner_id FROM ads WHERE id = $1`, id).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", models.ErrAdNotFound
	}
	if err != nil {
		return "", err
	}
	return ownerID, nil
}

func (r *AdRepository) UpdateStatus(ctx context.Context, id string, status models.AdStatus) error {
	result, err := r.DB.ExecContext(ctx, `UPDATE ads SET status = $1, updated_at = now() WHERE id = $2`, string(status), id)
	if err != nil {
		return err
	}
	return expectOneRow(result, models.ErrAdNotFound)
}

func (r *AdRepository) DeleteAd(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM ads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(result, models.ErrAdNotFound)
}

// ListAds runs the feed query for a normalised filter and returns the page plus the total count.
func (r *AdRepository) ListAds(ctx context.Context, filter models.AdFilter, now time.Time) ([]models.Ad, int, error) {
	pageSQL, pageArgs, countSQL, countArgs := buildFeedQuery(filter, now)

	var total int
	if err := r.DB.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count ads: %w", err)
	}
	if total == 0 {
		return []models.Ad{}, 0, nil
	}

	rows, err := r.DB.QueryContext(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list ads: %w", err)
	}
	defer rows.Close()

	types := pgtype.NewMap()
	ads := make([]models.Ad, 0, filter.PageSize)
	for rows.Next() {
		ad, err := scanAd(rows, types)
		if err != nil {
			return nil, 0, fmt.Errorf("scan error: %w", err)
		}
		ads = append(ads, ad)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return ads, total, nil
}

func (r *AdRepository) IncrementViews(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `SELECT increment_ad_views($1)`, id)
	return err
}

func (r *AdRepository) IncrementContactClicks(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `SELECT increment_ad_contact_clicks($1)`, id)
	return err
}

// ExpireStale marks active ads untouched since cutoff as expired.
func (r *AdRepository) ExpireStale(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE ads SET status = 'expired', boosted_until = NULL, updated_at = now() WHERE status = 'active' AND updated_at < $1`,
		cutoff.UTC())
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func expectOneRow(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
