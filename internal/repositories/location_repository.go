package repositories

import (
	"context"
	"database/sql"
	"errors"

	"marketBack/internal/models"
)

type LocationRepository struct {
	DB *sql.DB
}

func NewLocationRepository(db *sql.DB) *LocationRepository {
	return &LocationRepository{DB: db}
}

func scanLocation(row rowScanner) (models.Location, error) {
	var (
		l      models.Location
		kind   string
		parent sql.NullInt64
	)
	if err := row.Scan(&l.ID, &l.Name, &kind, &parent); err != nil {
		return models.Location{}, err
	}
	l.Type = models.LocationType(kind)
	if parent.Valid {
		l.ParentID = &parent.Int64
	}
	return l, nil
}

func (r *LocationRepository) list(ctx context.Context, query string, args ...any) ([]models.Location, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []models.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// All returns every location; the table is small and read-mostly.
func (r *LocationRepository) All(ctx context.Context) ([]models.Location, error) {
	return r.list(ctx, `SELECT id, name, type, parent_id FROM locations ORDER BY name`)
}

func (r *LocationRepository) Countries(ctx context.Context) ([]models.Location, error) {
	return r.list(ctx, `SELECT id, name, type, parent_id FROM locations WHERE type = 'country' ORDER BY name`)
}

func (r *LocationRepository) Children(ctx context.Context, parentID int64) ([]models.Location, error) {
	return r.list(ctx, `SELECT id, name, type, parent_id FROM locations WHERE parent_id = $1 ORDER BY name`, parentID)
}

func (r *LocationRepository) Get(ctx context.Context, id int64) (models.Location, error) {
	l, err := scanLocation(r.DB.QueryRowContext(ctx, `SELECT id, name, type, parent_id FROM locations WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Location{}, models.ErrLocationNotFound
	}
	return l, err
}
