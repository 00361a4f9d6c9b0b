package repositories

import (
	"context"
	"database/sql"
	"time"

	"marketBack/internal/models"
)

type BoostRepository struct {
	DB *sql.DB
}

func NewBoostRepository(db *sql.DB) *BoostRepository {
	return &BoostRepository{DB: db}
}

func (r *BoostRepository) SetBoost(ctx context.Context, adID string, until time.Time) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE ads SET boosted_until = $1, updated_at = now() WHERE id = $2`, until.UTC(), adID)
	if err != nil {
		return err
	}
	return expectOneRow(result, models.ErrAdNotFound)
}

// ClearExpired nulls boosts that ran out before now and returns how many were cleared.
func (r *BoostRepository) ClearExpired(ctx context.Context, now time.Time) (int, error) {
	if r == nil || r.DB == nil {
		return 0, nil
	}
	result, err := r.DB.ExecContext(ctx,
		`UPDATE ads SET boosted_until = NULL WHERE boosted_until IS NOT NULL AND boosted_until <= $1`, now.UTC())
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}
