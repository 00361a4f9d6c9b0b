package services

import (
	"context"
	"errors"
	"time"

	"marketBack/internal/metrics"
	"marketBack/internal/models"
)

type BoostService struct {
	Ads       AdStore
	Repo      BoostStore
	Durations []int
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

func (s *BoostService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Boost features an owned, active ad for the chosen number of days, extending a running boost.
func (s *BoostService) Boost(ctx context.Context, ownerID string, req models.BoostRequest) (time.Time, error) {
	if err := req.Validate(s.Durations); err != nil {
		return time.Time{}, err
	}
	ad, err := s.Ads.GetAdByID(ctx, req.AdID)
	if err != nil {
		return time.Time{}, err
	}
	if !ad.IsOwnedBy(ownerID) {
		return time.Time{}, models.ErrForbidden
	}
	if ad.Status != models.StatusActive {
		return time.Time{}, models.ErrAdNotActive
	}

	until := models.NextBoostUntil(ad.BoostedUntil, s.now(), req.DurationDays)
	if err := s.Repo.SetBoost(ctx, ad.ID, until); err != nil {
		return time.Time{}, err
	}
	s.Metrics.BoostActivated()
	return until, nil
}

func (s *BoostService) ClearExpired(ctx context.Context, now time.Time) (int, error) {
	if s == nil || s.Repo == nil {
		return 0, nil
	}
	if now.IsZero() {
		now = s.now()
	}
	return s.Repo.ClearExpired(ctx, now.UTC())
}

// IsBoostError reports whether err is a user-facing boost rejection.
func IsBoostError(err error) bool {
	return errors.Is(err, models.ErrInvalidBoostAd) ||
		errors.Is(err, models.ErrInvalidBoostPeriod) ||
		errors.Is(err, models.ErrAdNotActive)
}
