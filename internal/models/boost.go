package models

import (
	"fmt"
	"strings"
	"time"
)

type BoostRequest struct {
	AdID         string `json:"ad_id" form:"ad_id"`
	DurationDays int    `json:"duration_days" form:"duration_days"`
}

// Validate checks the request against the durations the marketplace sells.
func (r BoostRequest) Validate(allowed []int) error {
	if strings.TrimSpace(r.AdID) == "" {
		return ErrInvalidBoostAd
	}
	for _, d := range allowed {
		if d == r.DurationDays {
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrInvalidBoostPeriod, r.DurationDays)
}

// NextBoostUntil extends a running boost from its expiry and starts a lapsed one from now.
func NextBoostUntil(current *time.Time, now time.Time, durationDays int) time.Time {
	start := now.UTC()
	if IsBoostActive(current, now) {
		start = current.UTC()
	}
	return start.AddDate(0, 0, durationDays)
}

func IsBoostActive(until *time.Time, now time.Time) bool {
	if until == nil || until.IsZero() {
		return false
	}
	return until.After(now)
}
