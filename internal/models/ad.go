package models

import (
	"time"
)

type AdStatus string

const (
	StatusActive   AdStatus = "active"
	StatusInactive AdStatus = "inactive"
	StatusDraft    AdStatus = "draft"
	StatusExpired  AdStatus = "expired"
)

// Valid reports whether the status is one an owner may pick on the ad form.
func (s AdStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusDraft:
		return true
	}
	return false
}

// Toggled returns the status after an owner flips visibility:
// active becomes inactive, anything else becomes active.
func (s AdStatus) Toggled() AdStatus {
	if s == StatusActive {
		return StatusInactive
	}
	return StatusActive
}

type Ad struct {
	ID            string     `json:"id"`
	OwnerID       string     `json:"owner_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	CategoryID    int64      `json:"category_id"`
	CategoryName  string     `json:"category_name,omitempty"`
	CountryID     int64      `json:"country_id"`
	RegionID      *int64     `json:"region_id,omitempty"`
	SubregionID   *int64     `json:"subregion_id,omitempty"`
	Tags          []string   `json:"tags"`
	Status        AdStatus   `json:"status"`
	BoostedUntil  *time.Time `json:"boosted_until,omitempty"`
	Slug          string     `json:"slug"`
	ViewCount     int64      `json:"view_count"`
	ContactClicks int64      `json:"contact_clicks"`
	AvgRating     float64    `json:"avg_rating"`
	RatingCount   int        `json:"rating_count"`
	CoverURL      string     `json:"cover_url,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Media []AdMedia `json:"media,omitempty"`
	Owner *Profile  `json:"owner,omitempty"`
}

func (a Ad) IsFeatured(now time.Time) bool {
	return IsBoostActive(a.BoostedUntil, now)
}

func (a Ad) IsOwnedBy(userID string) bool {
	return userID != "" && a.OwnerID == userID
}

// Cover returns the cover medium, or nil when the ad has no media.
func (a Ad) Cover() *AdMedia {
	for i := range a.Media {
		if a.Media[i].IsCover {
			return &a.Media[i]
		}
	}
	return nil
}

// MostSpecificLocation returns the deepest location id set on the ad.
func (a Ad) MostSpecificLocation() int64 {
	if a.SubregionID != nil {
		return *a.SubregionID
	}
	if a.RegionID != nil {
		return *a.RegionID
	}
	return a.CountryID
}

// AdDetail is everything the listing page shows for a single ad.
type AdDetail struct {
	Ad           Ad         `json:"ad"`
	Location     []Location `json:"location"`
	Comments     []Comment  `json:"comments"`
	ViewerRating int        `json:"viewer_rating,omitempty"`
	IsOwner      bool       `json:"is_owner"`
}
