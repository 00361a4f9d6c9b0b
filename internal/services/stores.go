package services

import (
	"context"
	"time"

	"marketBack/internal/models"
)

// The repositories package satisfies these; tests use in-memory stubs.

type AdStore interface {
	CreateAd(ctx context.Context, ad models.Ad) (models.Ad, error)
	UpdateAd(ctx context.Context, ad models.Ad) (models.Ad, error)
	GetAdByID(ctx context.Context, id string) (models.Ad, error)
	GetAdBySlug(ctx context.Context, slug string) (models.Ad, error)
	GetOwnerID(ctx context.Context, id string) (string, error)
	UpdateStatus(ctx context.Context, id string, status models.AdStatus) error
	DeleteAd(ctx context.Context, id string) error
	ListAds(ctx context.Context, filter models.AdFilter, now time.Time) ([]models.Ad, int, error)
	IncrementViews(ctx context.Context, id string) error
	IncrementContactClicks(ctx context.Context, id string) error
	ExpireStale(ctx context.Context, cutoff time.Time) (int, error)
}

type MediaStore interface {
	ListByAd(ctx context.Context, adID string) ([]models.AdMedia, error)
	Create(ctx context.Context, m models.AdMedia) (models.AdMedia, error)
	Delete(ctx context.Context, id string) error
	SetCover(ctx context.Context, adID, mediaID string) error
}

type ProfileStore interface {
	GetByID(ctx context.Context, id string) (models.Profile, error)
	GetByUsername(ctx context.Context, username string) (models.Profile, error)
	Create(ctx context.Context, p models.Profile) (models.Profile, error)
	Update(ctx context.Context, p models.Profile) (models.Profile, error)
	UpdateAvatar(ctx context.Context, id, url string) error
}

type LocationStore interface {
	All(ctx context.Context) ([]models.Location, error)
}

type CategoryStore interface {
	List(ctx context.Context) ([]models.Category, error)
}

type RatingStore interface {
	Upsert(ctx context.Context, r models.Rating) (models.Rating, error)
	GetForAuthor(ctx context.Context, adID, authorID string) (models.Rating, error)
}

type CommentStore interface {
	Create(ctx context.Context, c models.Comment) (models.Comment, error)
	ListForAd(ctx context.Context, adID, viewerID string) ([]models.Comment, error)
	Get(ctx context.Context, id string) (models.Comment, error)
	UpdateStatus(ctx context.Context, id string, from, to models.CommentStatus) error
	PendingForOwner(ctx context.Context, ownerID string) ([]models.Comment, error)
}

type BoostStore interface {
	SetBoost(ctx context.Context, adID string, until time.Time) error
	ClearExpired(ctx context.Context, now time.Time) (int, error)
}

// LookupCache holds small read-mostly tables; a nil cache is allowed.
type LookupCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
}

type ViewCounter interface {
	FirstView(ctx context.Context, adID, visitor string) (bool, error)
}
