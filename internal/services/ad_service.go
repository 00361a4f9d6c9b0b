package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"marketBack/internal/metrics"
	"marketBack/internal/models"
	"marketBack/internal/storage"
)

type AdConfig struct {
	MediaBucket     string
	Limits          models.MediaLimits
	MaxUploadBytes  int64
	PageSize        int
	ExpireAfterDays int
}

type AdService struct {
	Ads        AdStore
	Media      MediaStore
	Profiles   ProfileStore
	Comments   CommentStore
	Ratings    RatingStore
	Locations  *LocationService
	Categories *CategoryService
	Storage    storage.Store
	Views      ViewCounter
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
	Config     AdConfig
	Now        func() time.Time
}

func (s *AdService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AdService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// validateForm normalises the form and checks fields, category and location chain.
func (s *AdService) validateForm(ctx context.Context, form *models.AdForm) error {
	form.Normalize()
	errs := models.Validate(form)

	if form.CategoryID > 0 {
		if _, err := s.Categories.Get(ctx, form.CategoryID); errors.Is(err, models.ErrCategoryNotFound) {
			errs.Add("category_id", "Choose a category")
		} else if err != nil {
			return err
		}
	}
	if form.CountryID > 0 {
		err := s.Locations.ValidateSelection(ctx, form.CountryID, form.RegionID, form.SubregionID)
		if errors.Is(err, models.ErrInvalidLocation) {
			errs.Add("location", "Choose a region and subregion that belong to the selected country")
		} else if err != nil {
			return err
		}
	}
	if !errs.Valid() {
		return &models.ValidationError{Fields: errs}
	}
	return nil
}

func applyForm(ad *models.Ad, form models.AdForm) {
	ad.Title = form.Title
	ad.Description = form.Description
	ad.CategoryID = form.CategoryID
	ad.CountryID = form.CountryID
	ad.RegionID = optionalID(form.RegionID)
	ad.SubregionID = optionalID(form.SubregionID)
	ad.Tags = form.Tags
	ad.Status = models.AdStatus(form.Status)
}

func optionalID(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

// prepareMedia sniffs new uploads and checks the resulting media set against the limits.
func (s *AdService) prepareMedia(existing []models.AdMedia, changes MediaChanges) ([]models.AdMedia, []sniffedUpload, error) {
	removed := make(map[string]struct{}, len(changes.Remove))
	for _, id := range changes.Remove {
		removed[id] = struct{}{}
	}
	var remaining []models.AdMedia
	for _, m := range existing {
		if _, gone := removed[m.ID]; !gone {
			remaining = append(remaining, m)
		}
	}

	uploads := make([]sniffedUpload, 0, len(changes.Add))
	types := make([]models.MediaType, 0, len(remaining)+len(changes.Add))
	for _, m := range remaining {
		types = append(types, m.Type)
	}
	for _, u := range changes.Add {
		sniffed, err := sniff(u, s.Config.MaxUploadBytes)
		if err != nil {
			return nil, nil, models.WrapFieldError("media", err)
		}
		uploads = append(uploads, sniffed)
		types = append(types, sniffed.kind)
	}
	if err := models.CheckMediaLimits(types, s.Config.Limits); err != nil {
		return nil, nil, models.WrapFieldError("media", err)
	}
	return remaining, uploads, nil
}

// CreateAd validates the form, writes the ad row and then runs the media steps.
func (s *AdService) CreateAd(ctx context.Context, ownerID string, form models.AdForm, changes MediaChanges) (models.Ad, error) {
	if err := s.validateForm(ctx, &form); err != nil {
		return models.Ad{}, err
	}
	_, uploads, err := s.prepareMedia(nil, MediaChanges{Add: changes.Add})
	if err != nil {
		return models.Ad{}, err
	}

	ad := models.Ad{OwnerID: ownerID}
	applyForm(&ad, form)
	ad.Slug = models.Slugify(form.Title, uuid.NewString()[:8])

	created, err := s.Ads.CreateAd(ctx, ad)
	if err != nil {
		return models.Ad{}, fmt.Errorf("create ad: %w", err)
	}
	s.Metrics.AdCreated()

	changes.Remove, changes.CoverID = nil, ""
	media, err := s.applyMedia(ctx, created, nil, nil, uploads, changes)
	created.Media = media
	return created, err
}

// UpdateAd saves an owner's edits. Media removals, uploads and the cover change run after the row update.
func (s *AdService) UpdateAd(ctx context.Context, ownerID, adID string, form models.AdForm, changes MediaChanges) (models.Ad, error) {
	ad, err := s.ownedAd(ctx, ownerID, adID)
	if err != nil {
		return models.Ad{}, err
	}
	if err := s.validateForm(ctx, &form); err != nil {
		return models.Ad{}, err
	}
	existing, err := s.Media.ListByAd(ctx, ad.ID)
	if err != nil {
		return models.Ad{}, fmt.Errorf("load media: %w", err)
	}
	remaining, uploads, err := s.prepareMedia(existing, changes)
	if err != nil {
		return models.Ad{}, err
	}

	applyForm(&ad, form)
	updated, err := s.Ads.UpdateAd(ctx, ad)
	if err != nil {
		return models.Ad{}, fmt.Errorf("update ad: %w", err)
	}

	var removed []models.AdMedia
	for _, m := range existing {
		for _, id := range changes.Remove {
			if m.ID == id {
				removed = append(removed, m)
			}
		}
	}
	media, err := s.applyMedia(ctx, updated, remaining, removed, uploads, changes)
	updated.Media = media
	return updated, err
}

// applyMedia runs delete, upload and cover steps in order and stops at the first failure.
func (s *AdService) applyMedia(ctx context.Context, ad models.Ad, remaining, removed []models.AdMedia, uploads []sniffedUpload, changes MediaChanges) ([]models.AdMedia, error) {
	for _, m := range removed {
		if err := s.Storage.Delete(ctx, s.Config.MediaBucket, m.StorageKey); err != nil {
			return remaining, stepErr("delete media", err)
		}
		if err := s.Media.Delete(ctx, m.ID); err != nil {
			return remaining, stepErr("delete media", err)
		}
	}

	position := 0
	for _, m := range remaining {
		if m.Position >= position {
			position = m.Position + 1
		}
	}

	final := append([]models.AdMedia(nil), remaining...)
	added := make([]models.AdMedia, 0, len(uploads))
	for _, u := range uploads {
		key := fmt.Sprintf("%s/%s/%s%s", ad.OwnerID, ad.ID, uuid.NewString(), u.ext)
		url, err := s.Storage.Upload(ctx, s.Config.MediaBucket, key, u.body, u.size, u.contentType)
		if err != nil {
			s.Metrics.UploadFailed(s.Config.MediaBucket)
			return final, stepErr("upload media", err)
		}
		m, err := s.Media.Create(ctx, models.AdMedia{
			AdID:       ad.ID,
			OwnerID:    ad.OwnerID,
			URL:        url,
			StorageKey: key,
			Type:       u.kind,
			Position:   position,
		})
		if err != nil {
			return final, stepErr("save media", err)
		}
		position++
		added = append(added, m)
		final = append(final, m)
	}

	preferred := changes.CoverID
	if changes.CoverNew != nil && *changes.CoverNew >= 0 && *changes.CoverNew < len(added) {
		preferred = added[*changes.CoverNew].ID
	}
	cover := models.PickCover(final, preferred)
	current := ""
	for _, m := range final {
		if m.IsCover {
			current = m.ID
		}
	}
	if cover != current {
		if err := s.Media.SetCover(ctx, ad.ID, cover); err != nil {
			return final, stepErr("set cover", err)
		}
	}
	for i := range final {
		final[i].IsCover = final[i].ID == cover
	}
	return final, nil
}

// ownedAd loads an ad and checks that userID owns it.
func (s *AdService) ownedAd(ctx context.Context, userID, adID string) (models.Ad, error) {
	ad, err := s.Ads.GetAdByID(ctx, adID)
	if err != nil {
		return models.Ad{}, err
	}
	if !ad.IsOwnedBy(userID) {
		return models.Ad{}, models.ErrForbidden
	}
	return ad, nil
}

// GetOwned returns an ad with its media for the edit form.
func (s *AdService) GetOwned(ctx context.Context, userID, adID string) (models.Ad, error) {
	ad, err := s.ownedAd(ctx, userID, adID)
	if err != nil {
		return models.Ad{}, err
	}
	ad.Media, err = s.Media.ListByAd(ctx, ad.ID)
	if err != nil {
		return models.Ad{}, err
	}
	return ad, nil
}

// ToggleStatus flips an owned ad between active and inactive and returns the new status.
func (s *AdService) ToggleStatus(ctx context.Context, userID, adID string) (models.AdStatus, error) {
	ad, err := s.ownedAd(ctx, userID, adID)
	if err != nil {
		return "", err
	}
	next := ad.Status.Toggled()
	if err := s.Ads.UpdateStatus(ctx, ad.ID, next); err != nil {
		return "", err
	}
	return next, nil
}

// DeleteAd removes an owned ad. Storage objects are removed best effort; media rows cascade.
func (s *AdService) DeleteAd(ctx context.Context, userID, adID string) error {
	ad, err := s.ownedAd(ctx, userID, adID)
	if err != nil {
		return err
	}
	media, err := s.Media.ListByAd(ctx, ad.ID)
	if err != nil {
		return err
	}
	for _, m := range media {
		if err := s.Storage.Delete(ctx, s.Config.MediaBucket, m.StorageKey); err != nil {
			s.logger().Warn("delete media object", zap.String("ad_id", ad.ID), zap.String("key", m.StorageKey), zap.Error(err))
		}
	}
	return s.Ads.DeleteAd(ctx, ad.ID)
}

// GetAd loads the listing page. Ads that are not active are only visible to their owner.
func (s *AdService) GetAd(ctx context.Context, idOrSlug, viewerID string) (models.AdDetail, error) {
	var (
		ad  models.Ad
		err error
	)
	if _, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		ad, err = s.Ads.GetAdByID(ctx, idOrSlug)
	} else {
		ad, err = s.Ads.GetAdBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return models.AdDetail{}, err
	}
	isOwner := ad.IsOwnedBy(viewerID)
	if ad.Status != models.StatusActive && !isOwner {
		return models.AdDetail{}, models.ErrAdNotFound
	}

	detail := models.AdDetail{IsOwner: isOwner}
	if ad.Media, err = s.Media.ListByAd(ctx, ad.ID); err != nil {
		return models.AdDetail{}, err
	}
	owner, err := s.Profiles.GetByID(ctx, ad.OwnerID)
	if err != nil && !errors.Is(err, models.ErrProfileNotFound) {
		return models.AdDetail{}, err
	}
	if err == nil {
		ad.Owner = &owner
	}
	if detail.Location, err = s.Locations.Path(ctx, ad); err != nil {
		return models.AdDetail{}, err
	}
	if detail.Comments, err = s.Comments.ListForAd(ctx, ad.ID, viewerID); err != nil {
		return models.AdDetail{}, err
	}
	if viewerID != "" && !isOwner {
		r, err := s.Ratings.GetForAuthor(ctx, ad.ID, viewerID)
		switch {
		case err == nil:
			detail.ViewerRating = r.Value
		case !errors.Is(err, models.ErrNoRecord):
			return models.AdDetail{}, err
		}
	}
	detail.Ad = ad
	return detail, nil
}

// RecordView counts a visitor's view once per window. Owners looking at their own ad are not counted.
func (s *AdService) RecordView(ctx context.Context, ad models.Ad, viewerID, visitorKey string) error {
	if ad.IsOwnedBy(viewerID) {
		return nil
	}
	if s.Views != nil {
		first, err := s.Views.FirstView(ctx, ad.ID, visitorKey)
		if err != nil {
			s.logger().Debug("view dedupe unavailable", zap.Error(err))
		} else if !first {
			return nil
		}
	}
	return s.Ads.IncrementViews(ctx, ad.ID)
}

// RecordContactClick counts the click and returns where to send the visitor.
func (s *AdService) RecordContactClick(ctx context.Context, adID, channel string) (string, error) {
	ad, err := s.Ads.GetAdByID(ctx, adID)
	if err != nil {
		return "", err
	}
	if ad.Status != models.StatusActive {
		return "", models.ErrAdNotFound
	}
	owner, err := s.Profiles.GetByID(ctx, ad.OwnerID)
	if err != nil {
		return "", err
	}
	target, ok := owner.ContactURL(channel)
	if !ok {
		return "", models.ErrUnknownContact
	}
	if err := s.Ads.IncrementContactClicks(ctx, ad.ID); err != nil {
		return "", err
	}
	return target, nil
}

// Feed lists public ads: active only, whatever statuses the caller set.
func (s *AdService) Feed(ctx context.Context, filter models.AdFilter) (models.AdPage, error) {
	filter.Statuses = nil
	filter = filter.Normalize(s.Config.PageSize)
	items, total, err := s.Ads.ListAds(ctx, filter, s.now())
	if err != nil {
		return models.AdPage{}, err
	}
	return models.NewAdPage(items, total, filter), nil
}

// ListByOwner is the dashboard listing; an empty status shows every state.
func (s *AdService) ListByOwner(ctx context.Context, ownerID string, status models.AdStatus, page int) (models.AdPage, error) {
	filter := models.AdFilter{OwnerID: ownerID, Page: page, PageSize: models.MaxPageSize}
	if status != "" {
		filter.Statuses = []models.AdStatus{status}
	} else {
		filter.Statuses = []models.AdStatus{models.StatusActive, models.StatusInactive, models.StatusDraft, models.StatusExpired}
	}
	filter = filter.Normalize(s.Config.PageSize)
	items, total, err := s.Ads.ListAds(ctx, filter, s.now())
	if err != nil {
		return models.AdPage{}, err
	}
	return models.NewAdPage(items, total, filter), nil
}

// ExpireStale expires active ads that have not been updated for the configured number of days.
func (s *AdService) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	if s.Config.ExpireAfterDays <= 0 {
		return 0, nil
	}
	return s.Ads.ExpireStale(ctx, now.AddDate(0, 0, -s.Config.ExpireAfterDays))
}
