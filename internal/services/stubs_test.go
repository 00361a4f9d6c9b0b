package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"marketBack/internal/models"
)

type stubAdStore struct {
	ads      map[string]models.Ad
	statuses []models.AdStatus
	views    map[string]int
	clicks   map[string]int
	// listFn answers ListAds when set
	listFn  func(models.AdFilter) ([]models.Ad, int)
	filters []models.AdFilter
	// expireCutoffs records every ExpireStale call
	expireCutoffs []time.Time
}

func newStubAdStore(ads ...models.Ad) *stubAdStore {
	s := &stubAdStore{ads: map[string]models.Ad{}, views: map[string]int{}, clicks: map[string]int{}}
	for _, a := range ads {
		s.ads[a.ID] = a
	}
	return s
}

func (s *stubAdStore) CreateAd(_ context.Context, ad models.Ad) (models.Ad, error) {
	ad.ID = fmt.Sprintf("00000000-0000-0000-0000-%012d", len(s.ads)+1)
	s.ads[ad.ID] = ad
	return ad, nil
}

func (s *stubAdStore) UpdateAd(_ context.Context, ad models.Ad) (models.Ad, error) {
	if _, ok := s.ads[ad.ID]; !ok {
		return models.Ad{}, models.ErrAdNotFound
	}
	s.ads[ad.ID] = ad
	return ad, nil
}

func (s *stubAdStore) GetAdByID(_ context.Context, id string) (models.Ad, error) {
	ad, ok := s.ads[id]
	if !ok {
		return models.Ad{}, models.ErrAdNotFound
	}
	return ad, nil
}

func (s *stubAdStore) GetAdBySlug(_ context.Context, slug string) (models.Ad, error) {
	for _, ad := range s.ads {
		if ad.Slug == slug {
			return ad, nil
		}
	}
	return models.Ad{}, models.ErrAdNotFound
}

func (s *stubAdStore) GetOwnerID(ctx context.Context, id string) (string, error) {
	ad, err := s.GetAdByID(ctx, id)
	return ad.OwnerID, err
}

func (s *stubAdStore) UpdateStatus(_ context.Context, id string, status models.AdStatus) error {
	ad, ok := s.ads[id]
	if !ok {
		return models.ErrAdNotFound
	}
	ad.Status = status
	s.ads[id] = ad
	return nil
}

func (s *stubAdStore) DeleteAd(_ context.Context, id string) error {
	if _, ok := s.ads[id]; !ok {
		return models.ErrAdNotFound
	}
	delete(s.ads, id)
	return nil
}

func (s *stubAdStore) ListAds(_ context.Context, f models.AdFilter, _ time.Time) ([]models.Ad, int, error) {
	s.filters = append(s.filters, f)
	if s.listFn != nil {
		items, total := s.listFn(f)
		return items, total, nil
	}
	return nil, 0, nil
}

func (s *stubAdStore) IncrementViews(_ context.Context, id string) error {
	s.views[id]++
	return nil
}

func (s *stubAdStore) IncrementContactClicks(_ context.Context, id string) error {
	s.clicks[id]++
	return nil
}

func (s *stubAdStore) ExpireStale(_ context.Context, before time.Time) (int, error) {
	s.expireCutoffs = append(s.expireCutoffs, before)
	n := 0
	for id, a := range s.ads {
		if a.Status == models.StatusActive && a.UpdatedAt.Before(before) {
			a.Status = models.StatusExpired
			s.ads[id] = a
			n++
		}
	}
	return n, nil
}

type stubMediaStore struct {
	media  map[string]models.AdMedia
	covers []string
	next   int
}

func newStubMediaStore(media ...models.AdMedia) *stubMediaStore {
	s := &stubMediaStore{media: map[string]models.AdMedia{}}
	for _, m := range media {
		s.media[m.ID] = m
	}
	return s
}

func (s *stubMediaStore) ListByAd(_ context.Context, adID string) ([]models.AdMedia, error) {
	var out []models.AdMedia
	for _, m := range s.media {
		if m.AdID == adID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *stubMediaStore) Create(_ context.Context, m models.AdMedia) (models.AdMedia, error) {
	s.next++
	m.ID = fmt.Sprintf("new-%d", s.next)
	s.media[m.ID] = m
	return m, nil
}

func (s *stubMediaStore) Delete(_ context.Context, id string) error {
	delete(s.media, id)
	return nil
}

func (s *stubMediaStore) SetCover(_ context.Context, adID, mediaID string) error {
	s.covers = append(s.covers, mediaID)
	for id, m := range s.media {
		if m.AdID == adID {
			m.IsCover = id == mediaID
			s.media[id] = m
		}
	}
	return nil
}

type stubProfileStore struct {
	profiles map[string]models.Profile
}

func newStubProfileStore(profiles ...models.Profile) *stubProfileStore {
	s := &stubProfileStore{profiles: map[string]models.Profile{}}
	for _, p := range profiles {
		s.profiles[p.ID] = p
	}
	return s
}

func (s *stubProfileStore) GetByID(_ context.Context, id string) (models.Profile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return models.Profile{}, models.ErrProfileNotFound
	}
	return p, nil
}

func (s *stubProfileStore) GetByUsername(_ context.Context, username string) (models.Profile, error) {
	for _, p := range s.profiles {
		if p.Username == username {
			return p, nil
		}
	}
	return models.Profile{}, models.ErrProfileNotFound
}

func (s *stubProfileStore) Create(ctx context.Context, p models.Profile) (models.Profile, error) {
	if _, err := s.GetByUsername(ctx, p.Username); err == nil {
		return models.Profile{}, models.ErrDuplicateUsername
	}
	s.profiles[p.ID] = p
	return p, nil
}

func (s *stubProfileStore) Update(ctx context.Context, p models.Profile) (models.Profile, error) {
	if other, err := s.GetByUsername(ctx, p.Username); err == nil && other.ID != p.ID {
		return models.Profile{}, models.ErrDuplicateUsername
	}
	s.profiles[p.ID] = p
	return p, nil
}

func (s *stubProfileStore) UpdateAvatar(_ context.Context, id, url string) error {
	p := s.profiles[id]
	p.AvatarURL = url
	s.profiles[id] = p
	return nil
}

type stubLocationStore []models.Location

func (s stubLocationStore) All(context.Context) ([]models.Location, error) {
	return s, nil
}

type stubCategoryStore []models.Category

func (s stubCategoryStore) List(context.Context) ([]models.Category, error) {
	return s, nil
}

type stubRatingStore struct {
	ratings map[string]models.Rating
}

func (s *stubRatingStore) Upsert(_ context.Context, r models.Rating) (models.Rating, error) {
	if s.ratings == nil {
		s.ratings = map[string]models.Rating{}
	}
	s.ratings[r.AdID+"/"+r.AuthorID] = r
	return r, nil
}

func (s *stubRatingStore) GetForAuthor(_ context.Context, adID, authorID string) (models.Rating, error) {
	r, ok := s.ratings[adID+"/"+authorID]
	if !ok {
		return models.Rating{}, models.ErrNoRecord
	}
	return r, nil
}

type stubCommentStore struct {
	comments map[string]models.Comment
}

func (s *stubCommentStore) Create(_ context.Context, c models.Comment) (models.Comment, error) {
	if s.comments == nil {
		s.comments = map[string]models.Comment{}
	}
	c.ID = fmt.Sprintf("c-%d", len(s.comments)+1)
	s.comments[c.ID] = c
	return c, nil
}

func (s *stubCommentStore) ListForAd(_ context.Context, adID, viewerID string) ([]models.Comment, error) {
	var out []models.Comment
	for _, c := range s.comments {
		if c.AdID == adID && (c.Status == models.CommentApproved || c.AuthorID == viewerID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubCommentStore) Get(_ context.Context, id string) (models.Comment, error) {
	c, ok := s.comments[id]
	if !ok {
		return models.Comment{}, models.ErrCommentNotFound
	}
	return c, nil
}

func (s *stubCommentStore) UpdateStatus(_ context.Context, id string, from, to models.CommentStatus) error {
	c, ok := s.comments[id]
	if !ok || c.Status != from {
		return models.ErrInvalidTransition
	}
	c.Status = to
	s.comments[id] = c
	return nil
}

func (s *stubCommentStore) PendingForOwner(_ context.Context, ownerID string) ([]models.Comment, error) {
	var out []models.Comment
	for _, c := range s.comments {
		if c.AdOwnerID == ownerID && c.Status == models.CommentPending {
			out = append(out, c)
		}
	}
	return out, nil
}

type stubBoostStore struct {
	until     map[string]time.Time
	clearedAt []time.Time
}

func (s *stubBoostStore) SetBoost(_ context.Context, adID string, until time.Time) error {
	if s.until == nil {
		s.until = map[string]time.Time{}
	}
	s.until[adID] = until
	return nil
}

func (s *stubBoostStore) ClearExpired(_ context.Context, now time.Time) (int, error) {
	s.clearedAt = append(s.clearedAt, now)
	n := 0
	for id, until := range s.until {
		if until.Before(now) {
			delete(s.until, id)
			n++
		}
	}
	return n, nil
}

type stubStorage struct {
	uploaded map[string][]byte
	deleted  []string
}

func (s *stubStorage) Upload(_ context.Context, bucket, key string, body io.Reader, _ int64, _ string) (string, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if s.uploaded == nil {
		s.uploaded = map[string][]byte{}
	}
	s.uploaded[bucket+"/"+key] = raw
	return "https://cdn.test/" + bucket + "/" + key, nil
}

func (s *stubStorage) Delete(_ context.Context, bucket, key string) error {
	s.deleted = append(s.deleted, bucket+"/"+key)
	return nil
}

func ptr(id int64) *int64 { return &id }

// "Tbilisi" is a subregion in Georgia and a region in Testland.
func testLocations() stubLocationStore {
	return stubLocationStore{
		{ID: 1, Name: "Kazakhstan", Type: models.LocationCountry},
		{ID: 2, Name: "Almaty Region", Type: models.LocationRegion, ParentID: ptr(1)},
		{ID: 3, Name: "Almaty", Type: models.LocationSubregion, ParentID: ptr(2)},
		{ID: 10, Name: "Georgia", Type: models.LocationCountry},
		{ID: 11, Name: "Tbilisi Region", Type: models.LocationRegion, ParentID: ptr(10)},
		{ID: 12, Name: "Tbilisi", Type: models.LocationSubregion, ParentID: ptr(11)},
		{ID: 20, Name: "Testland", Type: models.LocationCountry},
		{ID: 21, Name: "Tbilisi", Type: models.LocationRegion, ParentID: ptr(20)},
		{ID: 30, Name: "São Paulo", Type: models.LocationCountry},
	}
}

func testCategories() stubCategoryStore {
	return stubCategoryStore{{ID: 1, Name: "Electronics"}, {ID: 2, Name: "Home services"}}
}

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	mp4Bytes = append([]byte("\x00\x00\x00\x18ftypisom\x00\x00\x02\x00isomiso2"), make([]byte, 64)...)
)
