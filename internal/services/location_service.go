package services

import (
	"context"
	"sort"
	"time"

	"marketBack/internal/models"
)

const lookupTTL = 10 * time.Minute

type LocationService struct {
	Repo  LocationStore
	Cache LookupCache
}

func NewLocationService(repo LocationStore, cache LookupCache) *LocationService {
	return &LocationService{Repo: repo, Cache: cache}
}

// All returns every location, from cache when possible. Cache errors fall through to the database.
func (s *LocationService) All(ctx context.Context) ([]models.Location, error) {
	var locations []models.Location
	if s.Cache != nil {
		if found, err := s.Cache.Get(ctx, "locations:all", &locations); err == nil && found {
			return locations, nil
		}
	}
	locations, err := s.Repo.All(ctx)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		_ = s.Cache.Set(ctx, "locations:all", locations, lookupTTL)
	}
	return locations, nil
}

func (s *LocationService) index(ctx context.Context) (map[int64]models.Location, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]models.Location, len(all))
	for _, l := range all {
		byID[l.ID] = l
	}
	return byID, nil
}

func (s *LocationService) Countries(ctx context.Context) ([]models.Location, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Location
	for _, l := range all {
		if l.Type == models.LocationCountry {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *LocationService) Children(ctx context.Context, parentID int64) ([]models.Location, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Location
	for _, l := range all {
		if l.ParentID != nil && *l.ParentID == parentID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *LocationService) Get(ctx context.Context, id int64) (models.Location, error) {
	byID, err := s.index(ctx)
	if err != nil {
		return models.Location{}, err
	}
	l, ok := byID[id]
	if !ok {
		return models.Location{}, models.ErrLocationNotFound
	}
	return l, nil
}

// FindByName matches a location name case and accent insensitively.
func (s *LocationService) FindByName(ctx context.Context, name string) ([]models.Location, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	want := models.Fold(name)
	if want == "" {
		return nil, nil
	}
	var out []models.Location
	for _, l := range all {
		if models.Fold(l.Name) == want {
			out = append(out, l)
		}
	}
	return out, nil
}

// CountryOf walks up the parent chain to the country.
func (s *LocationService) CountryOf(ctx context.Context, id int64) (int64, error) {
	byID, err := s.index(ctx)
	if err != nil {
		return 0, err
	}
	return countryOf(byID, id), nil
}

func countryOf(byID map[int64]models.Location, id int64) int64 {
	for depth := 0; depth < 3; depth++ {
		l, ok := byID[id]
		if !ok {
			return 0
		}
		if l.Type == models.LocationCountry || l.ParentID == nil {
			return l.ID
		}
		id = *l.ParentID
	}
	return 0
}

// Path returns the country, region and subregion of an ad in that order.
func (s *LocationService) Path(ctx context.Context, ad models.Ad) ([]models.Location, error) {
	byID, err := s.index(ctx)
	if err != nil {
		return nil, err
	}
	var path []models.Location
	for _, id := range []*int64{&ad.CountryID, ad.RegionID, ad.SubregionID} {
		if id == nil {
			continue
		}
		if l, ok := byID[*id]; ok {
			path = append(path, l)
		}
	}
	return path, nil
}

// ValidateSelection checks ids picked on a form. Zero region/subregion means "not chosen".
func (s *LocationService) ValidateSelection(ctx context.Context, countryID, regionID, subregionID int64) error {
	byID, err := s.index(ctx)
	if err != nil {
		return err
	}
	country, ok := byID[countryID]
	if !ok {
		return models.ErrInvalidLocation
	}
	var region, subregion *models.Location
	if regionID > 0 {
		l, ok := byID[regionID]
		if !ok {
			return models.ErrInvalidLocation
		}
		region = &l
	}
	if subregionID > 0 {
		l, ok := byID[subregionID]
		if !ok {
			return models.ErrInvalidLocation
		}
		subregion = &l
	}
	return models.ValidateHierarchy(country, region, subregion)
}

// rankLocations orders same-named locations: the viewer's country first, then broader types.
func rankLocations(matches []models.Location, byID map[int64]models.Location, viewerCountry int64) []models.Location {
	ranked := make([]models.Location, len(matches))
	copy(ranked, matches)
	inViewerCountry := func(l models.Location) bool {
		return viewerCountry > 0 && countryOf(byID, l.ID) == viewerCountry
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if ia, ib := inViewerCountry(a), inViewerCountry(b); ia != ib {
			return ia
		}
		if a.Type.Rank() != b.Type.Rank() {
			return a.Type.Rank() < b.Type.Rank()
		}
		return a.ID < b.ID
	})
	return ranked
}
