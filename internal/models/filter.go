package models

import (
	"math"
	"strings"
)

type SortOption string

const (
	SortNewest    SortOption = "newest"
	SortOldest    SortOption = "oldest"
	SortPopular   SortOption = "popular"
	SortRating    SortOption = "rating"
	SortRelevance SortOption = "relevance"
)

func ParseSort(raw string) SortOption {
	switch s := SortOption(strings.ToLower(strings.TrimSpace(raw))); s {
	case SortNewest, SortOldest, SortPopular, SortRating, SortRelevance:
		return s
	}
	return SortNewest
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 50
	// MaxPage keeps the offset inside a Postgres int4.
	MaxPage = math.MaxInt32 / MaxPageSize
)

// AdFilter describes one feed query. Zero values mean "no constraint".
type AdFilter struct {
	Query        string
	CategoryID   int64
	CountryID    int64
	RegionID     int64
	SubregionID  int64
	Tags         []string
	FeaturedOnly bool
	OwnerID      string
	// Statuses restricts the visible statuses; empty means active only.
	Statuses []AdStatus
	Sort     SortOption
	Page     int
	PageSize int
}

// Normalize clamps paging and fills defaults.
func (f AdFilter) Normalize(defaultPageSize int) AdFilter {
	if defaultPageSize <= 0 {
		defaultPageSize = DefaultPageSize
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Page > MaxPage {
		f.Page = MaxPage
	}
	if f.PageSize == 0 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize < 1 {
		f.PageSize = 1
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	if f.Sort == "" {
		f.Sort = SortNewest
	}
	if f.Sort == SortRelevance && strings.TrimSpace(f.Query) == "" {
		f.Sort = SortNewest
	}
	f.Query = strings.TrimSpace(f.Query)
	if len(f.Statuses) == 0 {
		f.Statuses = []AdStatus{StatusActive}
	}
	return f
}

// LocationID returns the most specific location set on the filter and its type.
func (f AdFilter) LocationID() (int64, LocationType) {
	switch {
	case f.SubregionID > 0:
		return f.SubregionID, LocationSubregion
	case f.RegionID > 0:
		return f.RegionID, LocationRegion
	case f.CountryID > 0:
		return f.CountryID, LocationCountry
	}
	return 0, ""
}

// WithLocation replaces the location constraint with a single location.
func (f AdFilter) WithLocation(loc Location) AdFilter {
	f.CountryID, f.RegionID, f.SubregionID = 0, 0, 0
	switch loc.Type {
	case LocationCountry:
		f.CountryID = loc.ID
	case LocationRegion:
		f.RegionID = loc.ID
	case LocationSubregion:
		f.SubregionID = loc.ID
	}
	return f
}

func (f AdFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

type AdPage struct {
	Items    []Ad `json:"items"`
	Total    int  `json:"total"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
}

func NewAdPage(items []Ad, total int, f AdFilter) AdPage {
	return AdPage{
		Items:    items,
		Total:    total,
		Page:     f.Page,
		PageSize: f.PageSize,
		HasNext:  f.Page*f.PageSize < total,
	}
}

// SearchPlan is how the home page search box was interpreted.
type SearchPlan struct {
	Raw          string     `json:"raw"`
	Term         string     `json:"term"`
	Location     *Location  `json:"location,omitempty"`
	Category     *Category  `json:"category,omitempty"`
	Alternatives []Location `json:"alternatives,omitempty"`
	FellBack     bool       `json:"fell_back"`
}
