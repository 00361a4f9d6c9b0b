package models

import (
	"fmt"
)

type LocationType string

const (
	LocationCountry   LocationType = "country"
	LocationRegion    LocationType = "region"
	LocationSubregion LocationType = "subregion"
)

// Rank orders location types from broadest (0) to narrowest.
func (t LocationType) Rank() int {
	switch t {
	case LocationCountry:
		return 0
	case LocationRegion:
		return 1
	case LocationSubregion:
		return 2
	}
	return 3
}

type Location struct {
	ID       int64        `json:"id"`
	Name     string       `json:"name"`
	Type     LocationType `json:"type"`
	ParentID *int64       `json:"parent_id,omitempty"`
}

func (l Location) IsChildOf(parent Location) bool {
	return l.ParentID != nil && *l.ParentID == parent.ID
}

// ValidateHierarchy checks that the chosen locations form one chain:
// a country, optionally a region inside it, optionally a subregion inside that region.
func ValidateHierarchy(country Location, region, subregion *Location) error {
	if country.Type != LocationCountry {
		return fmt.Errorf("%w: %q is not a country", ErrInvalidLocation, country.Name)
	}
	if region == nil {
		if subregion != nil {
			return fmt.Errorf("%w: subregion requires a region", ErrInvalidLocation)
		}
		return nil
	}
	if region.Type != LocationRegion || !region.IsChildOf(country) {
		return fmt.Errorf("%w: %q is not a region of %q", ErrInvalidLocation, region.Name, country.Name)
	}
	if subregion == nil {
		return nil
	}
	if subregion.Type != LocationSubregion || !subregion.IsChildOf(*region) {
		return fmt.Errorf("%w: %q is not a subregion of %q", ErrInvalidLocation, subregion.Name, region.Name)
	}
	return nil
}
