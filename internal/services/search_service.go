package services

import (
	"context"
	"strings"

	"marketBack/internal/models"
)

const maxLocationWords = 3

type AdFeed interface {
	Feed(ctx context.Context, filter models.AdFilter) (models.AdPage, error)
}

// SearchService interprets the single search box on the home page.
type SearchService struct {
	Feed       AdFeed
	Locations  *LocationService
	Categories *CategoryService
}

func NewSearchService(feed AdFeed, locations *LocationService, categories *CategoryService) *SearchService {
	return &SearchService{Feed: feed, Locations: locations, Categories: categories}
}

// Plan splits raw input into a search term and an optional location or category.
// Trailing words are tried before leading ones and longer runs before shorter ones.
func (s *SearchService) Plan(ctx context.Context, raw string, viewerCountry int64) (models.SearchPlan, error) {
	words := strings.Fields(raw)
	plan := models.SearchPlan{Raw: strings.Join(words, " ")}
	if len(words) == 0 {
		return plan, nil
	}

	category, ok, err := s.Categories.FindByName(ctx, plan.Raw)
	if err != nil {
		return plan, err
	}
	if ok {
		plan.Category = &category
		return plan, nil
	}

	byID, err := s.Locations.index(ctx)
	if err != nil {
		return plan, err
	}

	n := maxLocationWords
	if len(words) < n {
		n = len(words)
	}
	for ; n > 0; n-- {
		candidates := [][2]int{{len(words) - n, len(words)}, {0, n}}
		for _, c := range candidates {
			matches, err := s.Locations.FindByName(ctx, strings.Join(words[c[0]:c[1]], " "))
			if err != nil {
				return plan, err
			}
			if len(matches) == 0 {
				continue
			}
			ranked := rankLocations(matches, byID, viewerCountry)
			plan.Location = &ranked[0]
			plan.Alternatives = ranked[1:]
			rest := append(append([]string(nil), words[:c[0]]...), words[c[1]:]...)
			plan.Term = strings.Join(rest, " ")
			return plan, nil
		}
	}

	plan.Term = plan.Raw
	return plan, nil
}

// Search runs the plan against the feed. A location-constrained search with no hits is
// repeated over the whole input without the location.
func (s *SearchService) Search(ctx context.Context, raw string, viewerCountry int64, base models.AdFilter) (models.SearchPlan, models.AdPage, error) {
	plan, err := s.Plan(ctx, raw, viewerCountry)
	if err != nil {
		return plan, models.AdPage{}, err
	}

	filter := base
	filter.Query = plan.Term
	if plan.Category != nil {
		filter.CategoryID = plan.Category.ID
	}
	if plan.Location != nil {
		filter = filter.WithLocation(*plan.Location)
	}
	page, err := s.Feed.Feed(ctx, filter)
	if err != nil {
		return plan, models.AdPage{}, err
	}

	if page.Total == 0 && plan.Location != nil && plan.Term != "" {
		retry := base.WithLocation(models.Location{})
		retry.Query = plan.Raw
		page, err = s.Feed.Feed(ctx, retry)
		if err != nil {
			return plan, models.AdPage{}, err
		}
		plan.FellBack = true
	}
	return plan, page, nil
}
