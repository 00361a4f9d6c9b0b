package services

import (
	"context"
	"testing"

	"marketBack/internal/models"
)

type stubFeed struct {
	filters []models.AdFilter
	// hits returns the total for a filter
	hits func(models.AdFilter) int
}

func (s *stubFeed) Feed(_ context.Context, f models.AdFilter) (models.AdPage, error) {
	s.filters = append(s.filters, f)
	total := 0
	if s.hits != nil {
		total = s.hits(f)
	}
	return models.AdPage{Total: total, Page: 1, PageSize: 20}, nil
}

func newSearchService(feed *stubFeed) *SearchService {
	return NewSearchService(feed, NewLocationService(testLocations(), nil), NewCategoryService(testCategories(), nil))
}

func TestPlanExtractsTrailingLocation(t *testing.T) {
	svc := newSearchService(&stubFeed{})

	plan, err := svc.Plan(context.Background(), "  road   bike almaty ", 0)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Location == nil || plan.Location.ID != 3 {
		t.Fatalf("expected Almaty, got %+v", plan.Location)
	}
	if plan.Term != "road bike" {
		t.Fatalf("unexpected term %q", plan.Term)
	}
}

func TestPlanPrefersLongestRun(t *testing.T) {
	svc := newSearchService(&stubFeed{})

	plan, err := svc.Plan(context.Background(), "plumber almaty region", 0)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Location == nil || plan.Location.ID != 2 || plan.Term != "plumber" {
		t.Fatalf("unexpected plan %+v", plan)
	}
}

func TestPlanMatchesLeadingLocationAndAccents(t *testing.T) {
	svc := newSearchService(&stubFeed{})

	plan, err := svc.Plan(context.Background(), "Sao Paulo guitar lessons", 0)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Location == nil || plan.Location.ID != 30 || plan.Term != "guitar lessons" {
		t.Fatalf("unexpected plan %+v", plan)
	}
}

func TestPlanAmbiguityPrefersViewerCountry(t *testing.T) {
	svc := newSearchService(&stubFeed{})
	ctx := context.Background()

	plan, err := svc.Plan(ctx, "apartment tbilisi", 10)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Location == nil || plan.Location.ID != 12 {
		t.Fatalf("expected Georgian Tbilisi, got %+v", plan.Location)
	}
	if len(plan.Alternatives) != 1 || plan.Alternatives[0].ID != 21 {
		t.Fatalf("unexpected alternatives %+v", plan.Alternatives)
	}

	plan, err = svc.Plan(ctx, "apartment tbilisi", 0)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Location == nil || plan.Location.ID != 21 {
		t.Fatalf("expected the broader region without a viewer country, got %+v", plan.Location)
	}
}

func TestPlanWholeInputCategory(t *testing.T) {
	svc := newSearchService(&stubFeed{})

	plan, err := svc.Plan(context.Background(), "home SERVICES", 0)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Category == nil || plan.Category.ID != 2 || plan.Term != "" {
		t.Fatalf("unexpected plan %+v", plan)
	}
}

func TestSearchFallsBackWithoutLocation(t *testing.T) {
	feed := &stubFeed{hits: func(f models.AdFilter) int {
		if f.SubregionID != 0 {
			return 0
		}
		return 4
	}}
	svc := newSearchService(feed)

	plan, page, err := svc.Search(context.Background(), "bike almaty", 0, models.AdFilter{Sort: models.SortNewest})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !plan.FellBack || page.Total != 4 {
		t.Fatalf("expected fallback with 4 hits, got plan=%+v total=%d", plan, page.Total)
	}
	if len(feed.filters) != 2 {
		t.Fatalf("expected 2 feed calls, got %d", len(feed.filters))
	}
	retry := feed.filters[1]
	if retry.Query != "bike almaty" || retry.SubregionID != 0 || retry.RegionID != 0 || retry.CountryID != 0 {
		t.Fatalf("unexpected fallback filter %+v", retry)
	}
}

func TestSearchNoFallbackWhenOnlyLocation(t *testing.T) {
	feed := &stubFeed{}
	svc := newSearchService(feed)

	plan, _, err := svc.Search(context.Background(), "almaty", 0, models.AdFilter{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if plan.FellBack || len(feed.filters) != 1 {
		t.Fatalf("did not expect a fallback: %+v", plan)
	}
	if feed.filters[0].SubregionID != 3 || feed.filters[0].Query != "" {
		t.Fatalf("unexpected filter %+v", feed.filters[0])
	}
}
