package repositories

import (
	"strings"
	"testing"
	"time"

	"marketBack/internal/models"
)

var queryNow = time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)

func TestBuildFeedQueryPublicDefaults(t *testing.T) {
	f := models.AdFilter{}.Normalize(20)
	pageSQL, pageArgs, countSQL, countArgs := buildFeedQuery(f, queryNow)

	if !strings.Contains(pageSQL, "a.status = $1") {
		t.Fatalf("public feed must restrict to active ads: %s", pageSQL)
	}
	if countArgs[0] != "active" {
		t.Fatalf("expected active status argument, got %v", countArgs[0])
	}
	if !strings.Contains(pageSQL, "ORDER BY (a.boosted_until IS NOT NULL AND a.boosted_until > $2) DESC, a.created_at DESC") {
		t.Fatalf("featured ads must sort first, then newest: %s", pageSQL)
	}
	if !strings.HasSuffix(pageSQL, "LIMIT $3 OFFSET $4") {
		t.Fatalf("unexpected pagination clause: %s", pageSQL)
	}
	if len(pageArgs) != 4 || pageArgs[2] != 20 || pageArgs[3] != 0 {
		t.Fatalf("unexpected page args: %#v", pageArgs)
	}
	if strings.Contains(countSQL, "ORDER BY") || strings.Contains(countSQL, "$2") {
		t.Fatalf("count query must only use filter args: %s", countSQL)
	}
	if len(countArgs) != 1 {
		t.Fatalf("expected 1 count arg, got %#v", countArgs)
	}
}

func TestBuildFeedQueryMostSpecificLocationWins(t *testing.T) {
	f := models.AdFilter{CountryID: 1, RegionID: 2, SubregionID: 3}.Normalize(20)
	pageSQL, _, _, countArgs := buildFeedQuery(f, queryNow)

	if !strings.Contains(pageSQL, "a.subregion_id = $2") {
		t.Fatalf("expected subregion condition: %s", pageSQL)
	}
	if strings.Contains(pageSQL, "a.region_id =") || strings.Contains(pageSQL, "a.country_id =") {
		t.Fatalf("broader location conditions must be dropped: %s", pageSQL)
	}
	if countArgs[1] != int64(3) {
		t.Fatalf("expected subregion id argument, got %#v", countArgs[1])
	}

	f = models.AdFilter{CountryID: 1, RegionID: 2}.Normalize(20)
	pageSQL, _, _, _ = buildFeedQuery(f, queryNow)
	if !strings.Contains(pageSQL, "a.region_id = $2") {
		t.Fatalf("expected region condition: %s", pageSQL)
	}
}

func TestBuildFeedQueryFeaturedOnlySharesNowParam(t *testing.T) {
	f := models.AdFilter{FeaturedOnly: true, CategoryID: 7}.Normalize(20)
	pageSQL, pageArgs, countSQL, countArgs := buildFeedQuery(f, queryNow)

	if !strings.Contains(countSQL, "a.boosted_until > $3") {
		t.Fatalf("expected featured condition in count query: %s", countSQL)
	}
	if !strings.Contains(pageSQL, "a.boosted_until > $3) DESC") {
		t.Fatalf("order must reuse the featured now param: %s", pageSQL)
	}
	if len(countArgs) != 3 || len(pageArgs) != 5 {
		t.Fatalf("unexpected arg counts: count=%d page=%d", len(countArgs), len(pageArgs))
	}
}

func TestBuildFeedQuerySearchTagsAndRelevance(t *testing.T) {
	f := models.AdFilter{Query: "red bike", Tags: []string{"sport"}, Sort: models.SortRelevance, Page: 3, PageSize: 10}.Normalize(20)
	pageSQL, pageArgs, _, countArgs := buildFeedQuery(f, queryNow)

	if !strings.Contains(pageSQL, "websearch_to_tsquery('simple', $2)") {
		t.Fatalf("expected full text condition: %s", pageSQL)
	}
	if !strings.Contains(pageSQL, "a.tags && $3") {
		t.Fatalf("expected tag overlap condition: %s", pageSQL)
	}
	if !strings.Contains(pageSQL, "ts_rank(a.search_vector, websearch_to_tsquery('simple', $2)) DESC") {
		t.Fatalf("expected relevance ordering: %s", pageSQL)
	}
	if tags, ok := countArgs[2].([]string); !ok || tags[0] != "sport" {
		t.Fatalf("expected tags slice argument, got %#v", countArgs[2])
	}
	if pageArgs[len(pageArgs)-1] != 20 {
		t.Fatalf("expected offset 20 for page 3, got %v", pageArgs[len(pageArgs)-1])
	}
}

func TestBuildFeedQueryOwnerStatuses(t *testing.T) {
	f := models.AdFilter{
		OwnerID:  "owner-1",
		Statuses: []models.AdStatus{models.StatusActive, models.StatusInactive, models.StatusDraft},
		Sort:     models.SortPopular,
	}.Normalize(20)
	pageSQL, _, _, countArgs := buildFeedQuery(f, queryNow)

	if !strings.Contains(pageSQL, "a.status = ANY($1)") || !strings.Contains(pageSQL, "a.owner_id = $2") {
		t.Fatalf("unexpected owner conditions: %s", pageSQL)
	}
	if statuses, ok := countArgs[0].([]string); !ok || len(statuses) != 3 {
		t.Fatalf("expected statuses slice, got %#v", countArgs[0])
	}
	if !strings.Contains(pageSQL, "a.view_count DESC") {
		t.Fatalf("expected popular ordering: %s", pageSQL)
	}
}
