package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"marketBack/internal/authprovider"
	"marketBack/internal/models"
	"marketBack/ui"
)

func testRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(ui.Files)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func renderPage(t *testing.T, r *Renderer, page string, data *TemplateData) string {
	t.Helper()
	rr := httptest.NewRecorder()
	if err := r.Render(rr, http.StatusOK, page, data); err != nil {
		t.Fatalf("render %s: %v", page, err)
	}
	return rr.Body.String()
}

func TestRendererParsesEveryPage(t *testing.T) {
	r := testRenderer(t)
	for _, page := range []string{"home", "ad", "ad_form", "dashboard", "login", "signup", "profile", "profile_public", "error"} {
		if _, ok := r.pages[page]; !ok {
			t.Fatalf("page %q was not parsed", page)
		}
	}
}

func TestRenderHomeWithSearchPlan(t *testing.T) {
	r := testRenderer(t)
	boosted := time.Now().Add(time.Hour)
	tbilisi := models.Location{ID: 12, Name: "Tbilisi", Type: models.LocationSubregion}
	data := &TemplateData{
		CurrentYear: 2026,
		Query:       FeedQuery{Q: "bike tbilisi"},
		Plan: &models.SearchPlan{
			Raw:          "bike tbilisi",
			Term:         "bike",
			Location:     &tbilisi,
			Alternatives: []models.Location{{ID: 21, Name: "Tbilisi", Type: models.LocationRegion}},
		},
		Page: models.AdPage{
			Items: []models.Ad{{
				ID: "a1", Title: "Road bike", Slug: "road-bike-1234",
				Description:  "**Fast** and light",
				BoostedUntil: &boosted,
				Tags:         []string{"bikes"},
				CreatedAt:    time.Now(),
			}},
			Total: 1, Page: 1, HasNext: true,
		},
	}

	body := renderPage(t, r, "home", data)
	for _, want := range []string{"Road bike", "Featured", "/ads/road-bike-1234", "region=21", "page=2", "Tbilisi"} {
		if !strings.Contains(body, want) {
			t.Fatalf("home page is missing %q", want)
		}
	}
	if strings.Contains(body, "<strong>Fast</strong>") {
		t.Fatalf("card excerpt should be plain text")
	}
}

func TestRenderAdDetailSanitizesDescription(t *testing.T) {
	r := testRenderer(t)
	owner := &models.Profile{ID: "u2", Username: "seller", Telegram: "seller_tg"}
	data := &TemplateData{
		User: &authprovider.Identity{UserID: "u1", Role: models.RoleUser},
		Ad: &models.AdDetail{
			Ad: models.Ad{
				ID: "a1", Title: "Sofa", Slug: "sofa-1", Status: models.StatusActive,
				Description: "Comfy **sofa** <script>alert(1)</script>",
				Owner:       owner,
				Media:       []models.AdMedia{{ID: "m1", URL: "https://cdn.test/m1.jpg", Type: models.MediaImage, IsCover: true}},
			},
			Comments: []models.Comment{{ID: "c1", AuthorUsername: "jane", Body: "Still available?", Status: models.CommentApproved}},
		},
	}

	body := renderPage(t, r, "ad", data)
	if strings.Contains(body, "<script>alert") {
		t.Fatalf("description was not sanitized")
	}
	for _, want := range []string{"<strong>sofa</strong>", "/ads/a1/contact/telegram", "/ads/a1/rate", "Still available?"} {
		if !strings.Contains(body, want) {
			t.Fatalf("ad page is missing %q", want)
		}
	}
}

func TestRenderAdFormShowsErrors(t *testing.T) {
	r := testRenderer(t)
	data := &TemplateData{
		Form:      models.AdForm{Title: "ab", Tags: []string{"a", "b"}, CountryID: 1},
		Errors:    models.FormErrors{"title": "Must be at least 3 characters"},
		Countries: []models.Location{{ID: 1, Name: "Kazakhstan", Type: models.LocationCountry}},
	}
	body := renderPage(t, r, "ad_form", data)
	for _, want := range []string{"Must be at least 3 characters", `name="country_id"`, `value="a, b"`, "selected"} {
		if !strings.Contains(body, want) {
			t.Fatalf("ad form is missing %q", want)
		}
	}
}

func TestRenderErrorPage(t *testing.T) {
	r := testRenderer(t)
	body := renderPage(t, r, "error", &TemplateData{Status: http.StatusNotFound, Message: "Gone"})
	if !strings.Contains(body, "Not found") || !strings.Contains(body, "Gone") {
		t.Fatalf("unexpected error page: %s", body)
	}
}

func TestRenderUnknownPage(t *testing.T) {
	r := testRenderer(t)
	if err := r.Render(httptest.NewRecorder(), http.StatusOK, "missing", &TemplateData{}); err == nil {
		t.Fatalf("expected an error for an unknown page")
	}
}
