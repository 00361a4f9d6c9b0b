package handlers

import (
	"net/http"

	"marketBack/internal/services"
)

type HomeHandler struct {
	*Web
	Ads        *services.AdService
	Search     *services.SearchService
	Profiles   *services.ProfileService
	Locations  *services.LocationService
	Categories *services.CategoryService
}

// Home is the public feed. A non-empty search box goes through smart search.
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := parseFeedQuery(r.URL.Query())
	data := &TemplateData{Query: q}

	if q.Q != "" {
		plan, page, err := h.Search.Search(ctx, q.Q, h.viewerCountry(r), q.Filter())
		if err != nil {
			h.serverError(w, r, err)
			return
		}
		data.Plan, data.Page = &plan, page
	} else {
		page, err := h.Ads.Feed(ctx, q.Filter())
		if err != nil {
			h.serverError(w, r, err)
			return
		}
		data.Page = page
	}

	if err := h.loadFilters(r, data); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "home", data)
}

func (h *HomeHandler) viewerCountry(r *http.Request) int64 {
	uid := userID(r)
	if uid == "" {
		return 0
	}
	p, err := h.Profiles.GetByID(r.Context(), uid)
	if err != nil || p.CountryID == nil {
		return 0
	}
	return *p.CountryID
}

func (h *HomeHandler) loadFilters(r *http.Request, data *TemplateData) error {
	var err error
	if data.Categories, err = h.Categories.List(r.Context()); err != nil {
		return err
	}
	if data.Countries, err = h.Locations.Countries(r.Context()); err != nil {
		return err
	}
	if data.Query.CountryID > 0 {
		if data.Regions, err = h.Locations.Children(r.Context(), data.Query.CountryID); err != nil {
			return err
		}
	}
	if data.Query.RegionID > 0 {
		if data.Subregions, err = h.Locations.Children(r.Context(), data.Query.RegionID); err != nil {
			return err
		}
	}
	return nil
}
