package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"marketBack/internal/models"
	"marketBack/internal/services"
)

const multipartMemory = 32 << 20

// DashboardHandler serves the advertiser-only pages.
type DashboardHandler struct {
	*Web
	Ads        *services.AdService
	Boosts     *services.BoostService
	Reviews    *services.ReviewService
	Locations  *services.LocationService
	Categories *services.CategoryService
	// MaxRequestBytes caps a whole ad form submission including files.
	MaxRequestBytes int64
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	status := models.AdStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() && status != models.StatusExpired {
		status = ""
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	ads, err := h.Ads.ListByOwner(r.Context(), uid, status, page)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	pending, err := h.Reviews.PendingForOwner(r.Context(), uid)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "dashboard", &TemplateData{
		Page:      ads,
		Comments:  pending,
		Durations: h.Boosts.Durations,
		Filter:    status,
	})
}

func (h *DashboardHandler) NewAd(w http.ResponseWriter, r *http.Request) {
	data := &TemplateData{Form: models.AdForm{Status: string(models.StatusActive)}}
	if err := h.loadFormData(r, data, models.AdForm{}); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "ad_form", data)
}

func (h *DashboardHandler) CreateAd(w http.ResponseWriter, r *http.Request) {
	form, changes, closeAll, ok := h.parseAdForm(w, r)
	if !ok {
		return
	}
	defer closeAll()

	ad, err := h.Ads.CreateAd(r.Context(), userID(r), form, changes)
	if err != nil {
		h.handleSaveError(w, r, err, form, nil, ad)
		return
	}
	h.redirect(w, r, "/dashboard", "success", "Your listing has been published.")
}

func (h *DashboardHandler) EditAd(w http.ResponseWriter, r *http.Request) {
	ad, err := h.Ads.GetOwned(r.Context(), userID(r), getParam(r, "id"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	form := formFromAd(ad)
	data := &TemplateData{Form: form, Editing: &ad}
	if err := h.loadFormData(r, data, form); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "ad_form", data)
}

func (h *DashboardHandler) UpdateAd(w http.ResponseWriter, r *http.Request) {
	adID := getParam(r, "id")
	form, changes, closeAll, ok := h.parseAdForm(w, r)
	if !ok {
		return
	}
	defer closeAll()

	ad, err := h.Ads.UpdateAd(r.Context(), userID(r), adID, form, changes)
	if err != nil {
		editing, loadErr := h.Ads.GetOwned(r.Context(), userID(r), adID)
		if loadErr != nil {
			h.serviceError(w, r, loadErr)
			return
		}
		h.handleSaveError(w, r, err, form, &editing, ad)
		return
	}
	h.redirect(w, r, "/dashboard", "success", "Your changes have been saved.")
}

func (h *DashboardHandler) parseAdForm(w http.ResponseWriter, r *http.Request) (models.AdForm, services.MediaChanges, func(), bool) {
	if h.MaxRequestBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxRequestBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		http.Error(w, "The upload is too large or malformed", http.StatusRequestEntityTooLarge)
		return models.AdForm{}, services.MediaChanges{}, nil, false
	}
	var form models.AdForm
	if err := decodeForm(r, &form); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return models.AdForm{}, services.MediaChanges{}, nil, false
	}
	changes, closeAll, err := mediaChangesFromForm(r.MultipartForm)
	if err != nil {
		http.Error(w, "Invalid media selection", http.StatusBadRequest)
		return models.AdForm{}, services.MediaChanges{}, nil, false
	}
	return form, changes, closeAll, true
}

// handleSaveError re-renders the form for field errors. A failed media step after the
// ad row was written sends the owner to the edit page with the step named.
func (h *DashboardHandler) handleSaveError(w http.ResponseWriter, r *http.Request, err error, form models.AdForm, editing *models.Ad, saved models.Ad) {
	if fields, ok := models.FieldErrors(err); ok {
		data := &TemplateData{Form: form, Errors: fields, Editing: editing}
		if err := h.loadFormData(r, data, form); err != nil {
			h.serverError(w, r, err)
			return
		}
		h.render(w, r, http.StatusUnprocessableEntity, "ad_form", data)
		return
	}
	var stepErr *services.StepError
	if errors.As(err, &stepErr) && saved.ID != "" {
		h.Logger.Error("ad media step failed", zap.String("ad_id", saved.ID), zap.String("step", stepErr.Step), zap.Error(stepErr.Err))
		h.redirect(w, r, "/dashboard/ads/"+saved.ID+"/edit", "error",
			"The listing was saved, but the "+stepErr.Step+" step failed. Please try again.")
		return
	}
	h.serviceError(w, r, err)
}

func (h *DashboardHandler) loadFormData(r *http.Request, data *TemplateData, form models.AdForm) error {
	var err error
	if data.Categories, err = h.Categories.List(r.Context()); err != nil {
		return err
	}
	if data.Countries, err = h.Locations.Countries(r.Context()); err != nil {
		return err
	}
	if form.CountryID > 0 {
		if data.Regions, err = h.Locations.Children(r.Context(), form.CountryID); err != nil {
			return err
		}
	}
	if form.RegionID > 0 {
		if data.Subregions, err = h.Locations.Children(r.Context(), form.RegionID); err != nil {
			return err
		}
	}
	return nil
}

func formFromAd(ad models.Ad) models.AdForm {
	form := models.AdForm{
		Title:       ad.Title,
		Description: ad.Description,
		CategoryID:  ad.CategoryID,
		CountryID:   ad.CountryID,
		Tags:        ad.Tags,
		Status:      string(ad.Status),
	}
	if ad.RegionID != nil {
		form.RegionID = *ad.RegionID
	}
	if ad.SubregionID != nil {
		form.SubregionID = *ad.SubregionID
	}
	if !ad.Status.Valid() {
		form.Status = string(models.StatusInactive)
	}
	return form
}

func (h *DashboardHandler) ToggleAd(w http.ResponseWriter, r *http.Request) {
	status, err := h.Ads.ToggleStatus(r.Context(), userID(r), getParam(r, "id"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.redirect(w, r, "/dashboard", "success", "Listing is now "+string(status)+".")
}

func (h *DashboardHandler) DeleteAd(w http.ResponseWriter, r *http.Request) {
	if err := h.Ads.DeleteAd(r.Context(), userID(r), getParam(r, "id")); err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.redirect(w, r, "/dashboard", "success", "Listing deleted.")
}

func (h *DashboardHandler) BoostAd(w http.ResponseWriter, r *http.Request) {
	var req models.BoostRequest
	if err := decodeForm(r, &req); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	req.AdID = getParam(r, "id")

	until, err := h.Boosts.Boost(r.Context(), userID(r), req)
	if services.IsBoostError(err) {
		h.redirect(w, r, "/dashboard", "error", "This listing cannot be boosted: "+err.Error())
		return
	}
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.redirect(w, r, "/dashboard", "success", "Listing featured until "+humanDate(until)+".")
}

func (h *DashboardHandler) ModerateComment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	approve := r.PostForm.Get("decision") == "approve"

	_, err := h.Reviews.ModerateComment(r.Context(), userID(r), getParam(r, "id"), approve)
	switch {
	case err == nil && approve:
		h.redirect(w, r, "/dashboard", "success", "Comment approved.")
	case err == nil:
		h.redirect(w, r, "/dashboard", "success", "Comment rejected.")
	case errors.Is(err, models.ErrInvalidTransition):
		h.redirect(w, r, "/dashboard", "error", "This comment has already been moderated.")
	default:
		h.serviceError(w, r, err)
	}
}
