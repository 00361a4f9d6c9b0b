package handlers

import (
	"net/http"
	"strconv"

	"marketBack/internal/models"
	"marketBack/internal/services"
)

const maxAvatarRequest = 6 << 20

type ProfileHandler struct {
	*Web
	Service   *services.ProfileService
	Ads       *services.AdService
	Locations *services.LocationService
}

// PublicProfile shows a user's contact channels and active listings.
func (h *ProfileHandler) PublicProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Service.GetByUsername(r.Context(), getParam(r, "username"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	ads, err := h.Ads.Feed(r.Context(), models.AdFilter{OwnerID: profile.ID, Page: page})
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "profile_public", &TemplateData{Profile: &profile, Page: ads})
}

func (h *ProfileHandler) EditProfile(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	profile, err := h.Service.EnsureProfile(r.Context(), *identity)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	form := models.ProfileForm{
		Username:     profile.Username,
		ContactEmail: profile.ContactEmail,
		WhatsApp:     profile.WhatsApp,
		Telegram:     profile.Telegram,
		SocialURL:    profile.SocialURL,
	}
	if profile.CountryID != nil {
		form.CountryID = *profile.CountryID
	}
	h.renderEdit(w, r, http.StatusOK, &profile, form, nil)
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var form models.ProfileForm
	if err := decodeForm(r, &form); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	_, err := h.Service.UpdateProfile(r.Context(), userID(r), form)
	if fields, ok := models.FieldErrors(err); ok {
		profile, loadErr := h.Service.GetByID(r.Context(), userID(r))
		if loadErr != nil {
			h.serviceError(w, r, loadErr)
			return
		}
		h.renderEdit(w, r, http.StatusUnprocessableEntity, &profile, form, fields)
		return
	}
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.redirect(w, r, "/profile", "success", "Profile updated.")
}

func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarRequest)
	if err := r.ParseMultipartForm(maxAvatarRequest); err != nil {
		h.redirect(w, r, "/profile", "error", "Avatar must be an image up to 5 MB.")
		return
	}
	files := collectMediaFiles(r.MultipartForm, "avatar")
	if len(files) == 0 {
		h.redirect(w, r, "/profile", "error", "Choose an image to upload.")
		return
	}
	f, err := files[0].Open()
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	defer f.Close()

	_, err = h.Service.UploadAvatar(r.Context(), userID(r), services.MediaUpload{
		Filename: files[0].Filename,
		Size:     files[0].Size,
		Body:     f,
	})
	if fields, ok := models.FieldErrors(err); ok {
		h.redirect(w, r, "/profile", "error", fields["avatar"])
		return
	}
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.redirect(w, r, "/profile", "success", "Avatar updated.")
}

func (h *ProfileHandler) renderEdit(w http.ResponseWriter, r *http.Request, status int, profile *models.Profile, form models.ProfileForm, errs models.FormErrors) {
	countries, err := h.Locations.Countries(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, status, "profile", &TemplateData{Profile: profile, Form: form, Errors: errs, Countries: countries})
}
