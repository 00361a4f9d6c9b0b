package handlers

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"marketBack/internal/models"
	"marketBack/internal/services"
)

type AdHandler struct {
	*Web
	Service *services.AdService
	Reviews *services.ReviewService
}

// ShowAd renders the listing page by slug (or id) and counts the view.
func (h *AdHandler) ShowAd(w http.ResponseWriter, r *http.Request) {
	slug := getParam(r, "slug")
	if slug == "" {
		h.notFound(w, r)
		return
	}

	viewer := userID(r)
	detail, err := h.Service.GetAd(r.Context(), slug, viewer)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	if err := h.Service.RecordView(r.Context(), detail.Ad, viewer, visitorKey(r)); err != nil {
		h.Logger.Warn("record view", zap.String("ad_id", detail.Ad.ID), zap.Error(err))
	}
	h.render(w, r, http.StatusOK, "ad", &TemplateData{Ad: &detail, Form: models.CommentForm{}})
}

// Contact counts the click and sends the visitor on to the owner's channel.
func (h *AdHandler) Contact(w http.ResponseWriter, r *http.Request) {
	target, err := h.Service.RecordContactClick(r.Context(), getParam(r, "id"), getParam(r, "channel"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *AdHandler) Rate(w http.ResponseWriter, r *http.Request) {
	adID := getParam(r, "id")
	var form models.RatingForm
	if err := decodeForm(r, &form); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	_, err := h.Reviews.Rate(r.Context(), userID(r), adID, form.Value)
	switch {
	case err == nil:
		h.redirect(w, r, "/ads/"+adID, "success", "Thanks for rating this listing.")
	case errors.Is(err, models.ErrSelfRating):
		h.redirect(w, r, "/ads/"+adID, "error", "You cannot rate your own listing.")
	case errors.Is(err, models.ErrInvalidRating):
		h.redirect(w, r, "/ads/"+adID, "error", "Pick between 1 and 5 stars.")
	case errors.Is(err, models.ErrAdNotActive):
		h.notFound(w, r)
	default:
		h.serviceError(w, r, err)
	}
}

func (h *AdHandler) Comment(w http.ResponseWriter, r *http.Request) {
	adID := getParam(r, "id")
	var form models.CommentForm
	if err := decodeForm(r, &form); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	_, err := h.Reviews.AddComment(r.Context(), userID(r), adID, form.Body)
	if fields, ok := models.FieldErrors(err); ok {
		h.redirect(w, r, "/ads/"+adID, "error", "Comment: "+fields["body"])
		return
	}
	switch {
	case err == nil:
		h.redirect(w, r, "/ads/"+adID, "success", "Your comment will appear once the seller approves it.")
	case errors.Is(err, models.ErrAdNotActive):
		h.notFound(w, r)
	default:
		h.serviceError(w, r, err)
	}
}

// visitorKey identifies an anonymous visitor for view de-duplication.
func visitorKey(r *http.Request) string {
	if uid := userID(r); uid != "" {
		return "u:" + uid
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return "ip:" + strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
