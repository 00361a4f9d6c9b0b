package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"marketBack/internal/models"
	"marketBack/internal/services"
)

type AuthHandler struct {
	*Web
	Service *services.AuthService
}

func (h *AuthHandler) SignUpPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "signup", &TemplateData{Form: models.SignUpForm{Role: string(models.RoleUser)}})
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var form models.SignUpForm
	if err := decodeForm(r, &form); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	session, err := h.Service.SignUp(r.Context(), form)
	if err != nil {
		form.Password, form.Confirm = "", ""
		if fields, ok := models.FieldErrors(err); ok {
			h.render(w, r, http.StatusUnprocessableEntity, "signup", &TemplateData{Form: form, Errors: fields})
			return
		}
		h.serverError(w, r, err)
		return
	}
	if session.ConfirmationSent || session.AccessToken == "" {
		h.redirect(w, r, "/login", "success", "Check your inbox to confirm your email, then log in.")
		return
	}
	h.SetSessionCookies(w, session)
	h.redirect(w, r, "/", "success", "Welcome to the marketplace!")
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login", &TemplateData{Form: models.LoginForm{}, Next: safeNext(r.URL.Query().Get("next"))})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var form models.LoginForm
	if err := decodeForm(r, &form); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	next := safeNext(r.PostForm.Get("next"))

	session, err := h.Service.SignIn(r.Context(), form)
	if err != nil {
		form.Password = ""
		data := &TemplateData{Form: form, Next: next}
		switch {
		case errors.Is(err, models.ErrInvalidCredentials):
			data.Errors = models.FormErrors{"form": "Email or password is incorrect"}
		case errors.Is(err, models.ErrEmailNotConfirmed):
			data.Errors = models.FormErrors{"form": "Please confirm your email before logging in"}
		default:
			fields, ok := models.FieldErrors(err)
			if !ok {
				h.serverError(w, r, err)
				return
			}
			data.Errors = fields
		}
		h.render(w, r, http.StatusUnprocessableEntity, "login", data)
		return
	}
	h.SetSessionCookies(w, session)
	h.redirect(w, r, next, "success", "You are logged in.")
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(AccessCookie); err == nil {
		if err := h.Service.SignOut(r.Context(), c.Value); err != nil {
			h.Logger.Warn("sign out", zap.Error(err))
		}
	}
	h.ClearSessionCookies(w)
	h.redirect(w, r, "/", "success", "You have been logged out.")
}
