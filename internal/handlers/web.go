package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"marketBack/internal/authprovider"
	"marketBack/internal/models"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
	flashSession  = "market-flash"
)

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity stores the signed-in user on the request context.
func WithIdentity(ctx context.Context, id *authprovider.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the signed-in user, or nil for anonymous requests.
func IdentityFrom(ctx context.Context) *authprovider.Identity {
	id, _ := ctx.Value(identityKey).(*authprovider.Identity)
	return id
}

func userID(r *http.Request) string {
	if id := IdentityFrom(r.Context()); id != nil {
		return id.UserID
	}
	return ""
}

// Web holds what every page handler needs: templates, flash storage, cookies and the logger.
type Web struct {
	Templates     *Renderer
	Flashes       sessions.Store
	Logger        *zap.Logger
	SecureCookies bool
	RefreshTTL    time.Duration
}

func NewWeb(templates *Renderer, sessionKey []byte, secure bool, refreshTTL time.Duration, logger *zap.Logger) *Web {
	store := sessions.NewCookieStore(sessionKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Web{Templates: templates, Flashes: store, Logger: logger, SecureCookies: secure, RefreshTTL: refreshTTL}
}

// SetSessionCookies writes the access and refresh tokens as HttpOnly cookies.
func (web *Web) SetSessionCookies(w http.ResponseWriter, s *authprovider.Session) {
	access := &http.Cookie{
		Name:     AccessCookie,
		Value:    s.AccessToken,
		Path:     "/",
		MaxAge:   int(web.RefreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   web.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, access)
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    s.RefreshToken,
		Path:     "/",
		MaxAge:   int(web.RefreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   web.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (web *Web) ClearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   web.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

type Flash struct {
	Kind    string
	Message string
}

func (web *Web) putFlash(w http.ResponseWriter, r *http.Request, kind, msg string) {
	session, err := web.Flashes.Get(r, flashSession)
	if err != nil && session == nil {
		web.Logger.Warn("flash session", zap.Error(err))
		return
	}
	session.AddFlash(msg, kind)
	if err := session.Save(r, w); err != nil {
		web.Logger.Warn("save flash", zap.Error(err))
	}
}

func (web *Web) popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	session, err := web.Flashes.Get(r, flashSession)
	if err != nil || session == nil {
		return nil
	}
	var flash *Flash
	for _, kind := range []string{"success", "error"} {
		for _, v := range session.Flashes(kind) {
			if msg, ok := v.(string); ok {
				flash = &Flash{Kind: kind, Message: msg}
			}
		}
	}
	if flash != nil {
		_ = session.Save(r, w)
	}
	return flash
}

// redirect follows the post/redirect/get pattern with an optional toast.
func (web *Web) redirect(w http.ResponseWriter, r *http.Request, target, kind, msg string) {
	if msg != "" {
		web.putFlash(w, r, kind, msg)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (web *Web) render(w http.ResponseWriter, r *http.Request, status int, page string, data *TemplateData) {
	if data == nil {
		data = &TemplateData{}
	}
	data.CurrentYear = time.Now().Year()
	data.User = IdentityFrom(r.Context())
	data.Path = r.URL.Path
	if data.Flash == nil {
		data.Flash = web.popFlash(w, r)
	}
	if err := web.Templates.Render(w, status, page, data); err != nil {
		web.serverError(w, r, err)
	}
}

func (web *Web) serverError(w http.ResponseWriter, r *http.Request, err error) {
	web.Logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (web *Web) notFound(w http.ResponseWriter, r *http.Request) {
	web.render(w, r, http.StatusNotFound, "error", &TemplateData{Status: http.StatusNotFound, Message: "This page does not exist or is no longer available."})
}

func (web *Web) forbidden(w http.ResponseWriter, r *http.Request) {
	web.render(w, r, http.StatusForbidden, "error", &TemplateData{Status: http.StatusForbidden, Message: "You are not allowed to do that."})
}

// NotFound renders the 404 page for unmatched routes.
func (web *Web) NotFound(w http.ResponseWriter, r *http.Request) {
	web.notFound(w, r)
}

// Forbidden renders the 403 page; the role gate in cmd uses it.
func (web *Web) Forbidden(w http.ResponseWriter, r *http.Request) {
	web.forbidden(w, r)
}

// ServerError logs err and answers 500; used by middleware outside this package.
func (web *Web) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	web.serverError(w, r, err)
}

// serviceError maps domain errors onto error pages.
func (web *Web) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrAdNotFound),
		errors.Is(err, models.ErrProfileNotFound),
		errors.Is(err, models.ErrCommentNotFound),
		errors.Is(err, models.ErrUnknownContact),
		errors.Is(err, models.ErrNoRecord):
		web.notFound(w, r)
	case errors.Is(err, models.ErrForbidden):
		web.forbidden(w, r)
	default:
		web.serverError(w, r, err)
	}
}

// LoginURL sends the visitor to the login page and back to next afterwards.
func LoginURL(next string) string {
	return "/login?next=" + url.QueryEscape(next)
}

// safeNext only allows local paths as post-login redirects.
func safeNext(next string) string {
	if next == "" || next[0] != '/' || (len(next) > 1 && (next[1] == '/' || next[1] == '\\')) {
		return "/"
	}
	return next
}
