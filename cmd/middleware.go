package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"marketBack/internal/authprovider"
	"marketBack/internal/handlers"
	"marketBack/internal/models"
)

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy",
			"default-src 'self'; img-src 'self' https: data:; media-src 'self' https:; style-src 'self'; script-src 'self'")
		w.Header().Set("Referrer-Policy", "origin-when-cross-origin")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "deny")
		next.ServeHTTP(w, r)
	})
}

func (app *application) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.infoLog.Printf("%s - %s %s %s", r.RemoteAddr, r.Proto, r.Method, r.URL.RequestURI())
		next.ServeHTTP(w, r)
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.web.ServerError(w, r, fmt.Errorf("%s", err))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// observe records request count and latency under the route pattern, not the raw path.
func (app *application) observe(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			app.metrics.ObserveRequest(r.Method, route, rec.status, time.Since(start))
		})
	}
}

type sessionAuthenticator interface {
	Verify(accessToken string) (*authprovider.Identity, error)
	Refresh(ctx context.Context, refreshToken string) (*authprovider.Session, error)
}

func (app *application) authenticate(next http.Handler) http.Handler {
	return authenticate(app.authService, app.web, app.logger)(next)
}

// authenticate resolves the session cookies into an identity on the request context.
// An expired access token is refreshed transparently and the cookies are rewritten;
// a failed refresh clears them and the request continues anonymously.
func authenticate(auth sessionAuthenticator, web *handlers.Web, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var access, refresh string
			if c, err := r.Cookie(handlers.AccessCookie); err == nil {
				access = c.Value
			}
			if c, err := r.Cookie(handlers.RefreshCookie); err == nil {
				refresh = c.Value
			}
			if access == "" && refresh == "" {
				next.ServeHTTP(w, r)
				return
			}

			var identity *authprovider.Identity
			var err error
			if access != "" {
				identity, err = auth.Verify(access)
			}
			if access == "" || errors.Is(err, authprovider.ErrTokenExpired) {
				identity, err = nil, authprovider.ErrTokenExpired
				if refresh != "" {
					session, refreshErr := auth.Refresh(r.Context(), refresh)
					if refreshErr == nil {
						web.SetSessionCookies(w, session)
						id := session.Identity
						identity, err = &id, nil
					} else {
						logger.Debug("session refresh failed", zap.Error(refreshErr))
					}
				}
			}
			if err != nil || identity == nil {
				web.ClearSessionCookies(w)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Cookie")
			next.ServeHTTP(w, r.WithContext(handlers.WithIdentity(r.Context(), identity)))
		})
	}
}

func (app *application) requireAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handlers.IdentityFrom(r.Context()) == nil {
			target := r.URL.RequestURI()
			if r.Method != http.MethodGet {
				// a form post returns to the page that showed the form
				target = "/"
				if ref, err := url.Parse(r.Referer()); err == nil && ref.Path != "" {
					target = ref.RequestURI()
				}
			}
			http.Redirect(w, r, handlers.LoginURL(target), http.StatusSeeOther)
			return
		}
		w.Header().Add("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// requireAdvertiser checks the stored profile role, creating the profile on first visit.
func (app *application) requireAdvertiser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := handlers.IdentityFrom(r.Context())
		profile, err := app.profileService.EnsureProfile(r.Context(), *identity)
		if err != nil {
			app.web.ServerError(w, r, err)
			return
		}
		if profile.Role != models.RoleAdvertiser {
			app.web.Forbidden(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (app *application) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path + ":" + clientIP(r)
		if !app.limiter.Allow(r.Context(), key) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Too many requests, try again in a minute", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
