package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"marketBack/internal/authprovider"
	"marketBack/internal/handlers"
	"marketBack/internal/models"
	"marketBack/internal/services"
	"marketBack/ui"
)

type fakeAuthenticator struct {
	valid     map[string]authprovider.Identity
	expired   map[string]bool
	refreshes map[string]*authprovider.Session
	refreshed int
}

func (f *fakeAuthenticator) Verify(token string) (*authprovider.Identity, error) {
	if f.expired[token] {
		return nil, authprovider.ErrTokenExpired
	}
	if id, ok := f.valid[token]; ok {
		return &id, nil
	}
	return nil, authprovider.ErrInvalidToken
}

func (f *fakeAuthenticator) Refresh(ctx context.Context, token string) (*authprovider.Session, error) {
	f.refreshed++
	if s, ok := f.refreshes[token]; ok {
		return s, nil
	}
	return nil, errors.New("refresh token revoked")
}

func testWeb() *handlers.Web {
	return handlers.NewWeb(nil, []byte("0123456789abcdef0123456789abcdef"), false, time.Hour, zap.NewNop())
}

func identityEcho(seen **authprovider.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = handlers.IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func cookieValue(rr *httptest.ResponseRecorder, name string) (string, bool) {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

func TestAuthenticateValidAccessToken(t *testing.T) {
	auth := &fakeAuthenticator{valid: map[string]authprovider.Identity{"good": {UserID: "u1"}}}
	var seen *authprovider.Identity
	h := authenticate(auth, testWeb(), zap.NewNop())(identityEcho(&seen))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: handlers.AccessCookie, Value: "good"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen == nil || seen.UserID != "u1" {
		t.Fatalf("expected identity u1, got %#v", seen)
	}
	if auth.refreshed != 0 {
		t.Fatalf("a valid token must not trigger a refresh")
	}
}

func TestAuthenticateRefreshesExpiredAccessToken(t *testing.T) {
	auth := &fakeAuthenticator{
		expired: map[string]bool{"stale": true},
		refreshes: map[string]*authprovider.Session{
			"r1": {AccessToken: "fresh", RefreshToken: "r2", Identity: authprovider.Identity{UserID: "u1"}},
		},
	}
	var seen *authprovider.Identity
	h := authenticate(auth, testWeb(), zap.NewNop())(identityEcho(&seen))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: handlers.AccessCookie, Value: "stale"})
	req.AddCookie(&http.Cookie{Name: handlers.RefreshCookie, Value: "r1"})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if seen == nil || seen.UserID != "u1" {
		t.Fatalf("expected refreshed identity, got %#v", seen)
	}
	if v, _ := cookieValue(rr, handlers.AccessCookie); v != "fresh" {
		t.Fatalf("expected new access cookie, got %q", v)
	}
	if v, _ := cookieValue(rr, handlers.RefreshCookie); v != "r2" {
		t.Fatalf("expected rotated refresh cookie, got %q", v)
	}
}

func TestAuthenticateRefreshesWithoutAccessCookie(t *testing.T) {
	auth := &fakeAuthenticator{refreshes: map[string]*authprovider.Session{
		"r1": {AccessToken: "fresh", RefreshToken: "r2", Identity: authprovider.Identity{UserID: "u1"}},
	}}
	var seen *authprovider.Identity
	h := authenticate(auth, testWeb(), zap.NewNop())(identityEcho(&seen))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: handlers.RefreshCookie, Value: "r1"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen == nil || seen.UserID != "u1" {
		t.Fatalf("expected refreshed identity, got %#v", seen)
	}
}

func TestAuthenticateFailedRefreshClearsCookies(t *testing.T) {
	auth := &fakeAuthenticator{expired: map[string]bool{"stale": true}}
	var seen *authprovider.Identity
	h := authenticate(auth, testWeb(), zap.NewNop())(identityEcho(&seen))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: handlers.AccessCookie, Value: "stale"})
	req.AddCookie(&http.Cookie{Name: handlers.RefreshCookie, Value: "revoked"})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if seen != nil {
		t.Fatalf("expected anonymous request, got %#v", seen)
	}
	for _, c := range rr.Result().Cookies() {
		if c.MaxAge >= 0 {
			t.Fatalf("expected cookie %s to be cleared", c.Name)
		}
	}
}

func TestAuthenticateAnonymousSkipsProvider(t *testing.T) {
	auth := &fakeAuthenticator{}
	var seen *authprovider.Identity
	h := authenticate(auth, testWeb(), zap.NewNop())(identityEcho(&seen))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen != nil || auth.refreshed != 0 || len(rr.Result().Cookies()) != 0 {
		t.Fatalf("anonymous request should pass through untouched")
	}
}

func TestRequireAuthenticationRedirectsToLogin(t *testing.T) {
	app := &application{}
	h := app.requireAuthentication(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run for anonymous users")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard?status=active", nil))

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/login?next=%2Fdashboard%3Fstatus%3Dactive" {
		t.Fatalf("unexpected redirect %q", loc)
	}
}

func TestRequireAuthenticationPostReturnsToReferer(t *testing.T) {
	app := &application{}
	h := app.requireAuthentication(http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodPost, "/ads/a1/rate", nil)
	req.Header.Set("Referer", "https://market.test/ads/road-bike-1234")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if loc := rr.Header().Get("Location"); loc != "/login?next=%2Fads%2Froad-bike-1234" {
		t.Fatalf("unexpected redirect %q", loc)
	}
}

func TestSecureHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	secureHeaders(http.NotFoundHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	for _, name := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options"} {
		if rr.Header().Get(name) == "" {
			t.Fatalf("missing %s header", name)
		}
	}
}

func TestRecoverPanic(t *testing.T) {
	app := &application{web: testWeb()}
	h := app.recoverPanic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if rr.Header().Get("Connection") != "close" {
		t.Fatalf("expected Connection: close")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5123"
	if got := clientIP(req); got != "10.0.0.7" {
		t.Fatalf("unexpected ip %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.9" {
		t.Fatalf("unexpected forwarded ip %q", got)
	}
}

func TestLogRequest(t *testing.T) {
	var buf strings.Builder
	app := &application{infoLog: log.New(&buf, "", 0)}
	app.logRequest(http.NotFoundHandler()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ads/x", nil))
	if !strings.Contains(buf.String(), "GET /ads/x") {
		t.Fatalf("unexpected log line %q", buf.String())
	}
}

type memoryProfiles struct {
	byID    map[string]models.Profile
	created int
}

func (m *memoryProfiles) GetByID(_ context.Context, id string) (models.Profile, error) {
	p, ok := m.byID[id]
	if !ok {
		return models.Profile{}, models.ErrProfileNotFound
	}
	return p, nil
}

func (m *memoryProfiles) GetByUsername(_ context.Context, username string) (models.Profile, error) {
	for _, p := range m.byID {
		if p.Username == username {
			return p, nil
		}
	}
	return models.Profile{}, models.ErrProfileNotFound
}

func (m *memoryProfiles) Create(_ context.Context, p models.Profile) (models.Profile, error) {
	m.created++
	m.byID[p.ID] = p
	return p, nil
}

func (m *memoryProfiles) Update(_ context.Context, p models.Profile) (models.Profile, error) {
	m.byID[p.ID] = p
	return p, nil
}

func (m *memoryProfiles) UpdateAvatar(context.Context, string, string) error { return nil }

func advertiserApp(t *testing.T, profiles ...models.Profile) (*application, *memoryProfiles) {
	t.Helper()
	renderer, err := handlers.NewRenderer(ui.Files)
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	store := &memoryProfiles{byID: map[string]models.Profile{}}
	for _, p := range profiles {
		store.byID[p.ID] = p
	}
	web := handlers.NewWeb(renderer, []byte("0123456789abcdef0123456789abcdef"), false, time.Hour, zap.NewNop())
	return &application{
		web:            web,
		profileService: &services.ProfileService{Repo: store},
	}, store
}

func serveAsAdvertiser(app *application, id authprovider.Identity) (*httptest.ResponseRecorder, bool) {
	reached := false
	h := app.requireAdvertiser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req = req.WithContext(handlers.WithIdentity(req.Context(), &id))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr, reached
}

func TestRequireAdvertiserRejectsUserRole(t *testing.T) {
	app, _ := advertiserApp(t, models.Profile{ID: "u1", Username: "buyer", Role: models.RoleUser})

	// the stored role wins over whatever the token claims
	rr, reached := serveAsAdvertiser(app, authprovider.Identity{UserID: "u1", Role: models.RoleAdvertiser})

	if reached {
		t.Fatalf("a USER must not reach the dashboard")
	}
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestRequireAdvertiserAllowsAdvertiser(t *testing.T) {
	app, _ := advertiserApp(t, models.Profile{ID: "u2", Username: "seller", Role: models.RoleAdvertiser})

	rr, reached := serveAsAdvertiser(app, authprovider.Identity{UserID: "u2"})

	if !reached || rr.Code != http.StatusOK {
		t.Fatalf("advertiser should pass, got %d reached=%v", rr.Code, reached)
	}
}

func TestRequireAdvertiserCreatesMissingProfile(t *testing.T) {
	app, store := advertiserApp(t)

	rr, reached := serveAsAdvertiser(app, authprovider.Identity{UserID: "u3", Email: "shop@example.kz", Role: models.RoleAdvertiser})
	if !reached || rr.Code != http.StatusOK {
		t.Fatalf("new advertiser should pass, got %d reached=%v", rr.Code, reached)
	}
	if store.created != 1 || store.byID["u3"].Role != models.RoleAdvertiser || store.byID["u3"].Username != "shop" {
		t.Fatalf("expected profile created from identity, got %#v", store.byID["u3"])
	}

	rr, reached = serveAsAdvertiser(app, authprovider.Identity{UserID: "u4", Email: "buyer@example.kz", Role: models.RoleUser})
	if reached || rr.Code != http.StatusForbidden {
		t.Fatalf("new USER should be gated, got %d reached=%v", rr.Code, reached)
	}
	if store.created != 2 || store.byID["u4"].Role != models.RoleUser {
		t.Fatalf("expected USER profile created, got %#v", store.byID["u4"])
	}
}
