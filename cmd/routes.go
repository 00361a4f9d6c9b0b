package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
	"github.com/rs/cors"

	"marketBack/internal/config"
	"marketBack/internal/storage"
	"marketBack/ui"
)

func (app *application) routes(cfg config.Config) http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders, app.authenticate)
	authMiddleware := standardMiddleware.Append(app.requireAuthentication)
	advertiserMiddleware := authMiddleware.Append(app.requireAdvertiser)

	mux := pat.New()
	mux.NotFound = standardMiddleware.ThenFunc(app.notFound)

	route := func(pattern string, chain alice.Chain, h http.HandlerFunc) http.Handler {
		return chain.Append(app.observe(pattern)).ThenFunc(h)
	}

	// Infrastructure
	mux.Get("/healthz", http.HandlerFunc(app.healthz))
	mux.Get("/metrics", app.metrics.Handler())
	mux.Get("/static/", http.FileServer(http.FS(ui.Files)))
	if local, ok := app.store.(*storage.Local); ok {
		prefix := strings.TrimRight(cfg.Storage.LocalPrefix, "/") + "/"
		mux.Get(prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(local.Dir()))))
	}

	// JSON lookups for the cascading selects
	apiMiddleware := alice.New(app.recoverPanic, app.corsHandler(cfg))
	mux.Get("/api/locations", route("/api/locations", apiMiddleware, app.locationHandler.ListLocations))
	mux.Get("/api/categories", route("/api/categories", apiMiddleware, app.categoryHandler.GetAllCategories))

	// Auth
	mux.Get("/signup", route("/signup", standardMiddleware, app.authHandler.SignUpPage))
	mux.Post("/signup", route("/signup", standardMiddleware.Append(app.rateLimit), app.authHandler.SignUp))
	mux.Get("/login", route("/login", standardMiddleware, app.authHandler.LoginPage))
	mux.Post("/login", route("/login", standardMiddleware.Append(app.rateLimit), app.authHandler.Login))
	mux.Post("/logout", route("/logout", standardMiddleware, app.authHandler.Logout))

	// Listings
	mux.Get("/ads/:slug", route("/ads/:slug", standardMiddleware, app.adHandler.ShowAd))
	mux.Post("/ads/:id/contact/:channel", route("/ads/:id/contact/:channel", authMiddleware, app.adHandler.Contact))
	mux.Post("/ads/:id/rate", route("/ads/:id/rate", authMiddleware, app.adHandler.Rate))
	mux.Post("/ads/:id/comments", route("/ads/:id/comments", authMiddleware.Append(app.rateLimit), app.adHandler.Comment))

	// Profiles
	mux.Get("/u/:username", route("/u/:username", standardMiddleware, app.profileHandler.PublicProfile))
	mux.Get("/profile", route("/profile", authMiddleware, app.profileHandler.EditProfile))
	mux.Post("/profile", route("/profile", authMiddleware, app.profileHandler.UpdateProfile))
	mux.Post("/profile/avatar", route("/profile/avatar", authMiddleware, app.profileHandler.UploadAvatar))

	// Advertiser dashboard
	mux.Get("/dashboard", route("/dashboard", advertiserMiddleware, app.dashboardHandler.Dashboard))
	mux.Get("/dashboard/ads/new", route("/dashboard/ads/new", advertiserMiddleware, app.dashboardHandler.NewAd))
	mux.Post("/dashboard/ads/new", route("/dashboard/ads/new", advertiserMiddleware, app.dashboardHandler.CreateAd))
	mux.Get("/dashboard/ads/:id/edit", route("/dashboard/ads/:id/edit", advertiserMiddleware, app.dashboardHandler.EditAd))
	mux.Post("/dashboard/ads/:id/edit", route("/dashboard/ads/:id/edit", advertiserMiddleware, app.dashboardHandler.UpdateAd))
	mux.Post("/dashboard/ads/:id/toggle", route("/dashboard/ads/:id/toggle", advertiserMiddleware, app.dashboardHandler.ToggleAd))
	mux.Post("/dashboard/ads/:id/delete", route("/dashboard/ads/:id/delete", advertiserMiddleware, app.dashboardHandler.DeleteAd))
	mux.Post("/dashboard/ads/:id/boost", route("/dashboard/ads/:id/boost", advertiserMiddleware, app.dashboardHandler.BoostAd))
	mux.Post("/dashboard/comments/:id/moderate", route("/dashboard/comments/:id/moderate", advertiserMiddleware, app.dashboardHandler.ModerateComment))

	// Feed; pat matches "/" exactly
	mux.Get("/", route("/", standardMiddleware, app.homeHandler.Home))

	return mux
}

// corsHandler opens the JSON lookups to the configured origins only.
func (app *application) corsHandler(cfg config.Config) func(http.Handler) http.Handler {
	if len(cfg.Server.AllowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowCredentials: false,
		AllowedHeaders:   []string{"Content-Type"},
	})
	return c.Handler
}

// healthz reports whether the database answers within two seconds.
func (app *application) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := app.db.PingContext(ctx); err != nil {
		app.errorLog.Printf("healthz: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("database unavailable"))
		return
	}
	_, _ = w.Write([]byte("ok"))
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.web.NotFound(w, r)
}
