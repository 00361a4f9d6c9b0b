package main

import (
	"crypto/sha256"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"marketBack/internal/authprovider"
	"marketBack/internal/cache"
	"marketBack/internal/config"
	"marketBack/internal/handlers"
	"marketBack/internal/metrics"
	"marketBack/internal/models"
	"marketBack/internal/repositories"
	"marketBack/internal/services"
	"marketBack/internal/storage"
	"marketBack/ui"
)

type application struct {
	errorLog *log.Logger
	infoLog  *log.Logger
	logger   *zap.Logger
	db       *sql.DB
	metrics  *metrics.Metrics

	authRepo *repositories.AuthRepository
	store    storage.Store
	limiter  *cache.RateLimiter

	web *handlers.Web

	authService    *services.AuthService
	profileService *services.ProfileService
	adService      *services.AdService
	boostService   *services.BoostService

	homeHandler      *handlers.HomeHandler
	authHandler      *handlers.AuthHandler
	adHandler        *handlers.AdHandler
	dashboardHandler *handlers.DashboardHandler
	profileHandler   *handlers.ProfileHandler
	locationHandler  *handlers.LocationHandler
	categoryHandler  *handlers.CategoryHandler
}

func initializeApp(cfg config.Config, db *sql.DB, rdb *redis.Client, logger *zap.Logger, infoLog, errorLog *log.Logger) (*application, error) {
	m := metrics.New()

	// Repositories
	adRepo := repositories.NewAdRepository(db)
	mediaRepo := repositories.NewAdMediaRepository(db)
	profileRepo := repositories.NewProfileRepository(db)
	locationRepo := repositories.NewLocationRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	ratingRepo := repositories.NewRatingRepository(db)
	commentRepo := repositories.NewCommentRepository(db)
	boostRepo := repositories.NewBoostRepository(db)
	authRepo := repositories.NewAuthRepository(db)

	store, err := storage.New(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	tokens, err := authprovider.NewTokenManager(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("tokens: %w", err)
	}
	var provider authprovider.Provider
	switch cfg.Auth.Provider {
	case "gotrue":
		provider = authprovider.NewGoTrue(cfg.Auth.URL, cfg.Auth.AnonKey, tokens, logger.Named("gotrue"))
	default:
		provider = authprovider.NewLocal(authRepo, tokens, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	}

	// Services
	lookups := cache.NewJSONCache(rdb, "market:")
	locationService := services.NewLocationService(locationRepo, lookups)
	categoryService := services.NewCategoryService(categoryRepo, lookups)

	profileService := &services.ProfileService{
		Repo:          profileRepo,
		Locations:     locationService,
		Storage:       store,
		AvatarsBucket: cfg.Storage.AvatarsBucket,
		Metrics:       m,
		Logger:        logger.Named("profiles"),
	}
	authService := &services.AuthService{
		Provider: provider,
		Profiles: profileService,
		Logger:   logger.Named("auth"),
	}
	adService := &services.AdService{
		Ads:        adRepo,
		Media:      mediaRepo,
		Profiles:   profileRepo,
		Comments:   commentRepo,
		Ratings:    ratingRepo,
		Locations:  locationService,
		Categories: categoryService,
		Storage:    store,
		Views:      cache.NewViewTracker(rdb, cfg.Listings.ViewWindow),
		Metrics:    m,
		Logger:     logger.Named("ads"),
		Config: services.AdConfig{
			MediaBucket: cfg.Storage.MediaBucket,
			Limits: models.MediaLimits{
				MaxMedia:  cfg.Listings.MaxMedia,
				MaxVideos: cfg.Listings.MaxVideos,
			},
			MaxUploadBytes:  cfg.Listings.MaxUploadBytes,
			PageSize:        cfg.Listings.PageSize,
			ExpireAfterDays: cfg.Listings.ExpireAfterDays,
		},
	}
	searchService := services.NewSearchService(adService, locationService, categoryService)
	boostService := &services.BoostService{
		Ads:       adRepo,
		Repo:      boostRepo,
		Durations: cfg.Listings.BoostDurations,
		Metrics:   m,
	}
	reviewService := &services.ReviewService{
		Ads:      adRepo,
		Ratings:  ratingRepo,
		Comments: commentRepo,
		Logger:   logger.Named("reviews"),
	}

	// Handlers
	templates, err := handlers.NewRenderer(ui.Files)
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	flashKey := sha256.Sum256([]byte("flash:" + cfg.Auth.JWTSecret))
	web := handlers.NewWeb(templates, flashKey[:], cfg.Server.SecureCookies, cfg.Auth.RefreshTTL, logger.Named("web"))

	maxRequest := int64(cfg.Listings.MaxMedia)*cfg.Listings.MaxUploadBytes + 1<<20

	return &application{
		errorLog: errorLog,
		infoLog:  infoLog,
		logger:   logger,
		db:       db,
		metrics:  m,
		authRepo: authRepo,
		store:    store,
		limiter:  cache.NewRateLimiter(rdb, cfg.RateLimit.RequestsPerMinute, time.Minute),
		web:      web,

		authService:    authService,
		profileService: profileService,
		adService:      adService,
		boostService:   boostService,

		homeHandler: &handlers.HomeHandler{
			Web: web, Ads: adService, Search: searchService, Profiles: profileService,
			Locations: locationService, Categories: categoryService,
		},
		authHandler: &handlers.AuthHandler{Web: web, Service: authService},
		adHandler:   &handlers.AdHandler{Web: web, Service: adService, Reviews: reviewService},
		dashboardHandler: &handlers.DashboardHandler{
			Web: web, Ads: adService, Boosts: boostService, Reviews: reviewService,
			Locations: locationService, Categories: categoryService, MaxRequestBytes: maxRequest,
		},
		profileHandler: &handlers.ProfileHandler{
			Web: web, Service: profileService, Ads: adService, Locations: locationService,
		},
		locationHandler: &handlers.LocationHandler{Service: locationService},
		categoryHandler: &handlers.CategoryHandler{Service: categoryService},
	}, nil
}
