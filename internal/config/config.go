package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

const DefaultPath = "config/config.yaml"

type Config struct {
	Server struct {
		Address        string        `yaml:"address" validate:"required"`
		BaseURL        string        `yaml:"base_url" validate:"omitempty,url"`
		SecureCookies  bool          `yaml:"secure_cookies"`
		ReadTimeout    time.Duration `yaml:"read_timeout" validate:"gt=0"`
		WriteTimeout   time.Duration `yaml:"write_timeout" validate:"gt=0"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
	} `yaml:"server"`
	Database struct {
		URL            string `yaml:"url" validate:"required"`
		MaxOpen        int    `yaml:"max_open" validate:"gte=1"`
		MaxIdle        int    `yaml:"max_idle" validate:"gte=0"`
		MigrateOnStart bool   `yaml:"migrate_on_start"`
	} `yaml:"database"`
	Redis struct {
		URL string `yaml:"url"`
	} `yaml:"redis"`
	Auth struct {
		Provider   string        `yaml:"provider" validate:"oneof=gotrue local"`
		URL        string        `yaml:"url" validate:"required_if=Provider gotrue"`
		AnonKey    string        `yaml:"anon_key" validate:"required_if=Provider gotrue"`
		JWTSecret  string        `yaml:"jwt_secret" validate:"required,min=16"`
		AccessTTL  time.Duration `yaml:"access_ttl" validate:"gt=0"`
		RefreshTTL time.Duration `yaml:"refresh_ttl" validate:"gt=0"`
	} `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Listings ListingsConfig `yaml:"listings"`
	RateLimit struct {
		RequestsPerMinute int `yaml:"requests_per_minute" validate:"gte=0"`
	} `yaml:"ratelimit"`
	Scheduler struct {
		BoostCleanerInterval time.Duration `yaml:"boost_cleaner_interval" validate:"gt=0"`
		ExpiryCron           string        `yaml:"expiry_cron" validate:"required"`
	} `yaml:"scheduler"`
	Log struct {
		Level       string `yaml:"level" validate:"oneof=debug info warn error"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
}

type StorageConfig struct {
	Driver        string `yaml:"driver" validate:"oneof=s3 cloudinary local"`
	AvatarsBucket string `yaml:"avatars_bucket" validate:"required"`
	MediaBucket   string `yaml:"media_bucket" validate:"required"`
	S3            struct {
		Endpoint  string `yaml:"endpoint"`
		Region    string `yaml:"region"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		PublicURL string `yaml:"public_url"`
	} `yaml:"s3"`
	CloudinaryURL string `yaml:"cloudinary_url" validate:"required_if=Driver cloudinary"`
	LocalDir      string `yaml:"local_dir" validate:"required_if=Driver local"`
	LocalPrefix   string `yaml:"local_prefix"`
}

type ListingsConfig struct {
	PageSize        int           `yaml:"page_size" validate:"gte=1,lte=50"`
	MaxMedia        int           `yaml:"max_media" validate:"gte=1"`
	MaxVideos       int           `yaml:"max_videos" validate:"gte=0"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" validate:"gt=0"`
	BoostDurations  []int         `yaml:"boost_durations" validate:"min=1,dive,gt=0"`
	ExpireAfterDays int           `yaml:"expire_after_days" validate:"gte=0"`
	ViewWindow      time.Duration `yaml:"view_window" validate:"gte=0"`
}

func defaults() Config {
	var cfg Config
	cfg.Server.Address = ":4001"
	cfg.Server.ReadTimeout = 10 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Database.MaxOpen = 10
	cfg.Database.MaxIdle = 5
	cfg.Auth.Provider = "local"
	cfg.Auth.AccessTTL = time.Hour
	cfg.Auth.RefreshTTL = 30 * 24 * time.Hour
	cfg.Storage.Driver = "local"
	cfg.Storage.AvatarsBucket = "avatars"
	cfg.Storage.MediaBucket = "ad-media"
	cfg.Storage.LocalDir = "uploads"
	cfg.Storage.LocalPrefix = "/uploads"
	cfg.Listings.PageSize = 20
	cfg.Listings.MaxMedia = 5
	cfg.Listings.MaxVideos = 1
	cfg.Listings.MaxUploadBytes = 50 << 20
	cfg.Listings.BoostDurations = []int{3, 7, 30}
	cfg.Listings.ExpireAfterDays = 60
	cfg.Listings.ViewWindow = 6 * time.Hour
	cfg.RateLimit.RequestsPerMinute = 30
	cfg.Scheduler.BoostCleanerInterval = 5 * time.Minute
	cfg.Scheduler.ExpiryCron = "0 3 * * *"
	cfg.Log.Level = "info"
	return cfg
}

// LoadConfig reads the YAML file at path (a missing file leaves defaults in place),
// applies environment overrides and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := defaults()

	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v, err := readIntEnv("PORT"); err != nil {
		return fmt.Errorf("parse PORT: %w", err)
	} else if v != nil {
		cfg.Server.Address = ":" + strconv.Itoa(*v)
	}

	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Redis.URL, "REDIS_URL")
	setString(&cfg.Auth.Provider, "AUTH_PROVIDER")
	setString(&cfg.Auth.URL, "AUTH_URL")
	setString(&cfg.Auth.AnonKey, "AUTH_ANON_KEY")
	setString(&cfg.Auth.JWTSecret, "AUTH_JWT_SECRET")
	setString(&cfg.Storage.Driver, "STORAGE_DRIVER")
	setString(&cfg.Storage.S3.Endpoint, "S3_ENDPOINT")
	setString(&cfg.Storage.S3.Region, "S3_REGION")
	setString(&cfg.Storage.S3.AccessKey, "S3_ACCESS_KEY")
	setString(&cfg.Storage.S3.SecretKey, "S3_SECRET_KEY")
	setString(&cfg.Storage.S3.PublicURL, "S3_PUBLIC_URL")
	setString(&cfg.Storage.CloudinaryURL, "CLOUDINARY_URL")
	setString(&cfg.Log.Level, "LOG_LEVEL")

	if v, err := readIntEnv("RATE_LIMIT_PER_MINUTE"); err != nil {
		return fmt.Errorf("parse RATE_LIMIT_PER_MINUTE: %w", err)
	} else if v != nil {
		cfg.RateLimit.RequestsPerMinute = *v
	}

	if v := os.Getenv("SECURE_COOKIES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse SECURE_COOKIES: %w", err)
		}
		cfg.Server.SecureCookies = b
	}
	cfg.Auth.URL = strings.TrimRight(cfg.Auth.URL, "/")
	return nil
}

func setString(dst *string, name string) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		*dst = v
	}
}

func readIntEnv(name string) (*int, error) {
	val := os.Getenv(name)
	if val == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(val)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
