package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"marketBack/internal/config"
)

// Store is the object storage behind avatars and listing media.
type Store interface {
	// Upload stores body under bucket/key and returns the public URL.
	Upload(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, bucket, key string) error
}

func New(cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3(cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.PublicURL)
	case "cloudinary":
		return NewCloudinary(cfg.CloudinaryURL)
	case "local", "":
		return NewLocal(cfg.LocalDir, cfg.LocalPrefix)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// cleanKey rejects keys that would escape the bucket.
func cleanKey(key string) (string, error) {
	cleaned := path.Clean("/" + strings.TrimSpace(key))[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return cleaned, nil
}
