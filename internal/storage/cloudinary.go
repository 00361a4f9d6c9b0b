package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Cloudinary maps buckets onto folders and keys onto public ids.
type Cloudinary struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinary(url string) (*Cloudinary, error) {
	if url == "" {
		return nil, errors.New("cloudinary url is empty")
	}
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("cloudinary configuration error: %w", err)
	}
	return &Cloudinary{cld: cld}, nil
}

func publicID(key string) string {
	return strings.TrimSuffix(key, path.Ext(key))
}

func (c *Cloudinary) Upload(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	res, err := c.cld.Upload.Upload(ctx, body, uploader.UploadParams{
		Folder:       bucket,
		PublicID:     publicID(key),
		ResourceType: "auto",
	})
	if err != nil {
		return "", fmt.Errorf("upload to cloudinary: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("upload to cloudinary: %s", res.Error.Message)
	}
	return res.SecureURL, nil
}

// Delete tries the image resource type first and falls back to video.
func (c *Cloudinary) Delete(ctx context.Context, bucket, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	id := bucket + "/" + publicID(key)
	for _, resourceType := range []string{"image", "video"} {
		res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: id, ResourceType: resourceType})
		if err != nil {
			return fmt.Errorf("destroy %s: %w", id, err)
		}
		if res.Result == "ok" {
			return nil
		}
	}
	return nil
}
