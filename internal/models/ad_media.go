package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// MediaTypeFromMIME maps a sniffed content type onto a media type.
func MediaTypeFromMIME(contentType string) (MediaType, error) {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return MediaImage, nil
	case strings.HasPrefix(contentType, "video/"):
		return MediaVideo, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedMedia, contentType)
}

type AdMedia struct {
	ID         string    `json:"id"`
	AdID       string    `json:"ad_id"`
	OwnerID    string    `json:"owner_id"`
	URL        string    `json:"url"`
	StorageKey string    `json:"-"`
	Type       MediaType `json:"type"`
	IsCover    bool      `json:"is_cover"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"created_at"`
}

type MediaLimits struct {
	MaxMedia  int
	MaxVideos int
}

// CheckMediaLimits validates the media set an ad would end up with.
func CheckMediaLimits(types []MediaType, limits MediaLimits) error {
	if limits.MaxMedia > 0 && len(types) > limits.MaxMedia {
		return fmt.Errorf("%w: at most %d allowed", ErrMediaLimit, limits.MaxMedia)
	}
	videos := 0
	for _, t := range types {
		if t == MediaVideo {
			videos++
		}
	}
	if videos > limits.MaxVideos {
		return fmt.Errorf("%w: at most %d allowed", ErrVideoLimit, limits.MaxVideos)
	}
	return nil
}

// PickCover decides which medium should carry the cover flag.
// preferred wins when it is still present; otherwise the current cover is kept;
// otherwise the first image by position is promoted, then the first medium.
func PickCover(media []AdMedia, preferred string) string {
	if len(media) == 0 {
		return ""
	}
	ordered := make([]AdMedia, len(media))
	copy(ordered, media)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	if preferred != "" {
		for _, m := range ordered {
			if m.ID == preferred {
				return m.ID
			}
		}
	}
	for _, m := range ordered {
		if m.IsCover {
			return m.ID
		}
	}
	for _, m := range ordered {
		if m.Type == MediaImage {
			return m.ID
		}
	}
	return ordered[0].ID
}
