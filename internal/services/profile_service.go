package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"

	"marketBack/internal/authprovider"
	"marketBack/internal/metrics"
	"marketBack/internal/models"
	"marketBack/internal/storage"
)

const (
	maxAvatarBytes   = 5 << 20
	usernameAttempts = 5
)

type ProfileService struct {
	Repo          ProfileStore
	Locations     *LocationService
	Storage       storage.Store
	AvatarsBucket string
	Metrics       *metrics.Metrics
	Logger        *zap.Logger
}

func (s *ProfileService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *ProfileService) GetByID(ctx context.Context, id string) (models.Profile, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *ProfileService) GetByUsername(ctx context.Context, username string) (models.Profile, error) {
	return s.Repo.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
}

// EnsureProfile returns the user's profile, creating it from the identity metadata on first use.
func (s *ProfileService) EnsureProfile(ctx context.Context, identity authprovider.Identity) (models.Profile, error) {
	p, err := s.Repo.GetByID(ctx, identity.UserID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, models.ErrProfileNotFound) {
		return models.Profile{}, err
	}

	base := baseUsername(identity.Username, identity.Email)
	candidate := base
	for attempt := 0; attempt < usernameAttempts; attempt++ {
		p, err = s.Repo.Create(ctx, models.Profile{
			ID:       identity.UserID,
			Username: candidate,
			Role:     models.ParseRole(string(identity.Role)),
		})
		if err == nil {
			s.logger().Info("profile created", zap.String("user_id", identity.UserID), zap.String("username", candidate))
			return p, nil
		}
		if !errors.Is(err, models.ErrDuplicateUsername) {
			// a concurrent request may have created it
			if existing, getErr := s.Repo.GetByID(ctx, identity.UserID); getErr == nil {
				return existing, nil
			}
			return models.Profile{}, err
		}
		candidate = withSuffix(base, rand.Intn(10000))
	}
	return models.Profile{}, fmt.Errorf("ensure profile %s: %w", identity.UserID, err)
}

// baseUsername cleans the requested username, falling back to the email's local part.
func baseUsername(requested, email string) string {
	name := cleanUsername(requested)
	if len(name) < 3 {
		local, _, _ := strings.Cut(email, "@")
		name = cleanUsername(local)
	}
	for len(name) < 3 {
		name += "_"
	}
	if len(name) > 30 {
		name = name[:30]
	}
	return name
}

func cleanUsername(s string) string {
	var b strings.Builder
	for _, r := range models.Fold(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == '.', r == '-', r == ' ':
			b.WriteByte('_')
		}
	}
	return b.String()
}

func withSuffix(base string, n int) string {
	suffix := fmt.Sprintf("_%d", n)
	if len(base)+len(suffix) > 30 {
		base = base[:30-len(suffix)]
	}
	return base + suffix
}

// UpdateProfile saves the editable profile fields.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, form models.ProfileForm) (models.Profile, error) {
	form.Normalize()
	errs := models.Validate(&form)
	if form.CountryID > 0 {
		l, err := s.Locations.Get(ctx, form.CountryID)
		switch {
		case errors.Is(err, models.ErrLocationNotFound):
			errs.Add("country_id", "Choose a country")
		case err != nil:
			return models.Profile{}, err
		case l.Type != models.LocationCountry:
			errs.Add("country_id", "Choose a country")
		}
	}
	if !errs.Valid() {
		return models.Profile{}, &models.ValidationError{Fields: errs}
	}

	p, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}
	p.Username = form.Username
	p.ContactEmail = form.ContactEmail
	p.WhatsApp = form.WhatsApp
	p.Telegram = strings.TrimPrefix(form.Telegram, "@")
	p.SocialURL = form.SocialURL
	p.CountryID = optionalID(form.CountryID)

	updated, err := s.Repo.Update(ctx, p)
	if errors.Is(err, models.ErrDuplicateUsername) {
		return models.Profile{}, models.NewValidationError("username", "This username is already taken")
	}
	return updated, err
}

// UploadAvatar stores a new avatar image and removes the previous one.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID string, upload MediaUpload) (string, error) {
	sniffed, err := sniff(upload, maxAvatarBytes)
	if err != nil {
		return "", models.WrapFieldError("avatar", err)
	}
	if sniffed.kind != models.MediaImage {
		return "", models.NewValidationError("avatar", "Avatar must be an image")
	}
	p, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	key := userID + "/" + uuid.NewString() + sniffed.ext
	url, err := s.Storage.Upload(ctx, s.AvatarsBucket, key, sniffed.body, sniffed.size, sniffed.contentType)
	if err != nil {
		s.Metrics.UploadFailed(s.AvatarsBucket)
		return "", stepErr("upload avatar", err)
	}
	if err := s.Repo.UpdateAvatar(ctx, userID, url); err != nil {
		return "", stepErr("save avatar", err)
	}

	if old := storageKeyFromURL(p.AvatarURL, s.AvatarsBucket); old != "" {
		if err := s.Storage.Delete(ctx, s.AvatarsBucket, old); err != nil {
			s.logger().Warn("delete old avatar", zap.String("user_id", userID), zap.String("key", old), zap.Error(err))
		}
	}
	return url, nil
}

// storageKeyFromURL recovers the object key from a public URL of the form .../<bucket>/<key>.
func storageKeyFromURL(url, bucket string) string {
	if url == "" || bucket == "" {
		return ""
	}
	marker := "/" + bucket + "/"
	i := strings.LastIndex(url, marker)
	if i < 0 {
		return ""
	}
	return url[i+len(marker):]
}
