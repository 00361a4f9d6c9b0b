package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"marketBack/internal/authprovider"
	"marketBack/internal/models"
)

// AuthService puts form validation and profile bootstrapping in front of the auth provider.
type AuthService struct {
	Provider authprovider.Provider
	Profiles *ProfileService
	Logger   *zap.Logger
}

func (s *AuthService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *AuthService) SignUp(ctx context.Context, form models.SignUpForm) (*authprovider.Session, error) {
	form.Email = strings.ToLower(strings.TrimSpace(form.Email))
	form.Username = strings.ToLower(strings.TrimSpace(form.Username))
	if errs := models.Validate(&form); !errs.Valid() {
		return nil, &models.ValidationError{Fields: errs}
	}
	if _, err := s.Profiles.GetByUsername(ctx, form.Username); err == nil {
		return nil, models.NewValidationError("username", "This username is already taken")
	} else if !errors.Is(err, models.ErrProfileNotFound) {
		return nil, err
	}

	session, err := s.Provider.SignUp(ctx, authprovider.SignUpParams{
		Email:    form.Email,
		Password: form.Password,
		Username: form.Username,
		Role:     models.ParseRole(form.Role),
	})
	if errors.Is(err, models.ErrDuplicateEmail) {
		return nil, models.NewValidationError("email", "An account with this email already exists")
	}
	if err != nil {
		return nil, err
	}
	if session.ConfirmationSent {
		s.logger().Info("sign-up pending email confirmation", zap.String("email", form.Email))
		return session, nil
	}
	if _, err := s.Profiles.EnsureProfile(ctx, session.Identity); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *AuthService) SignIn(ctx context.Context, form models.LoginForm) (*authprovider.Session, error) {
	form.Email = strings.ToLower(strings.TrimSpace(form.Email))
	if errs := models.Validate(&form); !errs.Valid() {
		return nil, &models.ValidationError{Fields: errs}
	}
	session, err := s.Provider.SignIn(ctx, form.Email, form.Password)
	if err != nil {
		return nil, err
	}
	if _, err := s.Profiles.EnsureProfile(ctx, session.Identity); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *AuthService) SignOut(ctx context.Context, accessToken string) error {
	return s.Provider.SignOut(ctx, accessToken)
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*authprovider.Session, error) {
	return s.Provider.Refresh(ctx, refreshToken)
}

func (s *AuthService) Verify(accessToken string) (*authprovider.Identity, error) {
	return s.Provider.Verify(accessToken)
}
