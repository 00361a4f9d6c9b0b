package authprovider

import (
	"context"
	"errors"
	"time"

	"marketBack/internal/models"
)

var (
	ErrTokenExpired = errors.New("authprovider: token expired")
	ErrInvalidToken = errors.New("authprovider: invalid token")
)

// Identity is who a verified access token belongs to.
type Identity struct {
	UserID   string      `json:"user_id"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	Username string      `json:"username"`
}

type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Identity     Identity
	// ConfirmationSent is set when sign-up succeeded but the provider wants the email confirmed first.
	ConfirmationSent bool
}

type SignUpParams struct {
	Email    string
	Password string
	Username string
	Role     models.Role
}

// Provider is the authentication backend: a hosted GoTrue service or the local store.
type Provider interface {
	SignUp(ctx context.Context, params SignUpParams) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	Verify(accessToken string) (*Identity, error)
}
