package authprovider

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"marketBack/internal/models"
)

type UserStore interface {
	CreateUser(ctx context.Context, user models.AuthUser) (models.AuthUser, error)
	GetUserByEmail(ctx context.Context, email string) (models.AuthUser, error)
	GetUserByID(ctx context.Context, id string) (models.AuthUser, error)
	CreateSession(ctx context.Context, s models.AuthSession) error
	GetSession(ctx context.Context, refreshToken string) (models.AuthSession, error)
	DeleteSession(ctx context.Context, refreshToken string) error
	DeleteUserSessions(ctx context.Context, userID string) error
}

// Local keeps accounts in Postgres for development and self-hosted setups.
// Accounts are confirmed on sign-up.
type Local struct {
	Users      UserStore
	Tokens     *TokenManager
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

func NewLocal(users UserStore, tokens *TokenManager, accessTTL, refreshTTL time.Duration) *Local {
	return &Local{Users: users, Tokens: tokens, AccessTTL: accessTTL, RefreshTTL: refreshTTL, Now: time.Now}
}

func (l *Local) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *Local) SignUp(ctx context.Context, params SignUpParams) (*Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	confirmed := l.now().UTC()
	user, err := l.Users.CreateUser(ctx, models.AuthUser{
		Email:            strings.ToLower(strings.TrimSpace(params.Email)),
		PasswordHash:     string(hash),
		Role:             params.Role,
		Username:         params.Username,
		EmailConfirmedAt: &confirmed,
	})
	if err != nil {
		return nil, err
	}
	return l.issue(ctx, user)
}

func (l *Local) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := l.Users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, models.ErrNoRecord) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}
	if user.EmailConfirmedAt == nil {
		return nil, models.ErrEmailNotConfirmed
	}
	return l.issue(ctx, user)
}

// Refresh rotates the refresh token: the presented one is consumed.
func (l *Local) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, ErrInvalidToken
	}
	stored, err := l.Users.GetSession(ctx, refreshToken)
	if errors.Is(err, models.ErrNoRecord) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if err := l.Users.DeleteSession(ctx, refreshToken); err != nil {
		return nil, err
	}
	if !stored.ExpiresAt.After(l.now()) {
		return nil, ErrInvalidToken
	}
	user, err := l.Users.GetUserByID(ctx, stored.UserID)
	if errors.Is(err, models.ErrNoRecord) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return l.issue(ctx, user)
}

func (l *Local) SignOut(ctx context.Context, accessToken string) error {
	userID, err := l.Tokens.Subject(accessToken)
	if err != nil {
		return nil
	}
	return l.Users.DeleteUserSessions(ctx, userID)
}

func (l *Local) Verify(accessToken string) (*Identity, error) {
	return l.Tokens.Verify(accessToken)
}

func (l *Local) issue(ctx context.Context, user models.AuthUser) (*Session, error) {
	identity := Identity{UserID: user.ID, Email: user.Email, Role: user.Role, Username: user.Username}
	access, expiresAt, err := l.Tokens.Issue(identity, l.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := NewRefreshToken()
	if err != nil {
		return nil, err
	}
	err = l.Users.CreateSession(ctx, models.AuthSession{
		RefreshToken: refresh,
		UserID:       user.ID,
		ExpiresAt:    l.now().Add(l.RefreshTTL),
	})
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		Identity:     identity,
	}, nil
}
