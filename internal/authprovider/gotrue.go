package authprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"marketBack/internal/models"
)

// ProviderError is a GoTrue failure that did not map onto a known sentinel.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("auth provider: %d %s", e.Status, e.Message)
}

// GoTrue talks to a hosted GoTrue (Supabase Auth) instance over REST.
type GoTrue struct {
	baseURL string
	anonKey string
	client  *http.Client
	tokens  *TokenManager
	logger  *zap.Logger
}

func NewGoTrue(baseURL, anonKey string, tokens *TokenManager, logger *zap.Logger) *GoTrue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoTrue{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		tokens:  tokens,
		logger:  logger,
	}
}

type goTrueUser struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	UserMetadata userMetadata `json:"user_metadata"`
}

type goTrueSession struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
	ExpiresAt    int64       `json:"expires_at"`
	User         *goTrueUser `json:"user"`

	// sign-up without autoconfirm returns the bare user object
	goTrueUser
}

type goTrueError struct {
	Code             any    `json:"code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e goTrueError) text() string {
	for _, s := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// mapProviderMessage turns GoTrue's human readable messages into sentinel errors.
func mapProviderMessage(status int, msg string) error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "invalid login credentials"):
		return models.ErrInvalidCredentials
	case strings.Contains(lower, "already registered"), strings.Contains(lower, "already exists"):
		return models.ErrDuplicateEmail
	case strings.Contains(lower, "email not confirmed"):
		return models.ErrEmailNotConfirmed
	case strings.Contains(lower, "refresh token"), strings.Contains(lower, "invalid jwt"), strings.Contains(lower, "token is expired"):
		return ErrInvalidToken
	}
	return &ProviderError{Status: status, Message: msg}
}

func (g *GoTrue) do(ctx context.Context, path, bearer string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", g.anonKey)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("auth provider request %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr goTrueError
		_ = json.Unmarshal(raw, &apiErr)
		msg := apiErr.text()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		g.logger.Debug("auth provider rejected request", zap.String("path", path), zap.Int("status", resp.StatusCode), zap.String("message", msg))
		return mapProviderMessage(resp.StatusCode, msg)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode auth provider response: %w", err)
	}
	return nil
}

func (g *GoTrue) toSession(s goTrueSession) *Session {
	user := s.User
	if user == nil {
		user = &s.goTrueUser
	}
	session := &Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		Identity: Identity{
			UserID:   user.ID,
			Email:    user.Email,
			Role:     models.ParseRole(user.UserMetadata.Role),
			Username: user.UserMetadata.Username,
		},
	}
	switch {
	case s.ExpiresAt > 0:
		session.ExpiresAt = time.Unix(s.ExpiresAt, 0)
	case s.ExpiresIn > 0:
		session.ExpiresAt = time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	if s.AccessToken == "" {
		session.ConfirmationSent = true
	}
	return session
}

func (g *GoTrue) SignUp(ctx context.Context, params SignUpParams) (*Session, error) {
	payload := map[string]any{
		"email":    params.Email,
		"password": params.Password,
		"data": userMetadata{
			Role:     string(params.Role),
			Username: params.Username,
		},
	}
	var out goTrueSession
	if err := g.do(ctx, "/auth/v1/signup", "", payload, &out); err != nil {
		return nil, err
	}
	return g.toSession(out), nil
}

func (g *GoTrue) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var out goTrueSession
	payload := map[string]string{"email": email, "password": password}
	if err := g.do(ctx, "/auth/v1/token?grant_type=password", "", payload, &out); err != nil {
		return nil, err
	}
	return g.toSession(out), nil
}

func (g *GoTrue) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, ErrInvalidToken
	}
	var out goTrueSession
	payload := map[string]string{"refresh_token": refreshToken}
	if err := g.do(ctx, "/auth/v1/token?grant_type=refresh_token", "", payload, &out); err != nil {
		return nil, err
	}
	return g.toSession(out), nil
}

func (g *GoTrue) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	return g.do(ctx, "/auth/v1/logout", accessToken, nil, nil)
}

// Verify checks the access token locally with the project's JWT secret.
func (g *GoTrue) Verify(accessToken string) (*Identity, error) {
	return g.tokens.Verify(accessToken)
}
