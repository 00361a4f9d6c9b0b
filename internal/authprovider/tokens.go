package authprovider

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"

	"marketBack/internal/models"
)

type userMetadata struct {
	Role     string `json:"role,omitempty"`
	Username string `json:"username,omitempty"`
}

// accessClaims mirrors the claims GoTrue puts into its access tokens.
type accessClaims struct {
	Email        string       `json:"email"`
	Role         string       `json:"role"`
	UserMetadata userMetadata `json:"user_metadata"`
	jwt.StandardClaims
}

type TokenManager struct {
	signingKey []byte
	now        func() time.Time
}

func NewTokenManager(signingKey string) (*TokenManager, error) {
	if signingKey == "" {
		return nil, errors.New("empty signing key")
	}
	return &TokenManager{signingKey: []byte(signingKey), now: time.Now}, nil
}

// Issue signs an access token for the identity and returns it with its expiry.
func (m *TokenManager) Issue(id Identity, ttl time.Duration) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		Email: id.Email,
		Role:  "authenticated",
		UserMetadata: userMetadata{
			Role:     string(id.Role),
			Username: id.Username,
		},
		StandardClaims: jwt.StandardClaims{
			Subject:   id.UserID,
			Audience:  "authenticated",
			IssuedAt:  now.Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
	})
	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (m *TokenManager) Verify(accessToken string) (*Identity, error) {
	return m.parse(accessToken, false)
}

// Subject returns the token's user id even when the token has expired.
func (m *TokenManager) Subject(accessToken string) (string, error) {
	id, err := m.parse(accessToken, true)
	if err != nil {
		return "", err
	}
	return id.UserID, nil
}

func (m *TokenManager) parse(accessToken string, skipExpiry bool) (*Identity, error) {
	if accessToken == "" {
		return nil, ErrInvalidToken
	}
	parser := &jwt.Parser{SkipClaimsValidation: skipExpiry}
	claims := &accessClaims{}
	token, err := parser.ParseWithClaims(accessToken, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.signingKey, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{
		UserID:   claims.Subject,
		Email:    claims.Email,
		Role:     models.ParseRole(claims.UserMetadata.Role),
		Username: claims.UserMetadata.Username,
	}, nil
}

func NewRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
