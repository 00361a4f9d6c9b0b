package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"marketBack/internal/models"
)

type AuthRepository struct {
	DB *sql.DB
}

func NewAuthRepository(db *sql.DB) *AuthRepository {
	return &AuthRepository{DB: db}
}

func (r *AuthRepository) CreateUser(ctx context.Context, user models.AuthUser) (models.AuthUser, error) {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO auth_users (email, password_hash, role, username, email_confirmed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		strings.ToLower(user.Email), user.PasswordHash, string(user.Role), user.Username, user.EmailConfirmedAt,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return models.AuthUser{}, models.ErrDuplicateEmail
		}
		return models.AuthUser{}, err
	}
	return user, nil
}

func (r *AuthRepository) getUser(ctx context.Context, cond string, arg any) (models.AuthUser, error) {
	var (
		u         models.AuthUser
		role      string
		confirmed sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, email, password_hash, role, username, email_confirmed_at, created_at
		FROM auth_users WHERE `+cond, arg,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.Username, &confirmed, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AuthUser{}, models.ErrNoRecord
	}
	if err != nil {
		return models.AuthUser{}, err
	}
	u.Role = models.ParseRole(role)
	if confirmed.Valid {
		u.EmailConfirmedAt = &confirmed.Time
	}
	return u, nil
}

func (r *AuthRepository) GetUserByEmail(ctx context.Context, email string) (models.AuthUser, error) {
	return r.getUser(ctx, "email = $1", strings.ToLower(email))
}

func (r *AuthRepository) GetUserByID(ctx context.Context, id string) (models.AuthUser, error) {
	return r.getUser(ctx, "id = $1", id)
}

func (r *AuthRepository) CreateSession(ctx context.Context, s models.AuthSession) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO auth_sessions (refresh_token, user_id, expires_at) VALUES ($1, $2, $3)`,
		s.RefreshToken, s.UserID, s.ExpiresAt.UTC())
	return err
}

func (r *AuthRepository) GetSession(ctx context.Context, refreshToken string) (models.AuthSession, error) {
	s := models.AuthSession{RefreshToken: refreshToken}
	err := r.DB.QueryRowContext(ctx,
		`SELECT user_id, expires_at FROM auth_sessions WHERE refresh_token = $1`, refreshToken,
	).Scan(&s.UserID, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AuthSession{}, models.ErrNoRecord
	}
	return s, err
}

func (r *AuthRepository) DeleteSession(ctx context.Context, refreshToken string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM auth_sessions WHERE refresh_token = $1`, refreshToken)
	return err
}

func (r *AuthRepository) DeleteUserSessions(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM auth_sessions WHERE user_id = $1`, userID)
	return err
}

// PurgeExpiredSessions drops refresh sessions that can no longer be used.
func (r *AuthRepository) PurgeExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM auth_sessions WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}
