package repositories

import (
	"context"
	"database/sql"
	"errors"

	"marketBack/internal/models"
)

type ProfileRepository struct {
	DB *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

const profileColumns = `id, username, role, avatar_url, contact_email, whatsapp, telegram, social_url, country_id, created_at, updated_at`

func scanProfile(row rowScanner) (models.Profile, error) {
	var (
		p       models.Profile
		role    string
		country sql.NullInt64
		updated sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Username, &role, &p.AvatarURL, &p.ContactEmail, &p.WhatsApp, &p.Telegram,
		&p.SocialURL, &country, &p.CreatedAt, &updated)
	if err != nil {
		return models.Profile{}, err
	}
	p.Role = models.ParseRole(role)
	if country.Valid {
		p.CountryID = &country.Int64
	}
	if updated.Valid {
		p.UpdatedAt = &updated.Time
	}
	return p, nil
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (models.Profile, error) {
	p, err := scanProfile(r.DB.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, models.ErrProfileNotFound
	}
	return p, err
}

func (r *ProfileRepository) GetByUsername(ctx context.Context, username string) (models.Profile, error) {
	p, err := scanProfile(r.DB.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE username = $1`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, models.ErrProfileNotFound
	}
	return p, err
}

func (r *ProfileRepository) Create(ctx context.Context, p models.Profile) (models.Profile, error) {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO profiles (id, username, role)
		VALUES ($1, $2, $3)
		RETURNING created_at`,
		p.ID, p.Username, string(p.Role),
	).Scan(&p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "profiles_username_key") {
			return models.Profile{}, models.ErrDuplicateUsername
		}
		return models.Profile{}, err
	}
	return p, nil
}

func (r *ProfileRepository) Update(ctx context.Context, p models.Profile) (models.Profile, error) {
	err := r.DB.QueryRowContext(ctx, `
		UPDATE profiles
		SET username = $1, contact_email = $2, whatsapp = $3, telegram = $4, social_url = $5,
		    country_id = $6, updated_at = now()
		WHERE id = $7
		RETURNING updated_at`,
		p.Username, p.ContactEmail, p.WhatsApp, p.Telegram, p.SocialURL, nullableID(p.CountryID), p.ID,
	).Scan(&p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, models.ErrProfileNotFound
	}
	if err != nil {
		if isUniqueViolation(err, "profiles_username_key") {
			return models.Profile{}, models.ErrDuplicateUsername
		}
		return models.Profile{}, err
	}
	return p, nil
}

func (r *ProfileRepository) UpdateAvatar(ctx context.Context, id, url string) error {
	result, err := r.DB.ExecContext(ctx, `UPDATE profiles SET avatar_url = $1, updated_at = now() WHERE id = $2`, url, id)
	if err != nil {
		return err
	}
	return expectOneRow(result, models.ErrProfileNotFound)
}
