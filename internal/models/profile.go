package models

import (
	"net/url"
	"strings"
	"time"
)

type Role string

const (
	RoleUser       Role = "USER"
	RoleAdvertiser Role = "ADVERTISER"
)

// ParseRole accepts the role in any case; unknown values fall back to USER.
func ParseRole(raw string) Role {
	if strings.EqualFold(strings.TrimSpace(raw), string(RoleAdvertiser)) {
		return RoleAdvertiser
	}
	return RoleUser
}

const (
	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"
	ChannelTelegram = "telegram"
	ChannelSocial   = "social"
)

type Profile struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Role         Role       `json:"role"`
	AvatarURL    string     `json:"avatar_url,omitempty"`
	ContactEmail string     `json:"contact_email,omitempty"`
	WhatsApp     string     `json:"whatsapp,omitempty"`
	Telegram     string     `json:"telegram,omitempty"`
	SocialURL    string     `json:"social_url,omitempty"`
	CountryID    *int64     `json:"country_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

func (p Profile) IsAdvertiser() bool {
	return p.Role == RoleAdvertiser
}

// ContactURL resolves a contact channel to the link a visitor is sent to.
func (p Profile) ContactURL(channel string) (string, bool) {
	switch channel {
	case ChannelEmail:
		if p.ContactEmail == "" {
			return "", false
		}
		return "mailto:" + p.ContactEmail, true
	case ChannelWhatsApp:
		digits := onlyDigits(p.WhatsApp)
		if digits == "" {
			return "", false
		}
		return "https://wa.me/" + digits, true
	case ChannelTelegram:
		handle := strings.TrimPrefix(strings.TrimSpace(p.Telegram), "@")
		if handle == "" {
			return "", false
		}
		return "https://t.me/" + handle, true
	case ChannelSocial:
		u, err := url.Parse(p.SocialURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return "", false
		}
		return u.String(), true
	}
	return "", false
}

// Channels lists the contact channels the profile has filled in.
func (p Profile) Channels() []string {
	var out []string
	for _, ch := range []string{ChannelEmail, ChannelWhatsApp, ChannelTelegram, ChannelSocial} {
		if _, ok := p.ContactURL(ch); ok {
			out = append(out, ch)
		}
	}
	return out
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
