package models

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugBase = 60

// Fold lowercases s and strips diacritics so "Zürich" and "zurich" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.Join(strings.Fields(folded), " "))
}

// Slugify builds a URL slug from a title; suffix keeps slugs unique across ads with the same title.
func Slugify(title, suffix string) string {
	var b strings.Builder
	dash := false
	for _, r := range Fold(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	base := strings.Trim(b.String(), "-")
	if r := []rune(base); len(r) > maxSlugBase {
		base = strings.Trim(string(r[:maxSlugBase]), "-")
	}
	if base == "" {
		base = "ad"
	}
	if suffix == "" {
		return base
	}
	return base + "-" + strings.ToLower(suffix)
}
