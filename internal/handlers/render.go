package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"marketBack/internal/authprovider"
	"marketBack/internal/models"
	"marketBack/internal/sanitize"
)

// TemplateData is the single value passed to every page template.
type TemplateData struct {
	CurrentYear int
	Path        string
	User        *authprovider.Identity
	Flash       *Flash

	Form   any
	Errors models.FormErrors
	Next   string

	Query      FeedQuery
	Page       models.AdPage
	Plan       *models.SearchPlan
	Ad         *models.AdDetail
	Editing    *models.Ad
	Profile    *models.Profile
	Categories []models.Category
	Countries  []models.Location
	Regions    []models.Location
	Subregions []models.Location
	Comments   []models.Comment
	Durations  []int
	Filter     models.AdStatus
	Status     int
	Message    string
}

type locationNames struct{ Country, Region, Subregion string }

type locationIDs struct{ Country, Region, Subregion int64 }

type locationSelect struct {
	Names       locationNames
	Placeholder string
	Countries   []models.Location
	Regions     []models.Location
	Subregions  []models.Location
	Selected    locationIDs
}

// LocationSelect prepares the three cascading selects. Forms post *_id fields,
// the feed filter uses short query names.
func (d *TemplateData) LocationSelect(form bool, placeholder string, country, region, subregion int64) locationSelect {
	ls := locationSelect{
		Names:       locationNames{"country", "region", "subregion"},
		Placeholder: placeholder,
		Countries:   d.Countries,
		Regions:     d.Regions,
		Subregions:  d.Subregions,
		Selected:    locationIDs{country, region, subregion},
	}
	if form {
		ls.Names = locationNames{"country_id", "region_id", "subregion_id"}
	}
	return ls
}

type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page under html/pages together with the base layout and partials.
func NewRenderer(files fs.FS) (*Renderer, error) {
	policy := sanitize.NewPolicy()
	funcs := template.FuncMap{
		"markdown":  policy.RenderMarkdown,
		"excerpt":   func(s string) string { return policy.PlainText(s, 160) },
		"humanDate": humanDate,
		"featured":  func(a models.Ad) bool { return a.IsFeatured(time.Now()) },
		"stars":     stars,
		"join":      strings.Join,
		"add":       func(a, b int) int { return a + b },
		"selected":  func(a, b int64) bool { return a == b },
	}

	pages, err := fs.Glob(files, "html/pages/*.tmpl.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		name := strings.TrimSuffix(path.Base(page), ".tmpl.html")
		ts, err := template.New(name).Funcs(funcs).ParseFS(files,
			"html/base.tmpl.html",
			"html/partials/*.tmpl.html",
			page,
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		r.pages[name] = ts
	}
	return r, nil
}

// Render executes into a buffer first so a template error never produces a half-written page.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data *TemplateData) error {
	ts, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("template %q does not exist", page)
	}
	buf := new(bytes.Buffer)
	if err := ts.ExecuteTemplate(buf, "base", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

func humanDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("02 Jan 2006")
}

// stars renders an average rating as five characters, e.g. "★★★☆☆".
func stars(avg float64) string {
	full := int(avg + 0.5)
	if full > models.MaxRating {
		full = models.MaxRating
	}
	if full < 0 {
		full = 0
	}
	return strings.Repeat("★", full) + strings.Repeat("☆", models.MaxRating-full)
}
