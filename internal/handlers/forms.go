package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/schema"

	"marketBack/internal/models"
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.SetAliasTag("form")
	d.IgnoreUnknownKeys(true)
	d.ZeroEmpty(true)
	return d
}

// decodeForm fills dst from an already parsed request form.
func decodeForm(r *http.Request, dst any) error {
	if r.PostForm == nil {
		if err := r.ParseForm(); err != nil {
			return err
		}
	}
	return decoder.Decode(dst, r.PostForm)
}

// FeedQuery is the feed's query string: search box, filters and paging.
type FeedQuery struct {
	Q           string `form:"q"`
	CategoryID  int64  `form:"category"`
	CountryID   int64  `form:"country"`
	RegionID    int64  `form:"region"`
	SubregionID int64  `form:"subregion"`
	Tags        string `form:"tags"`
	Featured    bool   `form:"featured"`
	Sort        string `form:"sort"`
	Page        int    `form:"page"`
}

// parseFeedQuery decodes what it can; malformed numbers are treated as absent.
func parseFeedQuery(values url.Values) FeedQuery {
	var q FeedQuery
	_ = decoder.Decode(&q, values)
	q.Q = strings.Join(strings.Fields(q.Q), " ")
	return q
}

func (q FeedQuery) Filter() models.AdFilter {
	var tags []string
	if q.Tags != "" {
		tags = models.NormalizeTags([]string{q.Tags})
	}
	sort := models.ParseSort(q.Sort)
	if q.Sort == "" && q.Q != "" {
		sort = models.SortRelevance
	}
	return models.AdFilter{
		CategoryID:   q.CategoryID,
		CountryID:    q.CountryID,
		RegionID:     q.RegionID,
		SubregionID:  q.SubregionID,
		Tags:         tags,
		FeaturedOnly: q.Featured,
		Sort:         sort,
		Page:         q.Page,
	}
}

// PageURL is the current query with another page number.
func (q FeedQuery) PageURL(page int) string {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	setID := func(key string, id int64) {
		if id > 0 {
			v.Set(key, strconv.FormatInt(id, 10))
		}
	}
	set("q", q.Q)
	setID("category", q.CategoryID)
	setID("country", q.CountryID)
	setID("region", q.RegionID)
	setID("subregion", q.SubregionID)
	set("tags", q.Tags)
	if q.Featured {
		v.Set("featured", "true")
	}
	set("sort", q.Sort)
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	if len(v) == 0 {
		return "/"
	}
	return "/?" + v.Encode()
}

// WithLocationURL is the current query narrowed to one location, for "did you mean" links.
func (q FeedQuery) WithLocationURL(term string, loc models.Location) string {
	q.Q = term
	q.CountryID, q.RegionID, q.SubregionID = 0, 0, 0
	switch loc.Type {
	case models.LocationCountry:
		q.CountryID = loc.ID
	case models.LocationRegion:
		q.RegionID = loc.ID
	case models.LocationSubregion:
		q.SubregionID = loc.ID
	}
	return q.PageURL(1)
}
