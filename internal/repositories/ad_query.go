package repositories

import (
	"strconv"
	"strings"
	"time"

	"marketBack/internal/models"
)

const adColumns = `
	a.id, a.owner_id, a.title, a.description, a.category_id, c.name,
	a.country_id, a.region_id, a.subregion_id, a.tags, a.status, a.boosted_until, a.slug,
	a.view_count, a.contact_clicks, a.avg_rating, a.rating_count,
	coalesce((SELECT m.url FROM ad_media m WHERE m.ad_id = a.id ORDER BY m.is_cover DESC, m.position LIMIT 1), ''),
	a.created_at, a.updated_at`

const adFrom = `
	FROM ads_with_ratings a
	JOIN categories c ON c.id = a.category_id`

type feedQuery struct {
	conditions []string
	args       []any
}

func (q *feedQuery) bind(v any) string {
	q.args = append(q.args, v)
	return "$" + strconv.Itoa(len(q.args))
}

func (q *feedQuery) where(cond string) {
	q.conditions = append(q.conditions, cond)
}

// buildFeedQuery composes the page query and its COUNT companion for a normalised filter.
// The count query uses a prefix of the page query's arguments.
func buildFeedQuery(f models.AdFilter, now time.Time) (pageSQL string, pageArgs []any, countSQL string, countArgs []any) {
	q := &feedQuery{}

	if len(f.Statuses) == 1 {
		q.where("a.status = " + q.bind(string(f.Statuses[0])))
	} else {
		statuses := make([]string, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			statuses = append(statuses, string(s))
		}
		q.where("a.status = ANY(" + q.bind(statuses) + ")")
	}

	if f.OwnerID != "" {
		q.where("a.owner_id = " + q.bind(f.OwnerID))
	}
	if f.CategoryID > 0 {
		q.where("a.category_id = " + q.bind(f.CategoryID))
	}

	switch id, kind := f.LocationID(); kind {
	case models.LocationSubregion:
		q.where("a.subregion_id = " + q.bind(id))
	case models.LocationRegion:
		q.where("a.region_id = " + q.bind(id))
	case models.LocationCountry:
		q.where("a.country_id = " + q.bind(id))
	}

	var queryParam string
	if f.Query != "" {
		queryParam = q.bind(f.Query)
		q.where("(a.search_vector @@ websearch_to_tsquery('simple', " + queryParam + ")" +
			" OR a.tags && string_to_array(lower(" + queryParam + "), ' '))")
	}
	if len(f.Tags) > 0 {
		q.where("a.tags && " + q.bind(f.Tags))
	}

	var nowParam string
	if f.FeaturedOnly {
		nowParam = q.bind(now.UTC())
		q.where("a.boosted_until > " + nowParam)
	}

	whereSQL := ""
	if len(q.conditions) > 0 {
		whereSQL = " WHERE " + strings.Join(q.conditions, " AND ")
	}

	countSQL = "SELECT count(*)" + adFrom + whereSQL
	countArgs = append([]any(nil), q.args...)

	if nowParam == "" {
		nowParam = q.bind(now.UTC())
	}

	var order strings.Builder
	order.WriteString(" ORDER BY (a.boosted_until IS NOT NULL AND a.boosted_until > " + nowParam + ") DESC, ")
	switch f.Sort {
	case models.SortOldest:
		order.WriteString("a.created_at ASC")
	case models.SortPopular:
		order.WriteString("a.view_count DESC, a.created_at DESC")
	case models.SortRating:
		order.WriteString("a.avg_rating DESC, a.rating_count DESC, a.created_at DESC")
	case models.SortRelevance:
		if queryParam != "" {
			order.WriteString("ts_rank(a.search_vector, websearch_to_tsquery('simple', " + queryParam + ")) DESC, a.created_at DESC")
		} else {
			order.WriteString("a.created_at DESC")
		}
	default:
		order.WriteString("a.created_at DESC")
	}
	order.WriteString(", a.id")

	limit := q.bind(f.PageSize)
	offset := q.bind(f.Offset())

	pageSQL = "SELECT" + adColumns + adFrom + whereSQL + order.String() + " LIMIT " + limit + " OFFSET " + offset
	return pageSQL, q.args, countSQL, countArgs
}
