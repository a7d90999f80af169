package handlers

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rogerio-castellano/product-management/internal/apperr"
	"github.com/rogerio-castellano/product-management/internal/repo"
)

// toFilter converts the JSON search request, applying the defaults for omitted fields.
func (s SearchRequest) toFilter() repo.ProductFilter {
	f := repo.NewProductFilter()
	f.Name = strings.TrimSpace(s.Name)
	f.Description = strings.TrimSpace(s.Description)
	f.MinPrice = s.MinPrice
	f.MaxPrice = s.MaxPrice
	f.CreatedAfter = s.CreatedAfter
	f.CreatedBefore = s.CreatedBefore
	if s.Page != nil {
		f.Page = *s.Page
	}
	if s.Size != nil {
		f.Size = *s.Size
	}
	if s.SortBy != "" {
		f.SortBy = s.SortBy
	}
	if s.SortDirection != "" {
		f.SortDirection = s.SortDirection
	}
	return f
}

type queryParser struct {
	q    url.Values
	errs map[string]string
}

func (p *queryParser) int(key string, def int) int {
	raw := strings.TrimSpace(p.q.Get(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs[key] = "must be an integer"
		return def
	}
	return v
}

func (p *queryParser) decimalValue(key string) *decimal.Decimal {
	raw := strings.TrimSpace(p.q.Get(key))
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		p.errs[key] = "must be a decimal number"
		return nil
	}
	return &d
}

// timeValue accepts RFC 3339 timestamps or plain dates, which are read as midnight UTC.
func (p *queryParser) timeValue(key string) *time.Time {
	raw := strings.TrimSpace(p.q.Get(key))
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	p.errs[key] = "must be an ISO-8601 date-time"
	return nil
}

func (p *queryParser) err() error {
	if len(p.errs) == 0 {
		return nil
	}
	return apperr.Validation(p.errs)
}

// filterFromQuery reads the search criteria from a query string.
func filterFromQuery(q url.Values) (repo.ProductFilter, error) {
	p := &queryParser{q: q, errs: map[string]string{}}

	f := repo.NewProductFilter()
	f.Name = strings.TrimSpace(q.Get("name"))
	f.Description = strings.TrimSpace(q.Get("description"))
	f.MinPrice = p.decimalValue("minPrice")
	f.MaxPrice = p.decimalValue("maxPrice")
	f.CreatedAfter = p.timeValue("createdAfter")
	f.CreatedBefore = p.timeValue("createdBefore")
	f.Page = p.int("page", 0)
	f.Size = p.int("size", repo.DefaultPageSize)
	if v := q.Get("sortBy"); v != "" {
		f.SortBy = v
	}
	if v := q.Get("sortDirection"); v != "" {
		f.SortDirection = v
	}
	return f, p.err()
}

// listParams reads the list endpoint's search, page, size and sort=field,dir parameters.
func listParams(q url.Values) (search string, page, size int, sortBy, direction string, err error) {
	p := &queryParser{q: q, errs: map[string]string{}}
	search = strings.TrimSpace(q.Get("search"))
	page = p.int("page", 0)
	size = p.int("size", repo.DefaultPageSize)

	if sort := strings.TrimSpace(q.Get("sort")); sort != "" {
		parts := strings.SplitN(sort, ",", 2)
		sortBy = strings.TrimSpace(parts[0])
		if len(parts) == 2 {
			direction = strings.TrimSpace(parts[1])
		}
	}
	return search, page, size, sortBy, direction, p.err()
}
