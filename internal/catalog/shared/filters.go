// Package shared holds list filter types common to catalog modules.
package shared

import (
	"net/url"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// ListFilters represents standard list page filters.
type ListFilters struct {
	Page   int
	Limit  int
	Search string

	// Entity specific filters
	SupplierID *int64
}

// ParseListFilters reads pagination and search parameters from a query
// string, falling back to the defaults on absent or malformed values.
func ParseListFilters(query url.Values) ListFilters {
	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = DefaultPage
	}
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit < 1 {
		limit = DefaultLimit
	}

	filters := ListFilters{
		Page:   page,
		Limit:  limit,
		Search: query.Get("search"),
	}
	if raw := query.Get("supplier"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			filters.SupplierID = &id
		}
	}
	return filters
}

// Offset returns the row offset implied by the page and limit.
func (f ListFilters) Offset() int {
	offset := (f.Page - 1) * f.Limit
	if offset < 0 {
		return 0
	}
	return offset
}
