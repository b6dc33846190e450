package shared

import "math"

// DefaultPageSize applies when the caller omits or mangles the limit.
const DefaultPageSize = 10

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// NewPagination computes pagination metadata. Page and limit fall back
// to 1 and DefaultPageSize when out of range.
func NewPagination(page, limit, total int) Pagination {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// NextPage returns the following page number, clamped to the last page.
func (p Pagination) NextPage() int {
	if p.HasNext {
		return p.Page + 1
	}
	return p.Page
}

// PrevPage returns the preceding page number, clamped to the first page.
func (p Pagination) PrevPage() int {
	if p.HasPrev {
		return p.Page - 1
	}
	return p.Page
}
