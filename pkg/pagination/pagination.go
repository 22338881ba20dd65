package pagination

import (
	"net/http"
	"strconv"
)

const (
	defaultSize = 20
	maxSize     = 100
)

// Params holds page-based listing parameters parsed from a request.
type Params struct {
	Page int `json:"page"`
	Size int `json:"page_size"`
}

// FromRequest reads "page" and "page_size" query parameters, falling back
// to defaults when absent or out of range.
func FromRequest(r *http.Request) Params {
	p := Params{Page: 1, Size: defaultSize}

	if raw := r.URL.Query().Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			p.Page = v
		}
	}
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= maxSize {
			p.Size = v
		}
	}
	return p
}

// Offset returns the SQL offset for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Size
}

// Page wraps one page of results together with listing metadata.
type Page[T any] struct {
	Items      []T  `json:"items"`
	TotalCount int  `json:"total_count"`
	PageNum    int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NewPage assembles a Page from a slice of items and the total row count.
func NewPage[T any](items []T, total int, params Params) Page[T] {
	pages := total / params.Size
	if total%params.Size > 0 {
		pages++
	}
	if items == nil {
		items = []T{}
	}

	return Page[T]{
		Items:      items,
		TotalCount: total,
		PageNum:    params.Page,
		PageSize:   params.Size,
		TotalPages: pages,
		HasNext:    params.Page < pages,
	}
}
