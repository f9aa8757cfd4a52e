package shared

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Pagination is the page envelope returned by list endpoints.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination clamps page and perPage and derives TotalPages from total.
func NewPagination(page, perPage, total int) Pagination {
	switch {
	case perPage <= 0:
		perPage = defaultPerPage
	case perPage > maxPerPage:
		perPage = maxPerPage
	}
	if page < 1 {
		page = 1
	}
	if total < 0 {
		total = 0
	}
	return Pagination{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	}
}

// Offset is the number of rows preceding the current page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// WithTotal returns p with Total and TotalPages filled in.
func (p Pagination) WithTotal(total int) Pagination {
	return NewPagination(p.Page, p.PerPage, total)
}
