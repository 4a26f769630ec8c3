package model

import "strconv"

// Pagination defaults shared by every listing endpoint.
const (
	DefaultPerPage = 15
	MaxPerPage     = 100
)

// Pagination is a validated page request.
type Pagination struct {
	Page    int
	PerPage int
}

// ParsePagination reads raw page and per_page values.  Non-numeric or
// non-positive values fall back to page 1 and DefaultPerPage; per_page is
// capped at MaxPerPage.
func ParsePagination(rawPage, rawPerPage string) Pagination {
	page, err := strconv.Atoi(rawPage)
	if err != nil || page < 1 {
		page = 1
	}
	perPage, err := strconv.Atoi(rawPerPage)
	if err != nil || perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Pagination{Page: page, PerPage: perPage}
}

// Offset is the number of rows to skip for the current page.
func (p Pagination) Offset() int { return (p.Page - 1) * p.PerPage }

// PageMeta describes a page of results in list responses.
type PageMeta struct {
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	From        *int  `json:"from"`
	To          *int  `json:"to"`
}

// NewPageMeta derives the page metadata for count items returned out of
// total.  From and To are 1-based and null for an empty page.
func NewPageMeta(p Pagination, total int64, count int) PageMeta {
	last := int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	if last < 1 {
		last = 1
	}
	meta := PageMeta{CurrentPage: p.Page, LastPage: last, PerPage: p.PerPage, Total: total}
	if count > 0 {
		from := p.Offset() + 1
		to := p.Offset() + count
		meta.From, meta.To = &from, &to
	}
	return meta
}

// Popular ranking bounds.
const (
	DefaultPopularLimit = 10
	MaxPopularLimit     = 50
)

// ParsePopularLimit reads the raw `limit` of the popular ranking.  Missing,
// non-numeric or non-positive values give DefaultPopularLimit.
func ParsePopularLimit(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return DefaultPopularLimit
	}
	if n > MaxPopularLimit {
		return MaxPopularLimit
	}
	return n
}
