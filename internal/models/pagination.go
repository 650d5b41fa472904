package models

import "math"

// MaxPerPage caps every paginated listing; larger requests are silently clamped
const MaxPerPage = 100

// MaxPageNumber keeps Offset well inside int32 range
const MaxPageNumber = math.MaxInt32 / MaxPerPage

// Page is a 1-based page request
type Page struct {
	Number  int
	PerPage int
}

// NewPage normalises a page request: page < 1 becomes 1, perPage < 1 becomes
// defaultPerPage, and perPage above limit is clamped to limit.
func NewPage(page, perPage, defaultPerPage, limit int) Page {
	if page < 1 {
		page = 1
	}
	if page > MaxPageNumber {
		page = MaxPageNumber
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if limit <= 0 || limit > MaxPerPage {
		limit = MaxPerPage
	}
	if perPage > limit {
		perPage = limit
	}
	return Page{Number: page, PerPage: perPage}
}

// Offset returns the SQL OFFSET for the page
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.PerPage
}

// Pagination is the metadata attached to paginated responses
type Pagination struct {
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
}

// NewPagination builds response metadata for a page and a total row count
func NewPagination(p Page, total int) Pagination {
	pages := 0
	if p.PerPage > 0 {
		pages = (total + p.PerPage - 1) / p.PerPage
	}
	return Pagination{Page: p.Number, Pages: pages, PerPage: p.PerPage, Total: total}
}
