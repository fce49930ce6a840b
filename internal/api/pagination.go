package api

import (
	"net/http"
	"strconv"
)

const (
	defaultPage     = 1
	defaultPerPage  = 50
	maxPerPage      = 200
	defaultFeedSize = 10
)

// PaginationParams holds parsed pagination query parameters.
type PaginationParams struct {
	Page    int
	PerPage int
}

// ParsePagination extracts pagination parameters from the request.
// The second return is false when the caller asked for neither page nor
// per_page, in which case the whole collection is expected.
// Defaults: page=1, per_page=50. Maximum per_page is 200.
func ParsePagination(r *http.Request) (PaginationParams, bool) {
	p := PaginationParams{
		Page:    defaultPage,
		PerPage: defaultPerPage,
	}
	q := r.URL.Query()
	requested := q.Has("page") || q.Has("per_page")

	if n := positiveInt(q.Get("page")); n > 0 {
		p.Page = n
	}
	if n := positiveInt(q.Get("per_page")); n > 0 {
		p.PerPage = min(n, maxPerPage)
	}

	return p, requested
}

// Offset returns the database offset for the current page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// TotalPages calculates the total number of pages for a given total count.
func (p PaginationParams) TotalPages(total int64) int {
	if p.PerPage <= 0 {
		return 0
	}
	pages := int(total) / p.PerPage
	if int(total)%p.PerPage > 0 {
		pages++
	}
	return pages
}

// FeedPaging holds the pageSize/pageNo query parameters of the feed endpoints.
type FeedPaging struct {
	PageSize int
	PageNo   int
}

// ParseFeedPaging reads pageSize and pageNo, defaulting to 10 and 1.
func ParseFeedPaging(r *http.Request) FeedPaging {
	p := FeedPaging{PageSize: defaultFeedSize, PageNo: 1}
	q := r.URL.Query()
	if n := positiveInt(q.Get("pageSize")); n > 0 {
		p.PageSize = n
	}
	if n := positiveInt(q.Get("pageNo")); n > 0 {
		p.PageNo = n
	}
	return p
}

func positiveInt(v string) int {
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0
	}
	return n
}
