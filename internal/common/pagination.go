package common

import (
	"net/http"
	"strconv"
)

// maxPerPage bounds list sizes so a single request cannot drag a whole
// restaurant's order history across the wire.
const maxPerPage = 100

// Pagination is the paging metadata attached to list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
}

// ParsePagination reads ?page and ?limit from the query string.
// Missing or non-positive values fall back to page 1 and the supplied
// default; limit is clamped to maxPerPage.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	query := r.URL.Query()

	page = positiveOr(query.Get("page"), 1)
	perPage = positiveOr(query.Get("limit"), defaultPerPage)
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

func positiveOr(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
