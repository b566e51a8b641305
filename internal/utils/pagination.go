// Package utils holds the query-string and paging helpers shared by the list
// endpoints and the services behind them.
package utils

import "strconv"

// AtoiDefault parses s, returning def when s is empty or not an integer.
func AtoiDefault(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Page size bounds shared by list endpoints.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ClampPage bounds page to >= 1 and pageSize to [1, MaxPageSize]; a
// non-positive pageSize means DefaultPageSize.
func ClampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize < 1:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// Offset is the number of rows before the first row of page.
func Offset(page, pageSize int) int {
	page, pageSize = ClampPage(page, pageSize)
	return (page - 1) * pageSize
}

// TotalPages is how many pages of pageSize hold total rows.
func TotalPages(total int64, pageSize int) int {
	_, pageSize = ClampPage(1, pageSize)
	if total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
