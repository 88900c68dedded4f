package table

import (
	"errors"
	"fmt"
	"strings"
)

// Paging and sorting defaults and limits.
const (
	DefaultPage      = 1
	DefaultPageSize  = 25
	MinPageSize      = 1
	MaxPageSize      = 1000
	DefaultSortOrder = SortOrderAsc
	SortOrderAsc     = "asc"
	SortOrderDesc    = "desc"
)

var (
	ErrInvalidPage       = errors.New("page must be >= 1")
	ErrPageOutOfRange    = errors.New("page out of range")
	ErrInvalidPageSize   = fmt.Errorf("page-size must be between %d and %d", MinPageSize, MaxPageSize)
	ErrInvalidSortOrder  = errors.New("sort order must be 'asc' or 'desc'")
	ErrInvalidSortFormat = errors.New("invalid sort format: use 'field' or 'field:order' (e.g., 'value:desc')")
	ErrEmptySortField    = errors.New("sort field cannot be empty")
	ErrInvalidSortField  = errors.New("invalid sort field")
)

// Params is the complete request state of a table. It is comparable and
// doubles as the fetch query.
type Params struct {
	Page      int    `json:"page"`
	PageSize  int    `json:"page_size"`
	SortField string `json:"sort_field,omitempty"`
	SortOrder string `json:"sort_order,omitempty"`
	Filter    string `json:"filter,omitempty"`
}

// NewParams returns first-page params with the default page size.
func NewParams() Params {
	return Params{Page: DefaultPage, PageSize: DefaultPageSize, SortOrder: DefaultSortOrder}
}

// Validate checks page, page size and sort order.
func (p Params) Validate() error {
	if p.Page < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidPage, p.Page)
	}
	if p.PageSize < MinPageSize || p.PageSize > MaxPageSize {
		return fmt.Errorf("%w: got %d", ErrInvalidPageSize, p.PageSize)
	}
	if p.SortField != "" && p.SortOrder != SortOrderAsc && p.SortOrder != SortOrderDesc {
		return fmt.Errorf("%w: got %q", ErrInvalidSortOrder, p.SortOrder)
	}
	return nil
}

// Offset is the index of the first row on the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// TotalPages returns the page count for total rows.
func (p Params) TotalPages(total int) int {
	if total <= 0 || p.PageSize <= 0 {
		return 0
	}
	return (total + p.PageSize - 1) / p.PageSize
}

// WithPage returns a copy of p on page n.
func (p Params) WithPage(n int) Params {
	p.Page = n
	return p
}

// sortPartsMax is the maximum number of parts in a sort string (field:order).
const sortPartsMax = 2

// ParseSort parses "field" or "field:order". An empty string means unsorted.
//
//nolint:nonamedreturns // Named returns improve readability for this multi-value function.
func ParseSort(sortStr string) (field, order string, err error) {
	if strings.TrimSpace(sortStr) == "" {
		return "", DefaultSortOrder, nil
	}

	parts := strings.Split(sortStr, ":")
	switch len(parts) {
	case 1:
		field = strings.TrimSpace(parts[0])
		order = DefaultSortOrder
	case sortPartsMax:
		field = strings.TrimSpace(parts[0])
		order = strings.ToLower(strings.TrimSpace(parts[1]))
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSortFormat, sortStr)
	}

	if field == "" {
		return "", "", ErrEmptySortField
	}
	if order != SortOrderAsc && order != SortOrderDesc {
		return "", "", fmt.Errorf("%w: got %q", ErrInvalidSortOrder, order)
	}
	return field, order, nil
}

// FlipOrder returns the opposite sort order.
func FlipOrder(order string) string {
	if order == SortOrderDesc {
		return SortOrderAsc
	}
	return SortOrderDesc
}
