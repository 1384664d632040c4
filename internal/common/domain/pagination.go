package domain

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PaginatedResult is a zero-based page of items.
type PaginatedResult[T any] struct {
	Items         []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

// NewPaginatedResult builds the page envelope. Size must be positive.
func NewPaginatedResult[T any](items []T, total int64, page, size int) PaginatedResult[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := int((total + int64(size) - 1) / int64(size))
	return PaginatedResult[T]{
		Items:         items,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
		First:         page == 0,
		Last:          page >= totalPages-1,
	}
}

// NormalizePagination clamps page to >= 0 and size to [1, MaxPageSize], defaulting size.
func NormalizePagination(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// PageBounds returns the [start, end) slice bounds of a page over total items.
func PageBounds(total, page, size int) (int, int) {
	start := page * size
	if start >= total {
		return total, total
	}
	return start, min(start+size, total)
}
