package pagination

import "strconv"

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params carries normalized page/limit values parsed from query strings.
type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Parse normalizes raw query values. Page is one-based.
func Parse(pageStr, limitStr string) Params {
	page, _ := strconv.Atoi(pageStr)
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(limitStr)
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit}
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is the list envelope returned by all paginated endpoints.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

func NewPage[T any](items []T, total int64, p Params) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Page: p.Page, Limit: p.Limit}
}
