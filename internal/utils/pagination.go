package utils

import "math"

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// WithTotal fills Total and TotalPages (at least 1).
func (p Pagination) WithTotal(total int64) Pagination {
	p.Total = total
	p.TotalPages = int(math.Ceil(float64(total) / float64(p.Limit)))
	if p.TotalPages == 0 {
		p.TotalPages = 1
	}
	return p
}

// ParsePagination reads page/limit strings, falling back to defaults and clamping
// limit to [1, MaxPageSize].
func ParsePagination(pageStr, limitStr string) Pagination {
	page := StringToInt(pageStr)
	if page < 1 {
		page = 1
	}
	limit := StringToInt(limitStr)
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return Pagination{Page: page, Limit: limit}
}
