package pagination

import (
	"fmt"
	"math"
	"strings"

	"gorm.io/gorm"
)

// PageRequest holds pagination parameters parsed from query strings.
type PageRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`

	// StartOffset, when set, overrides the page-derived offset.
	StartOffset *int `form:"offset" binding:"omitempty,min=0"`
}

// Defaults fills in default values when page or page_size are not provided.
func (p *PageRequest) Defaults() {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.PageSize == 0 {
		p.PageSize = 20
	}
}

// Offset returns the SQL OFFSET for the current page.
func (p *PageRequest) Offset() int {
	if p.StartOffset != nil {
		return *p.StartOffset
	}
	return (p.Page - 1) * p.PageSize
}

// PageResponse wraps a paginated list of items with metadata.
type PageResponse[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewPageResponse creates a PageResponse from the given data and total count.
func NewPageResponse[T any](data []T, page, pageSize int, totalItems int64) PageResponse[T] {
	totalPages := int(math.Ceil(float64(totalItems) / float64(pageSize)))
	if data == nil {
		data = []T{}
	}
	return PageResponse[T]{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}

// Paginate returns a GORM scope that applies OFFSET and LIMIT for the given page request.
func Paginate(req PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(req.Offset()).Limit(req.PageSize)
	}
}

// SortRequest holds an ordering request parsed from query strings.
type SortRequest struct {
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// OrderClause validates the request against allowed column names and
// returns an ORDER BY clause. Empty fields fall back to the defaults.
func (s SortRequest) OrderClause(allowed []string, defaultField, defaultOrder string) (string, error) {
	field := s.SortBy
	if field == "" {
		field = defaultField
	}
	ok := false
	for _, a := range allowed {
		if a == field {
			ok = true
			break
		}
	}
	if !ok {
		return "", fmt.Errorf("invalid sort field %q, allowed: %s", field, strings.Join(allowed, ", "))
	}

	order := strings.ToUpper(s.SortOrder)
	if order == "" {
		order = strings.ToUpper(defaultOrder)
	}
	if order != "ASC" && order != "DESC" {
		return "", fmt.Errorf("invalid sort order %q", s.SortOrder)
	}
	return field + " " + order, nil
}
