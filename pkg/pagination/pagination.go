package pagination

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 30
	MaxLimit     = 100
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Page  int
	Limit int
}

// FromContext extracts page/limit pagination parameters from the echo context.
func FromContext(c echo.Context) Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{Page: page, Limit: limit}
}

// Offset returns the row offset for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// SQL returns the LIMIT and OFFSET clause for SQL queries.
func (p Params) SQL() string {
	return fmt.Sprintf("LIMIT %d OFFSET %d", p.Limit, p.Offset())
}

// TotalPages returns the number of pages needed to hold total items.
func (p Params) TotalPages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

// Meta describes the position of a page within the full result set.
type Meta struct {
	CurrentPage int  `json:"current_page"`
	PerPage     int  `json:"per_page"`
	TotalItems  int  `json:"total_items"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrev     bool `json:"has_prev"`
}

// Response wraps a paginated API response.
type Response struct {
	Data interface{} `json:"data"`
	Meta Meta        `json:"meta"`
}

func NewResponse(data interface{}, total int, p Params) *Response {
	pages := p.TotalPages(total)
	return &Response{
		Data: data,
		Meta: Meta{
			CurrentPage: p.Page,
			PerPage:     p.Limit,
			TotalItems:  total,
			TotalPages:  pages,
			HasNext:     p.Page < pages,
			HasPrev:     p.Page > 1,
		},
	}
}
