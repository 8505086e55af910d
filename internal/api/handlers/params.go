package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxPage is the largest page number accepted. Anything past it cannot hold
// results for a chart and would overflow the offset arithmetic.
const MaxPage = 10000

// PaginationParams holds parsed pagination parameters
type PaginationParams struct {
	Page  int
	Limit int
}

// Offset is the index of the first item on the page
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// QueryParamParser provides helpers for parsing and validating query parameters
type QueryParamParser struct {
	c   *gin.Context
	err error
}

// NewQueryParamParser creates a new query parameter parser
func NewQueryParamParser(c *gin.Context) *QueryParamParser {
	return &QueryParamParser{c: c}
}

// Error returns any parsing error that occurred
func (p *QueryParamParser) Error() error {
	return p.err
}

// Pagination parses and validates pagination parameters
func (p *QueryParamParser) Pagination(defaultLimit int) PaginationParams {
	if p.err != nil {
		return PaginationParams{Page: 1, Limit: defaultLimit}
	}

	page := 1
	limit := defaultLimit

	if pageStr := p.c.Query("page"); pageStr != "" {
		parsed, err := strconv.Atoi(pageStr)
		if err != nil {
			p.err = fmt.Errorf("invalid 'page' parameter: must be a number")
			return PaginationParams{Page: 1, Limit: defaultLimit}
		}
		if parsed > MaxPage {
			p.err = fmt.Errorf("invalid 'page' parameter: must be at most %d", MaxPage)
			return PaginationParams{Page: 1, Limit: defaultLimit}
		}
		page = parsed
	}

	if limitStr := p.c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			p.err = fmt.Errorf("invalid 'limit' parameter: must be a number")
			return PaginationParams{Page: 1, Limit: defaultLimit}
		}
		limit = parsed
	}

	// Enforce bounds
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > 100 {
		limit = 100
	}

	return PaginationParams{Page: page, Limit: limit}
}

// String gets a string parameter with optional default
func (p *QueryParamParser) String(key, defaultValue string) string {
	if p.err != nil {
		return defaultValue
	}

	value := p.c.Query(key)
	if value == "" {
		return defaultValue
	}
	return strings.TrimSpace(value)
}
