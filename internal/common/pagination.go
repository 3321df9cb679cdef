package common

import (
	"math"
	"net/url"
	"strconv"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 50
	MaxPerPage     = 100

	// MaxPage keeps Offset inside the range of a Postgres bigint.
	MaxPage = math.MaxInt64 / MaxPerPage
)

type Page struct {
	Page    int
	PerPage int
}

func (p Page) Limit() uint64 {
	return uint64(p.PerPage)
}

func (p Page) Offset() uint64 {
	return uint64((p.Page - 1) * p.PerPage)
}

// Pages is the number of pages needed to hold total rows.
func (p Page) Pages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + p.PerPage - 1) / p.PerPage
}

// PageFromQuery reads page and per_page. Missing, non-numeric or
// non-positive values fall back to the defaults; both are capped.
func PageFromQuery(q url.Values) Page {
	p := Page{
		Page:    parsePositiveInt(q.Get("page"), DefaultPage),
		PerPage: parsePositiveInt(q.Get("per_page"), DefaultPerPage),
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	return p
}

func parsePositiveInt(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// PageInfo is the pagination envelope shared by list responses.
type PageInfo struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
	Pages   int `json:"pages"`
}

func NewPageInfo(p Page, total int) PageInfo {
	return PageInfo{
		Page:    p.Page,
		PerPage: p.PerPage,
		Total:   total,
		Pages:   p.Pages(total),
	}
}
