package services

import (
	"net/url"
	"strconv"
)

// Backend paging defaults.
const (
	DefaultPage    = 0
	DefaultSize    = 10
	DefaultSortBy  = "createdAt"
	DefaultSortDir = "desc"
)

// PageRequest selects one backend page. Zero values fall back to the defaults.
type PageRequest struct {
	Page    int
	Size    int
	SortBy  string
	SortDir string
}

func (p PageRequest) values() url.Values {
	size := p.Size
	if size <= 0 {
		size = DefaultSize
	}
	page := p.Page
	if page < 0 {
		page = DefaultPage
	}
	sortBy := p.SortBy
	if sortBy == "" {
		sortBy = DefaultSortBy
	}
	sortDir := p.SortDir
	if sortDir == "" {
		sortDir = DefaultSortDir
	}
	return url.Values{
		"page":    {strconv.Itoa(page)},
		"size":    {strconv.Itoa(size)},
		"sortBy":  {sortBy},
		"sortDir": {sortDir},
	}
}
