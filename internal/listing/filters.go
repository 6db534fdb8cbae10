// Package listing holds the state of the public properties page: one fetched
// server page, narrowed by client-side filters and re-paginated for display.
package listing

import (
	"strings"

	"dreamhome/web/internal/models"
)

// PageSize is the number of cards shown per listing page.
const PageSize = 6

// Price brackets accepted in Filters.PriceRange.
const (
	PriceUnder400k   = "under-400k"
	Price400kTo600k  = "400k-600k"
	PriceOver600k    = "over-600k"
	lowerPriceBound  = 400000
	higherPriceBound = 600000
)

// LocationOptions are the locations offered in the filter dropdown.
var LocationOptions = []string{"Downtown", "Suburbs", "Arts District", "Miami Beach"}

// Filters are the three independent client-side predicates.
type Filters struct {
	Location   string `form:"location"`
	PriceRange string `form:"priceRange"`
	Search     string `form:"search"`
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return f.Location == "" && f.PriceRange == "" && f.Search == ""
}

// Match reports whether p passes every filter.
func (f Filters) Match(p models.Property) bool {
	location := strings.ToLower(p.Location())

	if f.Location != "" && !strings.Contains(location, strings.ToLower(f.Location)) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Title), q) && !strings.Contains(location, q) {
			return false
		}
	}
	return matchesPrice(f.PriceRange, p.Price)
}

func matchesPrice(bracket string, price float64) bool {
	switch bracket {
	case PriceUnder400k:
		return price < lowerPriceBound
	case Price400kTo600k:
		return price >= lowerPriceBound && price <= higherPriceBound
	case PriceOver600k:
		return price > higherPriceBound
	default:
		return true
	}
}

// Apply returns the properties matching f, preserving order.
func Apply(props []models.Property, f Filters) []models.Property {
	out := make([]models.Property, 0, len(props))
	for _, p := range props {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// Page is one display page of a filtered result set.
type Page struct {
	Items      []models.Property
	Number     int // 1-based
	TotalPages int
	Total      int
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a next page exists.
func (p Page) HasNext() bool { return p.Number < p.TotalPages }

// Numbers lists every page number, for pagination links.
func (p Page) Numbers() []int {
	n := make([]int, p.TotalPages)
	for i := range n {
		n[i] = i + 1
	}
	return n
}

// Paginate slices items into pages of size. number is clamped into
// [1, max(1, TotalPages)].
func Paginate(items []models.Property, number, size int) Page {
	if size <= 0 {
		size = PageSize
	}
	total := len(items)
	totalPages := (total + size - 1) / size

	if number > totalPages {
		number = totalPages
	}
	if number < 1 {
		number = 1
	}

	start := (number - 1) * size
	end := start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return Page{
		Items:      items[start:end],
		Number:     number,
		TotalPages: totalPages,
		Total:      total,
	}
}
