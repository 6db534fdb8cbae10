package models

import (
	"encoding/json"
	"strings"
)

// PlaceholderImageURL is shown for properties without images.
const PlaceholderImageURL = "/static/placeholder-property.svg"

// PropertyStatus is the sale state of a property.
type PropertyStatus string

const (
	StatusAvailable PropertyStatus = "AVAILABLE"
	StatusPending   PropertyStatus = "PENDING"
	StatusSold      PropertyStatus = "SOLD"
)

// PropertyStatuses lists the statuses an admin can assign.
var PropertyStatuses = []PropertyStatus{StatusAvailable, StatusPending, StatusSold}

// ParsePropertyStatus normalizes the spellings found across backend versions
// ("available", "For Sale", "Sold", "SOLD"). Unknown values are kept upper-cased.
func ParsePropertyStatus(raw string) PropertyStatus {
	norm := strings.ToUpper(strings.TrimSpace(raw))
	norm = strings.ReplaceAll(norm, " ", "_")
	switch norm {
	case "AVAILABLE", "FOR_SALE", "ACTIVE":
		return StatusAvailable
	case "PENDING", "UNDER_CONTRACT":
		return StatusPending
	case "SOLD":
		return StatusSold
	}
	return PropertyStatus(norm)
}

// UnmarshalJSON implements json.Unmarshaler with case-insensitive ingestion.
func (s *PropertyStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ParsePropertyStatus(raw)
	return nil
}

// Label returns a human-readable label.
func (s PropertyStatus) Label() string {
	switch s {
	case StatusAvailable:
		return "Available"
	case StatusPending:
		return "Pending"
	case StatusSold:
		return "Sold"
	case "":
		return "Unknown"
	default:
		return string(s)
	}
}

// Property is the canonical listing record shared by every page.
type Property struct {
	ID          int64          `json:"id,omitempty"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Type        string         `json:"type,omitempty"`
	Status      PropertyStatus `json:"status,omitempty"`
	Address     string         `json:"address,omitempty"`
	City        string         `json:"city"`
	State       string         `json:"state"`
	ZipCode     string         `json:"zipCode,omitempty"`
	Bedrooms    int            `json:"bedrooms"`
	Bathrooms   int            `json:"bathrooms"`
	SquareFeet  int            `json:"squareFeet"`
	LotSize     float64        `json:"lotSize,omitempty"`
	YearBuilt   int            `json:"yearBuilt,omitempty"`
	ImageURLs   []string       `json:"imageUrls"`
	Features    []string       `json:"features"`
	IsFeatured  bool           `json:"isFeatured"`
	CreatedAt   Timestamp      `json:"createdAt"`
	UpdatedAt   Timestamp      `json:"updatedAt"`
}

// Location renders "City, State", skipping empty parts.
func (p Property) Location() string {
	parts := make([]string, 0, 2)
	if c := strings.TrimSpace(p.City); c != "" {
		parts = append(parts, c)
	}
	if s := strings.TrimSpace(p.State); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

// CoverImage returns the first image URL or the placeholder.
func (p Property) CoverImage() string {
	for _, u := range p.ImageURLs {
		if strings.TrimSpace(u) != "" {
			return u
		}
	}
	return PlaceholderImageURL
}

// IsAvailable reports whether the property can be purchased.
func (p Property) IsAvailable() bool {
	return p.Status == StatusAvailable
}

// PropertyStats is returned by GET /admin/properties/stats.
type PropertyStats struct {
	TotalProperties int64            `json:"totalProperties"`
	StatusCounts    map[string]int64 `json:"statusCounts"`
	TypeCounts      map[string]int64 `json:"typeCounts"`
}
