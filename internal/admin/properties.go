package admin

import (
	"context"
	"strconv"
	"strings"

	"dreamhome/web/internal/client"
	"dreamhome/web/internal/models"
	"dreamhome/web/internal/services"
	"go.uber.org/zap"
)

// PropertyForm is the create/edit form of the properties screen.
type PropertyForm struct {
	Title       string   `form:"title"`
	Description string   `form:"description"`
	Price       string   `form:"price"`
	Type        string   `form:"type"`
	Status      string   `form:"status"`
	Address     string   `form:"address"`
	City        string   `form:"city"`
	State       string   `form:"state"`
	ZipCode     string   `form:"zipCode"`
	Bedrooms    string   `form:"bedrooms"`
	Bathrooms   string   `form:"bathrooms"`
	SquareFeet  string   `form:"squareFeet"`
	YearBuilt   string   `form:"yearBuilt"`
	LotSize     string   `form:"lotSize"` // acres
	ImageURLs   []string `form:"imageUrls"`
	Features    string   `form:"features"` // comma separated
	IsFeatured  bool     `form:"isFeatured"`
}

// PropertyFormFor pre-fills the edit form.
func PropertyFormFor(p models.Property) PropertyForm {
	return PropertyForm{
		Title:       p.Title,
		Description: p.Description,
		Price:       strconv.FormatFloat(p.Price, 'f', -1, 64),
		Type:        p.Type,
		Status:      string(p.Status),
		Address:     p.Address,
		City:        p.City,
		State:       p.State,
		ZipCode:     p.ZipCode,
		Bedrooms:    strconv.Itoa(p.Bedrooms),
		Bathrooms:   strconv.Itoa(p.Bathrooms),
		SquareFeet:  strconv.Itoa(p.SquareFeet),
		YearBuilt:   optionalInt(p.YearBuilt),
		LotSize:     optionalFloat(p.LotSize),
		ImageURLs:   p.ImageURLs,
		Features:    strings.Join(p.Features, ", "),
		IsFeatured:  p.IsFeatured,
	}
}

// Unknown year and lot size stay blank rather than showing 0.
func optionalInt(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func optionalFloat(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Property validates the form and converts it to the backend shape.
func (f PropertyForm) Property() (models.Property, error) {
	if err := required([2]string{"title", f.Title}, [2]string{"price", f.Price}); err != nil {
		return models.Property{}, err
	}

	var invalid []string
	price, err := strconv.ParseFloat(strings.TrimSpace(f.Price), 64)
	if err != nil || price < 0 {
		invalid = append(invalid, "price")
	}
	number := func(name, raw string) int {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return 0
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			invalid = append(invalid, name)
		}
		return n
	}
	decimal := func(name, raw string) float64 {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return 0
		}
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil || n < 0 {
			invalid = append(invalid, name)
		}
		return n
	}
	p := models.Property{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Price:       price,
		Type:        strings.TrimSpace(f.Type),
		Status:      models.StatusAvailable,
		Address:     strings.TrimSpace(f.Address),
		City:        strings.TrimSpace(f.City),
		State:       strings.TrimSpace(f.State),
		ZipCode:     strings.TrimSpace(f.ZipCode),
		Bedrooms:    number("bedrooms", f.Bedrooms),
		Bathrooms:   number("bathrooms", f.Bathrooms),
		SquareFeet:  number("squareFeet", f.SquareFeet),
		YearBuilt:   number("yearBuilt", f.YearBuilt),
		LotSize:     decimal("lotSize", f.LotSize),
		IsFeatured:  f.IsFeatured,
		ImageURLs:   []string{},
		Features:    []string{},
	}
	if len(invalid) > 0 {
		return models.Property{}, &ValidationError{Missing: invalid}
	}
	if f.Status != "" {
		p.Status = models.ParsePropertyStatus(f.Status)
	}
	for _, u := range f.ImageURLs {
		if u = strings.TrimSpace(u); u != "" {
			p.ImageURLs = append(p.ImageURLs, u)
		}
	}
	for _, feat := range strings.Split(f.Features, ",") {
		if feat = strings.TrimSpace(feat); feat != "" {
			p.Features = append(p.Features, feat)
		}
	}
	return p, nil
}

// PropertyList is one rendered page of the properties screen.
type PropertyList struct {
	Properties []models.Property
	Page       int // 0-based
	TotalPages int
	Total      int
}

// PropertyManager drives the properties screen. The backend returns every
// property at once, so paging happens here.
type PropertyManager struct {
	svc    services.IAdminPropertyService
	logger *zap.Logger
}

// NewPropertyManager creates a PropertyManager.
func NewPropertyManager(svc services.IAdminPropertyService, logger *zap.Logger) *PropertyManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PropertyManager{svc: svc, logger: logger}
}

// List fetches all properties and returns page.
func (m *PropertyManager) List(ctx context.Context, page int) (*PropertyList, error) {
	all, err := m.svc.GetAllProperties(ctx)
	if err != nil {
		m.logger.Error("failed to load properties", zap.Error(err))
		return nil, fail(err, "Failed to load properties")
	}

	total := len(all)
	totalPages := (total + PageSize - 1) / PageSize
	page = clampPage(page)
	if totalPages > 0 && page >= totalPages {
		page = totalPages - 1
	}
	start := page * PageSize
	end := start + PageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return &PropertyList{Properties: all[start:end], Page: page, TotalPages: totalPages, Total: total}, nil
}

// Find returns the property with id from the full list.
func (m *PropertyManager) Find(ctx context.Context, id int64) (*models.Property, error) {
	all, err := m.svc.GetAllProperties(ctx)
	if err != nil {
		return nil, fail(err, "Failed to load properties")
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, &client.APIError{Status: 404, Message: "Property not found"}
}

// Save creates the property when editingID is zero and updates it otherwise,
// then refetches page.
func (m *PropertyManager) Save(ctx context.Context, editingID int64, form PropertyForm, page int) (*PropertyList, error) {
	p, err := form.Property()
	if err != nil {
		return nil, err
	}
	if editingID == 0 {
		_, err = m.svc.CreateProperty(ctx, p)
		if err != nil {
			m.logger.Error("failed to add property", zap.Error(err))
			return nil, fail(err, "Failed to add property")
		}
	} else {
		_, err = m.svc.UpdateProperty(ctx, editingID, p)
		if err != nil {
			m.logger.Error("failed to update property", zap.Int64("property_id", editingID), zap.Error(err))
			return nil, fail(err, "Failed to update property")
		}
	}
	return m.List(ctx, page)
}

// Delete removes the property once confirmed, then refetches page.
func (m *PropertyManager) Delete(ctx context.Context, id int64, confirmed bool, page int) (*PropertyList, error) {
	if !confirmed {
		return nil, ErrNotConfirmed
	}
	if err := m.svc.DeleteProperty(ctx, id); err != nil {
		m.logger.Error("failed to delete property", zap.Int64("property_id", id), zap.Error(err))
		return nil, fail(err, "Failed to delete property")
	}
	return m.List(ctx, page)
}

// SetStatus changes the sale status, then refetches page.
func (m *PropertyManager) SetStatus(ctx context.Context, id int64, status models.PropertyStatus, page int) (*PropertyList, error) {
	if _, err := m.svc.UpdatePropertyStatus(ctx, id, status); err != nil {
		m.logger.Error("failed to update property status", zap.Int64("property_id", id), zap.Error(err))
		return nil, fail(err, "Failed to update property status")
	}
	return m.List(ctx, page)
}
