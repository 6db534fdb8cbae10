package services

import (
	"context"
	"dreamhome/web/internal/client"
	"dreamhome/web/internal/models"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// IPropertyService covers the public property endpoints.
type IPropertyService interface {
	GetAvailableProperties(ctx context.Context, req PageRequest) (*models.Page[models.Property], error)
	GetPropertyByID(ctx context.Context, id int64) (*models.Property, error)
	GetFeaturedProperties(ctx context.Context) ([]models.Property, error)
	SearchProperties(ctx context.Context, keyword string, page, size int) (*models.Page[models.Property], error)
	FilterProperties(ctx context.Context, f PropertyFilter) (*models.Page[models.Property], error)
}

// PropertyFilter mirrors the query parameters of GET /properties/filter.
// Nil bounds are omitted.
type PropertyFilter struct {
	MinPrice    *float64
	MaxPrice    *float64
	Type        string
	MinBedrooms *int
	MaxBedrooms *int
	City        string
	Page        PageRequest
}

type propertyService struct {
	api *client.Client
}

// NewPropertyService creates a new PropertyService.
func NewPropertyService(api *client.Client) IPropertyService {
	return &propertyService{api: api}
}

func (s *propertyService) GetAvailableProperties(ctx context.Context, req PageRequest) (*models.Page[models.Property], error) {
	var page models.Page[models.Property]
	err := s.api.Do(ctx, client.Request{
		Method:         http.MethodGet,
		Path:           "/properties/public",
		Query:          req.values(),
		DefaultMessage: "Failed to fetch properties",
	}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *propertyService) GetPropertyByID(ctx context.Context, id int64) (*models.Property, error) {
	var p models.Property
	err := s.api.Do(ctx, client.Request{
		Method:         http.MethodGet,
		Path:           fmt.Sprintf("/properties/%d", id),
		DefaultMessage: "Failed to fetch property",
	}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *propertyService) GetFeaturedProperties(ctx context.Context) ([]models.Property, error) {
	var props []models.Property
	err := s.api.Do(ctx, client.Request{
		Method:         http.MethodGet,
		Path:           "/properties/featured",
		DefaultMessage: "Failed to fetch featured properties",
	}, &props)
	if err != nil {
		return nil, err
	}
	return props, nil
}

func (s *propertyService) SearchProperties(ctx context.Context, keyword string, page, size int) (*models.Page[models.Property], error) {
	q := PageRequest{Page: page, Size: size}.values()
	q.Del("sortBy")
	q.Del("sortDir")
	q.Set("keyword", keyword)

	var result models.Page[models.Property]
	err := s.api.Do(ctx, client.Request{
		Method:         http.MethodGet,
		Path:           "/properties/search",
		Query:          q,
		DefaultMessage: "Failed to search properties",
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *propertyService) FilterProperties(ctx context.Context, f PropertyFilter) (*models.Page[models.Property], error) {
	var result models.Page[models.Property]
	err := s.api.Do(ctx, client.Request{
		Method:         http.MethodGet,
		Path:           "/properties/filter",
		Query:          f.values(),
		DefaultMessage: "Failed to filter properties",
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (f PropertyFilter) values() url.Values {
	q := f.Page.values()
	if f.MinPrice != nil {
		q.Set("minPrice", strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		q.Set("maxPrice", strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	if f.Type != "" {
		q.Set("type", f.Type)
	}
	if f.MinBedrooms != nil {
		q.Set("minBedrooms", strconv.Itoa(*f.MinBedrooms))
	}
	if f.MaxBedrooms != nil {
		q.Set("maxBedrooms", strconv.Itoa(*f.MaxBedrooms))
	}
	if f.City != "" {
		q.Set("city", f.City)
	}
	return q
}
