package services

import (
	"context"
	"dreamhome/web/internal/client"
	"dreamhome/web/internal/models"
	"fmt"
	"net/http"
	"net/url"
)

// IAdminPropertyService covers the admin property endpoints.
type IAdminPropertyService interface {
	GetAllProperties(ctx context.Context) ([]models.Property, error)
	CreateProperty(ctx context.Context, p models.Property) (*models.Property, error)
	UpdateProperty(ctx context.Context, id int64, p models.Property) (*models.Property, error)
	DeleteProperty(ctx context.Context, id int64) error
	UpdatePropertyStatus(ctx context.Context, id int64, status models.PropertyStatus) (*models.Property, error)
}

type adminPropertyService struct {
	api *client.Client
}

// NewAdminPropertyService creates a new AdminPropertyService.
func NewAdminPropertyService(api *client.Client) IAdminPropertyService {
	return &adminPropertyService{api: api}
}

// GetAllProperties returns every property regardless of status.
func (s *adminPropertyService) GetAllProperties(ctx context.Context) ([]models.Property, error) {
	var props []models.Property
	err := s.api.Do(ctx, client.Request{
		Method:         http.MethodGet,
		Path:           "/properties/admin/all",
		DefaultMessage: "Failed to fetch all properties",
	}, &props)
	if err != nil {
		return nil, err
	}
	return props, nil
}

func (s *adminPropertyService) CreateProperty(ctx context.Context, p models.Property) (*models.Property, error) {
	p.ID = 0
	var created models.Property
	err := s.api.Do(ctx, client.Request{
		Method:         http.MethodPost,
		Path:           "/properties/admin",
		Body:           p,
		DefaultMessage: "Failed to create property",
	}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *adminPropertyService) UpdateProperty(ctx context.Context, id int64, p models.Property) (*models.Property, error) {
	p.ID = id
	var updated models.Property
	err := s.api.Do(ctx, client.Request{
		Method:         http.MethodPut,
		Path:           fmt.Sprintf("/properties/admin/%d", id),
		Body:           p,
		DefaultMessage: "Failed to update property",
	}, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *adminPropertyService) DeleteProperty(ctx context.Context, id int64) error {
	return s.api.Do(ctx, client.Request{
		Method:         http.MethodDelete,
		Path:           fmt.Sprintf("/properties/admin/%d", id),
		DefaultMessage: "Failed to delete property",
	}, nil)
}

func (s *adminPropertyService) UpdatePropertyStatus(ctx context.Context, id int64, status models.PropertyStatus) (*models.Property, error) {
	var updated models.Property
	err := s.api.Do(ctx, client.Request{
		Method:         http.MethodPut,
		Path:           fmt.Sprintf("/properties/admin/%d/status", id),
		Query:          url.Values{"status": {string(status)}},
		DefaultMessage: "Failed to update property status",
	}, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
