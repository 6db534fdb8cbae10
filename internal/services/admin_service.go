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

// IAdminService covers the /admin endpoints: dashboard, users, inquiries, system.
type IAdminService interface {
	GetDashboardStats(ctx context.Context) (*models.DashboardStats, error)
	GetAllUsers(ctx context.Context, req PageRequest) (*models.Page[models.User], error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, u models.UserRequest) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, u models.UserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
	ActivateUser(ctx context.Context, id int64) (*models.User, error)
	DeactivateUser(ctx context.Context, id int64) (*models.User, error)
	SearchUsers(ctx context.Context, query string) ([]models.User, error)
	GetPropertyStats(ctx context.Context) (*models.PropertyStats, error)
	GetAllInquiries(ctx context.Context, page, size int) (*models.Page[models.Inquiry], error)
	RespondToInquiry(ctx context.Context, id int64, response string) error
	GetSystemInfo(ctx context.Context) (*models.SystemInfo, error)
}

type adminService struct {
	api *client.Client
}

// NewAdminService creates a new AdminService.
func NewAdminService(api *client.Client) IAdminService {
	return &adminService{api: api}
}

func (s *adminService) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	if err := s.get(ctx, "/admin/dashboard/stats", nil, "Failed to fetch dashboard statistics", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *adminService) GetAllUsers(ctx context.Context, req PageRequest) (*models.Page[models.User], error) {
	var page models.Page[models.User]
	if err := s.get(ctx, "/admin/users", req.values(), "Failed to fetch users", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *adminService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := s.get(ctx, fmt.Sprintf("/admin/users/%d", id), nil, "Failed to fetch user", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *adminService) CreateUser(ctx context.Context, u models.UserRequest) (*models.User, error) {
	var created models.User
	err := s.api.Do(ctx, client.Request{
		Method:         http.MethodPost,
		Path:           "/admin/users",
		Body:           u,
		DefaultMessage: "Failed to create user",
	}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *adminService) UpdateUser(ctx context.Context, id int64, u models.UserRequest) (*models.User, error) {
	var updated models.User
	err := s.api.Do(ctx, client.Request{
		Method:         http.MethodPut,
		Path:           fmt.Sprintf("/admin/users/%d", id),
		Body:           u,
		DefaultMessage: "Failed to update user",
	}, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *adminService) DeleteUser(ctx context.Context, id int64) error {
	return s.api.Do(ctx, client.Request{
		Method:         http.MethodDelete,
		Path:           fmt.Sprintf("/admin/users/%d", id),
		DefaultMessage: "Failed to delete user",
	}, nil)
}

func (s *adminService) ActivateUser(ctx context.Context, id int64) (*models.User, error) {
	return s.setActive(ctx, id, "activate", "Failed to activate user")
}

func (s *adminService) DeactivateUser(ctx context.Context, id int64) (*models.User, error) {
	return s.setActive(ctx, id, "deactivate", "Failed to deactivate user")
}

func (s *adminService) setActive(ctx context.Context, id int64, action, defaultMessage string) (*models.User, error) {
	var u models.User
	err := s.api.Do(ctx, client.Request{
		Method:         http.MethodPut,
		Path:           fmt.Sprintf("/admin/users/%d/%s", id, action),
		DefaultMessage: defaultMessage,
	}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *adminService) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	var users []models.User
	if err := s.get(ctx, "/admin/users/search", url.Values{"query": {query}}, "Failed to search users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *adminService) GetPropertyStats(ctx context.Context) (*models.PropertyStats, error) {
	var stats models.PropertyStats
	if err := s.get(ctx, "/admin/properties/stats", nil, "Failed to fetch property statistics", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *adminService) GetAllInquiries(ctx context.Context, page, size int) (*models.Page[models.Inquiry], error) {
	if size <= 0 {
		size = DefaultSize
	}
	if page < 0 {
		page = DefaultPage
	}
	q := url.Values{"page": {strconv.Itoa(page)}, "size": {strconv.Itoa(size)}}
	var result models.Page[models.Inquiry]
	if err := s.get(ctx, "/admin/inquiries", q, "Failed to fetch inquiries", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *adminService) RespondToInquiry(ctx context.Context, id int64, response string) error {
	return s.api.Do(ctx, client.Request{
		Method:         http.MethodPut,
		Path:           fmt.Sprintf("/admin/inquiries/%d/respond", id),
		Body:           map[string]string{"response": response},
		DefaultMessage: "Failed to respond to inquiry",
	}, nil)
}

func (s *adminService) GetSystemInfo(ctx context.Context) (*models.SystemInfo, error) {
	var info models.SystemInfo
	if err := s.get(ctx, "/admin/system/info", nil, "Failed to fetch system information", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (s *adminService) get(ctx context.Context, path string, q url.Values, defaultMessage string, out interface{}) error {
	return s.api.Do(ctx, client.Request{
		Method:         http.MethodGet,
		Path:           path,
		Query:          q,
		DefaultMessage: defaultMessage,
	}, out)
}
