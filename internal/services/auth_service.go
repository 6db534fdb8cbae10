package services

import (
	"context"
	"dreamhome/web/internal/client"
	"dreamhome/web/internal/models"
	"net/http"
)

// IAuthService exchanges credentials for a backend token.
type IAuthService interface {
	Login(ctx context.Context, username, password string) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
}

type authService struct {
	api *client.Client
}

// NewAuthService creates a new AuthService.
func NewAuthService(api *client.Client) IAuthService {
	return &authService{api: api}
}

func (s *authService) Login(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	err := s.api.Do(ctx, client.Request{
		Method:         http.MethodPost,
		Path:           "/auth/login",
		Body:           models.LoginRequest{Username: username, Password: password},
		DefaultMessage: "Login failed",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	err := s.api.Do(ctx, client.Request{
		Method:         http.MethodPost,
		Path:           "/auth/register",
		Body:           req,
		DefaultMessage: "Registration failed",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
